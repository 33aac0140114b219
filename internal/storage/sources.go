package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrSourceNotFound = errors.New("source not found")

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
	SourceXLSX  = "xlsx"
)

// Source represents a word list source: a local path, a Git URL or a workbook.
type Source struct {
	ID          int64        `db:"id" json:"id"`
	Path        string       `db:"path" json:"path"`
	Type        string       `db:"type" json:"type"`
	LastScanned sql.NullTime `db:"last_scanned" json:"-"`
}

// Import links a word to the source entry it was created from.
type Import struct {
	WordID      int64  `db:"word_id"`
	SourceID    int64  `db:"source_id"`
	Fingerprint string `db:"fingerprint"`
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	err := db.conn.GetContext(ctx, &s, `
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := db.conn.SelectContext(ctx, &sources, `
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source. Words imported from it are kept; only
// their links are dropped.
func (db *DB) DeleteSource(ctx context.Context, sourceID int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete of source ID %d: %w", sourceID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM imports WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to unlink imports of source ID %d: %w", sourceID, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	} else if n == 0 {
		return fmt.Errorf("%w: id %d", ErrSourceNotFound, sourceID)
	}
	return tx.Commit()
}

// SaveImport records or refreshes the link between a word and its source entry.
func (db *DB) SaveImport(ctx context.Context, imp Import) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO imports (word_id, source_id, fingerprint)
		VALUES (:word_id, :source_id, :fingerprint)
		ON CONFLICT(word_id) DO UPDATE SET
		  source_id = excluded.source_id,
		  fingerprint = excluded.fingerprint
	`, imp)
	if err != nil {
		return fmt.Errorf("failed to save import of word %d: %w", imp.WordID, err)
	}
	return nil
}

// FindImportByWord returns the import link of a word, or nil if it was
// added by hand.
func (db *DB) FindImportByWord(ctx context.Context, wordID int64) (*Import, error) {
	var imp Import
	err := db.conn.GetContext(ctx, &imp, `
		SELECT word_id, source_id, fingerprint
		FROM imports WHERE word_id = ?
	`, wordID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find import of word %d: %w", wordID, err)
	}
	return &imp, nil
}

// GetImportsBySourceID retrieves all import links of a source.
func (db *DB) GetImportsBySourceID(ctx context.Context, sourceID int64) ([]Import, error) {
	var imports []Import
	if err := db.conn.SelectContext(ctx, &imports, `
		SELECT word_id, source_id, fingerprint
		FROM imports WHERE source_id = ?
	`, sourceID); err != nil {
		return nil, fmt.Errorf("failed to get imports for source ID %d: %w", sourceID, err)
	}
	return imports, nil
}

// DeleteImport unlinks a word from its source. The word itself is kept.
func (db *DB) DeleteImport(ctx context.Context, wordID int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM imports WHERE word_id = ?`, wordID); err != nil {
		return fmt.Errorf("failed to delete import of word %d: %w", wordID, err)
	}
	return nil
}
