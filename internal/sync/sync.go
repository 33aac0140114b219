package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/wordpractice/internal/fingerprint"
	"github.com/conorfennell/wordpractice/internal/gitsource"
	"github.com/conorfennell/wordpractice/internal/parser"
	"github.com/conorfennell/wordpractice/internal/storage"
	"github.com/conorfennell/wordpractice/internal/vocab"
)

var ErrUnknownSourceType = errors.New("unknown source type")

// Report summarises one reconciliation.
type Report struct {
	Parsed   int `json:"parsed"`
	Added    int `json:"added"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Unlinked int `json:"unlinked"`
	Errors   int `json:"errors"`
}

func (r *Report) add(o Report) {
	r.Parsed += o.Parsed
	r.Added += o.Added
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Unlinked += o.Unlinked
	r.Errors += o.Errors
}

// Syncer imports word lists from the configured sources.
type Syncer struct {
	db       *storage.DB
	words    *vocab.Service
	reposDir string
	progress io.Writer
}

// NewSyncer creates a syncer that checks git sources out under reposDir.
func NewSyncer(db *storage.DB, words *vocab.Service, reposDir string) *Syncer {
	return &Syncer{db: db, words: words, reposDir: reposDir}
}

// SetProgress sends git clone/pull progress to w.
func (s *Syncer) SetProgress(w io.Writer) { s.progress = w }

// DetectType guesses the source type from its path.
func DetectType(path string) string {
	switch {
	case strings.EqualFold(filepath.Ext(path), ".xlsx"):
		return storage.SourceXLSX
	case gitsource.IsRemote(path):
		return storage.SourceGit
	default:
		return storage.SourceLocal
	}
}

// AddSource registers a new source, or returns the existing one with the
// same path.
func (s *Syncer) AddSource(ctx context.Context, path string) (*storage.Source, error) {
	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sourceType := DetectType(path)
	id, err := s.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// RunSync iterates over all sources and reconciles them. A failing source is
// logged and skipped; only failing to list the sources is returned.
func (s *Syncer) RunSync(ctx context.Context) (Report, error) {
	var total Report

	slog.Info("Starting sync process for all sources...")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with --add-source <path/or/url.git>")
		return total, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		report, err := s.syncSource(ctx, source)
		if err != nil {
			slog.Error("Error syncing source", "id", source.ID, "path", source.Path, "error", err)
			total.Errors++
			continue
		}
		total.add(report)
	}
	slog.Info("Sync process complete.",
		"added", total.Added,
		"updated", total.Updated,
		"skipped", total.Skipped,
		"errors", total.Errors,
	)
	return total, nil
}

func (s *Syncer) syncSource(ctx context.Context, source storage.Source) (Report, error) {
	var entries []parser.Entry
	var parseErrors []error

	switch source.Type {
	case storage.SourceLocal:
		es, errs, err := walkWordLists(source.Path)
		if err != nil {
			return Report{}, err
		}
		entries, parseErrors = es, errs
	case storage.SourceXLSX:
		es, err := parser.ParseWorkbook(source.Path)
		if err != nil {
			return Report{}, err
		}
		entries = es
	case storage.SourceGit:
		if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
			return Report{}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return Report{}, err
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath, s.progress); err != nil {
			return Report{}, err
		}
		es, errs, err := walkWordLists(localRepoPath)
		if err != nil {
			return Report{}, err
		}
		entries, parseErrors = es, errs
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownSourceType, source.Type)
	}

	for _, err := range parseErrors {
		slog.Warn("Failed to parse word list", "source_id", source.ID, "error", err)
	}

	report, err := s.reconcile(ctx, source, entries, len(parseErrors) == 0)
	report.Errors += len(parseErrors)
	if err != nil {
		return report, err
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}
	return report, nil
}

// walkWordLists parses every markdown file under root. Files that fail to
// parse are reported in the second result; failing to walk root at all is
// returned as the error.
func walkWordLists(root string) ([]parser.Entry, []error, error) {
	var entries []parser.Entry
	var errs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			fileEntries, parseErr := parser.ParseFile(path)
			if parseErr != nil {
				errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
			}
			entries = append(entries, fileEntries...)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", root, walkErr)
	}
	return entries, errs, nil
}

// reconcile brings the vocabulary in line with the entries of one source.
// New words are added, words whose entry changed are edited, and words added
// by hand or owned by another source are left alone. Words whose entry has
// disappeared are unlinked, never deleted. Unlinking only happens when the
// source was read completely and every entry was applied.
func (s *Syncer) reconcile(ctx context.Context, source storage.Source, entries []parser.Entry, complete bool) (Report, error) {
	var report Report
	seen := make(map[int64]bool)

	for _, entry := range entries {
		report.Parsed++

		in, err := entry.Input()
		if err != nil {
			slog.Warn("Skipping entry", "word", entry.Word, "error", err)
			report.Errors++
			continue
		}
		fp := fingerprint.Hash(in)

		existing, err := s.words.LookupWord(ctx, in.Word)
		if err != nil {
			return report, err
		}

		if existing == nil {
			w, err := s.words.AddWord(ctx, in)
			if err != nil {
				slog.Warn("Failed to add word", "word", in.Word, "error", err)
				report.Errors++
				continue
			}
			if err := s.db.SaveImport(ctx, storage.Import{WordID: w.ID, SourceID: source.ID, Fingerprint: fp}); err != nil {
				return report, err
			}
			seen[w.ID] = true
			report.Added++
			continue
		}

		imp, err := s.db.FindImportByWord(ctx, existing.ID)
		if err != nil {
			return report, err
		}
		if imp == nil || imp.SourceID != source.ID {
			slog.Debug("Word exists outside this source, skipping", "word", in.Word)
			report.Skipped++
			continue
		}
		seen[existing.ID] = true
		if imp.Fingerprint == fp {
			continue
		}

		if _, err := s.words.EditWord(ctx, existing.ID, in); err != nil {
			slog.Warn("Failed to update word", "word", in.Word, "error", err)
			report.Errors++
			continue
		}
		imp.Fingerprint = fp
		if err := s.db.SaveImport(ctx, *imp); err != nil {
			return report, err
		}
		report.Updated++
	}

	if complete && report.Errors == 0 {
		if err := s.unlinkMissing(ctx, source, seen, &report); err != nil {
			return report, err
		}
	} else {
		slog.Warn("Source not read cleanly, keeping existing links", "path", source.Path)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed", report.Parsed,
		"added", report.Added,
		"updated", report.Updated,
		"unlinked", report.Unlinked,
		"errors", report.Errors,
	)
	return report, nil
}

// unlinkMissing drops the import links of words whose entry is no longer in
// the source.
func (s *Syncer) unlinkMissing(ctx context.Context, source storage.Source, seen map[int64]bool, report *Report) error {
	imports, err := s.db.GetImportsBySourceID(ctx, source.ID)
	if err != nil {
		return err
	}
	for _, imp := range imports {
		if seen[imp.WordID] {
			continue
		}
		slog.Info("Entry gone from source, unlinking word", "word_id", imp.WordID)
		if err := s.db.DeleteImport(ctx, imp.WordID); err != nil {
			slog.Warn("Failed to unlink word", "word_id", imp.WordID, "error", err)
			continue
		}
		report.Unlinked++
	}
	return nil
}
