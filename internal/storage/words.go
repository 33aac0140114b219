package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
)

// wordRow is the stored form of a domain.Word.
type wordRow struct {
	ID             int64  `db:"id"`
	Word           string `db:"word"`
	Translation    string `db:"translation"`
	Example        string `db:"example"`
	Tags           string `db:"tags"`
	NextReviewDate string `db:"next_review_date"`
	History        string `db:"history"`
}

type answerRow struct {
	Correct bool   `json:"correct"`
	AskedAt string `json:"asked_at"`
}

func toRow(w *domain.Word) (wordRow, error) {
	answers := make([]answerRow, 0, len(w.History))
	for _, a := range w.History {
		answers = append(answers, answerRow{Correct: a.Correct, AskedAt: clock.FormatDate(a.AskedAt)})
	}
	history, err := json.Marshal(answers)
	if err != nil {
		return wordRow{}, err
	}

	tags := make([]string, 0, len(w.Tags))
	for _, t := range w.Tags {
		tags = append(tags, string(t))
	}

	return wordRow{
		ID:             w.ID,
		Word:           w.Word,
		Translation:    w.Translation,
		Example:        w.Example,
		Tags:           strings.Join(tags, ","),
		NextReviewDate: clock.FormatDate(w.NextReviewDate),
		History:        string(history),
	}, nil
}

func (r wordRow) toWord() (domain.Word, error) {
	w := domain.Word{
		ID:          r.ID,
		Word:        r.Word,
		Translation: r.Translation,
		Example:     r.Example,
	}

	for _, t := range strings.Split(r.Tags, ",") {
		if t != "" {
			w.Tags = append(w.Tags, domain.Tag(t))
		}
	}

	next, err := clock.ParseDate(r.NextReviewDate)
	if err != nil {
		return domain.Word{}, fmt.Errorf("bad next review date for word %d: %w", r.ID, err)
	}
	w.NextReviewDate = next

	var answers []answerRow
	if err := json.Unmarshal([]byte(r.History), &answers); err != nil {
		return domain.Word{}, fmt.Errorf("bad history for word %d: %w", r.ID, err)
	}
	for _, a := range answers {
		askedAt, err := clock.ParseDate(a.AskedAt)
		if err != nil {
			return domain.Word{}, fmt.Errorf("bad answer date for word %d: %w", r.ID, err)
		}
		w.History = append(w.History, domain.Answer{Correct: a.Correct, AskedAt: askedAt})
	}
	return w, nil
}

// InsertWord stores a new word, sets its ID and returns it.
func (db *DB) InsertWord(ctx context.Context, w *domain.Word) (int64, error) {
	row, err := toRow(w)
	if err != nil {
		return 0, fmt.Errorf("failed to encode word %q: %w", w.Word, err)
	}

	res, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO words (word, translation, example, tags, next_review_date, history)
		VALUES (:word, :translation, :example, :tags, :next_review_date, :history)
	`, row)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return 0, fmt.Errorf("%w: %q", domain.ErrDuplicateWord, w.Word)
		}
		return 0, fmt.Errorf("failed to insert word %q: %w", w.Word, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for word %q: %w", w.Word, err)
	}
	w.ID = id
	return id, nil
}

// UpdateWord overwrites every column of an existing word.
func (db *DB) UpdateWord(ctx context.Context, w *domain.Word) error {
	row, err := toRow(w)
	if err != nil {
		return fmt.Errorf("failed to encode word %d: %w", w.ID, err)
	}

	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE words
		SET word = :word, translation = :translation, example = :example, tags = :tags,
		    next_review_date = :next_review_date, history = :history
		WHERE id = :id
	`, row)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateWord, w.Word)
		}
		return fmt.Errorf("failed to update word %d: %w", w.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update word %d: %w", w.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrWordNotFound, w.ID)
	}
	return nil
}

// FindWords returns the words selected by spec, in its order and page window.
func (db *DB) FindWords(ctx context.Context, spec query.Spec) ([]domain.Word, error) {
	where, args := db.whereClause(spec)

	orderBy := "id ASC"
	if spec.Order() == query.ByNextReview {
		orderBy = "next_review_date ASC, id ASC"
	}

	stmt := `SELECT id, word, translation, example, tags, next_review_date, history FROM words` +
		where + ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, spec.Limit(), spec.Offset())

	var rows []wordRow
	if err := db.conn.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to find words: %w", err)
	}

	words := make([]domain.Word, 0, len(rows))
	for _, r := range rows {
		w, err := r.toWord()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// CountWords returns how many words match spec's predicates, ignoring its
// page window.
func (db *DB) CountWords(ctx context.Context, spec query.Spec) (int, error) {
	where, args := db.whereClause(spec)

	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM words`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}

func (db *DB) whereClause(spec query.Spec) (string, []any) {
	var conds []string
	var args []any
	for _, p := range spec.Predicates() {
		switch p.Kind {
		case query.IDEquals:
			conds = append(conds, "id = ?")
			args = append(args, p.ID)
		case query.IDNotEquals:
			conds = append(conds, "id != ?")
			args = append(args, p.ID)
		case query.WordEquals:
			conds = append(conds, "word = ?")
			args = append(args, p.Text)
		case query.WordContains:
			// instr is case sensitive, unlike LIKE.
			conds = append(conds, "instr(word, ?) > 0")
			args = append(args, p.Text)
		case query.DueForReview:
			conds = append(conds, "next_review_date <= ?")
			args = append(args, clock.FormatDate(db.clock.Today()))
		default:
			conds = append(conds, "0")
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
