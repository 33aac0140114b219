package vocab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
	"github.com/conorfennell/wordpractice/internal/review"
)

// Store is the storage the service needs.
type Store interface {
	FindWords(ctx context.Context, spec query.Spec) ([]domain.Word, error)
	InsertWord(ctx context.Context, w *domain.Word) (int64, error)
	UpdateWord(ctx context.Context, w *domain.Word) error
}

// Options tunes review sessions.
type Options struct {
	SessionSize int
	SampleLimit int
	Shuffler    review.Shuffler
}

// Service manages the vocabulary: adding, editing and finding words, and
// starting review sessions.
type Service struct {
	store    Store
	clock    clock.Clock
	validate *validator.Validate
	opts     Options
}

// NewService wires a service. A nil clock means the system clock.
func NewService(store Store, c clock.Clock, opts Options) *Service {
	if c == nil {
		c = clock.System{}
	}
	if opts.SessionSize <= 0 {
		opts.SessionSize = review.DefaultSessionSize
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = query.SampleLimit
	}
	return &Service{
		store:    store,
		clock:    c,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
}

// AddWord validates and stores a new word, due for review today.
func (s *Service) AddWord(ctx context.Context, in domain.WordInput) (domain.Word, error) {
	in, err := s.check(ctx, in, 0)
	if err != nil {
		return domain.Word{}, err
	}

	w := domain.Word{NextReviewDate: s.clock.Today()}.Apply(in)
	if _, err := s.store.InsertWord(ctx, &w); err != nil {
		return domain.Word{}, err
	}
	slog.Info("word added", "id", w.ID, "word", w.Word)
	return w, nil
}

// EditWord replaces the editable fields of a word. Its history and next
// review date are left alone.
func (s *Service) EditWord(ctx context.Context, id int64, in domain.WordInput) (domain.Word, error) {
	w, err := s.GetWord(ctx, id)
	if err != nil {
		return domain.Word{}, err
	}

	in, err = s.check(ctx, in, id)
	if err != nil {
		return domain.Word{}, err
	}

	w = w.Apply(in)
	if err := s.store.UpdateWord(ctx, &w); err != nil {
		return domain.Word{}, err
	}
	slog.Info("word edited", "id", w.ID, "word", w.Word)
	return w, nil
}

// GetWord loads a single word by id.
func (s *Service) GetWord(ctx context.Context, id int64) (domain.Word, error) {
	words, err := s.store.FindWords(ctx, query.New().IDEquals(id).Page(0, 1))
	if err != nil {
		return domain.Word{}, err
	}
	if len(words) == 0 {
		return domain.Word{}, fmt.Errorf("%w: id %d", domain.ErrWordNotFound, id)
	}
	return words[0], nil
}

// LookupWord finds a word by its exact text. It returns nil when no word
// matches.
func (s *Service) LookupWord(ctx context.Context, text string) (*domain.Word, error) {
	words, err := s.store.FindWords(ctx, query.New().WordEquals(text).Page(0, 1))
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, nil
	}
	return &words[0], nil
}

// FindWords evaluates a query spec for listing and search screens.
func (s *Service) FindWords(ctx context.Context, spec query.Spec) ([]domain.Word, error) {
	return s.store.FindWords(ctx, spec)
}

// StartSession samples the most overdue words and builds a review queue
// over them.
func (s *Service) StartSession(ctx context.Context) (*review.Queue, error) {
	spec := query.DueSample().Page(0, s.opts.SampleLimit)
	words, err := s.store.FindWords(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to sample due words: %w", err)
	}
	q := review.NewQueue(words, s.store, s.clock.Today(), s.opts.Shuffler, s.opts.SessionSize)
	slog.Info("review session started", "due_sampled", len(words), "session", q.Len())
	return q, nil
}

// check normalises and validates in, then makes sure no other word has the
// same text.
func (s *Service) check(ctx context.Context, in domain.WordInput, id int64) (domain.WordInput, error) {
	in = in.Normalize()
	if err := s.validate.Struct(in); err != nil {
		return in, translateValidation(err)
	}

	dups, err := s.store.FindWords(ctx, query.Duplicate(in.Word, id))
	if err != nil {
		return in, err
	}
	if len(dups) > 0 {
		return in, fmt.Errorf("%w: %q", domain.ErrDuplicateWord, in.Word)
	}
	return in, nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var fields []string
	for _, fe := range verrs {
		if fe.StructField() == "Tags" || strings.HasPrefix(fe.StructNamespace(), "WordInput.Tags[") {
			return fmt.Errorf("%w: %v", domain.ErrInvalidTag, fe.Value())
		}
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidWord, strings.Join(fields, ", "))
}
