package query

import (
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/wordpractice/internal/domain"
)

const (
	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 10
	// SampleLimit caps the number of due words fetched for a review session.
	SampleLimit = 100
)

// Kind identifies a filter predicate.
type Kind int

const (
	IDEquals Kind = iota + 1
	IDNotEquals
	WordEquals
	WordContains
	DueForReview
)

// Predicate is a single filter. ID is set for the id kinds, Text for the
// word kinds.
type Predicate struct {
	Kind Kind
	ID   int64
	Text string
}

// Order selects how matching words are sorted.
type Order int

const (
	ByID Order = iota
	// ByNextReview sorts by next review date, then by id.
	ByNextReview
)

// Spec describes which words to fetch. It is immutable: every builder method
// returns a new Spec and leaves the receiver untouched.
type Spec struct {
	preds  []Predicate
	order  Order
	offset int
	limit  int
}

// New returns a spec matching every word, ordered by id, first page.
func New() Spec {
	return Spec{limit: DefaultLimit}
}

// DueSample selects the words a review session is sampled from, most
// overdue first.
func DueSample() Spec {
	return New().DueForReview().OrderByNextReview().Page(0, SampleLimit)
}

// Duplicate finds another word with the given text. excludeID is ignored
// when zero.
func Duplicate(word string, excludeID int64) Spec {
	s := New().WordEquals(word)
	if excludeID != 0 {
		s = s.IDNotEquals(excludeID)
	}
	return s.Page(0, 1)
}

// Where adds an arbitrary predicate. A predicate of unknown kind matches
// nothing.
func (s Spec) Where(p Predicate) Spec {
	s.preds = append(slices.Clip(s.preds), p)
	return s
}

func (s Spec) with(p Predicate) Spec { return s.Where(p) }

func (s Spec) IDEquals(id int64) Spec       { return s.with(Predicate{Kind: IDEquals, ID: id}) }
func (s Spec) IDNotEquals(id int64) Spec    { return s.with(Predicate{Kind: IDNotEquals, ID: id}) }
func (s Spec) WordEquals(text string) Spec  { return s.with(Predicate{Kind: WordEquals, Text: text}) }
func (s Spec) WordContains(sub string) Spec { return s.with(Predicate{Kind: WordContains, Text: sub}) }
func (s Spec) DueForReview() Spec           { return s.with(Predicate{Kind: DueForReview}) }

// OrderByNextReview sorts by next review date ascending, ties by id.
func (s Spec) OrderByNextReview() Spec {
	s.order = ByNextReview
	return s
}

// OrderByID restores the default ordering.
func (s Spec) OrderByID() Spec {
	s.order = ByID
	return s
}

// Page sets the window. A negative offset is treated as zero and a
// non-positive limit as DefaultLimit.
func (s Spec) Page(offset, limit int) Spec {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.offset = offset
	s.limit = limit
	return s
}

// Predicates returns a copy of the active predicates.
func (s Spec) Predicates() []Predicate { return slices.Clone(s.preds) }
func (s Spec) Order() Order            { return s.order }
func (s Spec) Offset() int             { return s.offset }

func (s Spec) Limit() int {
	if s.limit <= 0 {
		return DefaultLimit
	}
	return s.limit
}

// Matches reports whether w satisfies every predicate.
func (s Spec) Matches(w domain.Word, today time.Time) bool {
	for _, p := range s.preds {
		if !p.matches(w, today) {
			return false
		}
	}
	return true
}

func (p Predicate) matches(w domain.Word, today time.Time) bool {
	switch p.Kind {
	case IDEquals:
		return w.ID == p.ID
	case IDNotEquals:
		return w.ID != p.ID
	case WordEquals:
		return w.Word == p.Text
	case WordContains:
		return strings.Contains(w.Word, p.Text)
	case DueForReview:
		return w.IsDue(today)
	}
	return false
}

// Apply evaluates the spec against an in-memory slice. The input is not
// modified.
func (s Spec) Apply(words []domain.Word, today time.Time) []domain.Word {
	var out []domain.Word
	for _, w := range words {
		if s.Matches(w, today) {
			out = append(out, w)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Word) int {
		if s.order == ByNextReview {
			if c := a.NextReviewDate.Compare(b.NextReviewDate); c != 0 {
				return c
			}
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	if s.offset >= len(out) {
		return nil
	}
	out = out[s.offset:]
	if len(out) > s.Limit() {
		out = out[:s.Limit()]
	}
	return out
}
