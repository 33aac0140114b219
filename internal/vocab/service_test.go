package vocab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
	"github.com/conorfennell/wordpractice/internal/storage"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func setupService(t *testing.T, opts Options) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:", clock.Fixed(today))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db, clock.Fixed(today), opts), db
}

func TestAddWord(t *testing.T) {
	svc, _ := setupService(t, Options{})
	ctx := context.Background()

	w, err := svc.AddWord(ctx, domain.WordInput{
		Word:        "  give up ",
		Translation: "poddać się",
		Tags:        []domain.Tag{domain.TagPhrasalVerb},
	})
	if err != nil {
		t.Fatalf("AddWord() returned an unexpected error: %v", err)
	}
	if w.ID == 0 {
		t.Error("Expected an ID to be assigned")
	}
	if w.Word != "give up" {
		t.Errorf("Expected the word to be trimmed, but got '%s'", w.Word)
	}
	if !w.NextReviewDate.Equal(today) || len(w.History) != 0 {
		t.Errorf("Expected a new word due today with no history, but got %+v", w)
	}

	testCases := []struct {
		name     string
		input    domain.WordInput
		expected error
	}{
		{"duplicate", domain.WordInput{Word: "give up", Translation: "x"}, domain.ErrDuplicateWord},
		{"blank word", domain.WordInput{Word: "  ", Translation: "x"}, domain.ErrInvalidWord},
		{"blank translation", domain.WordInput{Word: "give in", Translation: ""}, domain.ErrInvalidWord},
		{"unknown tag", domain.WordInput{Word: "give in", Translation: "ustąpić", Tags: []domain.Tag{"noun"}}, domain.ErrInvalidTag},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AddWord(ctx, tc.input); !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, but got %v", tc.expected, err)
			}
		})
	}
}

func TestEditWord(t *testing.T) {
	svc, db := setupService(t, Options{})
	ctx := context.Background()

	run, _ := svc.AddWord(ctx, domain.WordInput{Word: "run", Translation: "biegać"})
	walk, _ := svc.AddWord(ctx, domain.WordInput{Word: "walk", Translation: "chodzić"})

	// Give "run" some review state that an edit must not touch.
	run.History = []domain.Answer{{Correct: true, AskedAt: today}}
	run.NextReviewDate = today.AddDate(0, 0, 2)
	if err := db.UpdateWord(ctx, &run); err != nil {
		t.Fatalf("UpdateWord() returned an unexpected error: %v", err)
	}

	edited, err := svc.EditWord(ctx, run.ID, domain.WordInput{Word: "run", Translation: "biec", Example: "Run!", Tags: []domain.Tag{domain.TagWord}})
	if err != nil {
		t.Fatalf("EditWord() returned an unexpected error: %v", err)
	}
	if edited.Translation != "biec" || edited.Example != "Run!" {
		t.Errorf("Expected the edit to apply, but got %+v", edited)
	}

	stored, err := svc.GetWord(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetWord() returned an unexpected error: %v", err)
	}
	if len(stored.History) != 1 || !stored.NextReviewDate.Equal(today.AddDate(0, 0, 2)) {
		t.Errorf("Expected history and date to be untouched, but got %+v", stored)
	}

	if _, err := svc.EditWord(ctx, run.ID, domain.WordInput{Word: "walk", Translation: "x"}); !errors.Is(err, domain.ErrDuplicateWord) {
		t.Errorf("Expected ErrDuplicateWord, but got %v", err)
	}
	if _, err := svc.EditWord(ctx, walk.ID, domain.WordInput{Word: "walk", Translation: "spacerować"}); err != nil {
		t.Errorf("Expected keeping the same text to be allowed, but got %v", err)
	}
	if _, err := svc.EditWord(ctx, 999, domain.WordInput{Word: "ghost", Translation: "duch"}); !errors.Is(err, domain.ErrWordNotFound) {
		t.Errorf("Expected ErrWordNotFound, but got %v", err)
	}
}

func TestFindWords(t *testing.T) {
	svc, _ := setupService(t, Options{})
	ctx := context.Background()
	for _, w := range []string{"run", "run out", "walk"} {
		if _, err := svc.AddWord(ctx, domain.WordInput{Word: w, Translation: "t"}); err != nil {
			t.Fatalf("AddWord(%q) returned an unexpected error: %v", w, err)
		}
	}

	found, err := svc.FindWords(ctx, query.New().WordContains("run"))
	if err != nil {
		t.Fatalf("FindWords() returned an unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Expected 2 words, but got %d", len(found))
	}
}

func TestStartSession(t *testing.T) {
	svc, db := setupService(t, Options{SessionSize: 3})
	ctx := context.Background()

	for _, w := range []string{"a", "b", "c", "d", "e"} {
		if _, err := svc.AddWord(ctx, domain.WordInput{Word: w, Translation: "t"}); err != nil {
			t.Fatalf("AddWord(%q) returned an unexpected error: %v", w, err)
		}
	}
	// One word is not due yet and must never be sampled.
	later, _ := svc.AddWord(ctx, domain.WordInput{Word: "later", Translation: "t"})
	later.NextReviewDate = today.AddDate(0, 0, 3)
	if err := db.UpdateWord(ctx, &later); err != nil {
		t.Fatalf("UpdateWord() returned an unexpected error: %v", err)
	}

	q, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatalf("StartSession() returned an unexpected error: %v", err)
	}
	if q.Len() != 3 {
		t.Fatalf("Expected 3 words in the session, but got %d", q.Len())
	}

	for !q.IsEmpty() {
		it, err := q.PopNext()
		if err != nil {
			t.Fatalf("PopNext() returned an unexpected error: %v", err)
		}
		if it.Word.ID == later.ID {
			t.Error("Expected a word that is not due to be left out")
		}
		if err := q.RecordOutcome(ctx, it, true); err != nil {
			t.Fatalf("RecordOutcome() returned an unexpected error: %v", err)
		}
		stored, _ := svc.GetWord(ctx, it.Word.ID)
		if len(stored.History) != 1 || !stored.NextReviewDate.Equal(today.AddDate(0, 0, 2)) {
			t.Errorf("Expected the answer to be persisted, but got %+v", stored)
		}
	}

	due, err := svc.FindWords(ctx, query.New().DueForReview())
	if err != nil {
		t.Fatalf("FindWords() returned an unexpected error: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("Expected 2 words still due, but got %d", len(due))
	}
}

func TestStartSessionWithNothingDue(t *testing.T) {
	svc, _ := setupService(t, Options{})
	q, err := svc.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() returned an unexpected error: %v", err)
	}
	if !q.IsEmpty() {
		t.Errorf("Expected an empty session, but got %d words", q.Len())
	}
}

func TestLookupWord(t *testing.T) {
	svc, _ := setupService(t, Options{})
	ctx := context.Background()
	for _, in := range []domain.WordInput{
		{Word: "run", Translation: "biegać"},
		{Word: "run out", Translation: "skończyć się"},
	} {
		if _, err := svc.AddWord(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	w, err := svc.LookupWord(ctx, "run")
	if err != nil || w == nil {
		t.Fatalf("LookupWord() = %v, %v", w, err)
	}
	if w.Translation != "biegać" {
		t.Errorf("Expected the exact match 'run', but got %+v", w)
	}

	if w, err := svc.LookupWord(ctx, "Run"); err != nil || w != nil {
		t.Errorf("Expected no match for 'Run', but got %v, %v", w, err)
	}
}
