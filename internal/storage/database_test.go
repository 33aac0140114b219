package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/wordpractice/internal/clock"
	"github.com/conorfennell/wordpractice/internal/domain"
	"github.com/conorfennell/wordpractice/internal/query"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", clock.Fixed(today))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB) []domain.Word {
	t.Helper()
	words := []domain.Word{
		{Word: "run", Translation: "biegać", NextReviewDate: today},
		{Word: "run out", Translation: "skończyć się", Tags: []domain.Tag{domain.TagPhrasalVerb}, NextReviewDate: today.AddDate(0, 0, -3)},
		{Word: "Running", Translation: "bieganie", NextReviewDate: today.AddDate(0, 0, 5)},
		{Word: "make do", Translation: "radzić sobie", Tags: []domain.Tag{domain.TagCollocation, domain.TagPhrasalVerb}, NextReviewDate: today.AddDate(0, 0, -3)},
		{Word: "take off", Translation: "wystartować", NextReviewDate: today.AddDate(0, 0, -1)},
	}
	for i := range words {
		if _, err := db.InsertWord(context.Background(), &words[i]); err != nil {
			t.Fatalf("insert %q: %v", words[i].Word, err)
		}
	}
	return words
}

func TestInsertAndFindRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	w := domain.Word{
		Word:           "look up",
		Translation:    "sprawdzić",
		Example:        "Look it up in a dictionary.",
		Tags:           []domain.Tag{domain.TagPhrasalVerb, domain.TagWord},
		NextReviewDate: today.AddDate(0, 0, 8),
		History: []domain.Answer{
			{Correct: false, AskedAt: today.AddDate(0, 0, -10)},
			{Correct: true, AskedAt: today},
		},
	}
	id, err := db.InsertWord(ctx, &w)
	if err != nil {
		t.Fatalf("InsertWord() returned an unexpected error: %v", err)
	}
	if id == 0 || w.ID != id {
		t.Fatalf("Expected the ID to be assigned, but got %d / %d", id, w.ID)
	}

	found, err := db.FindWords(ctx, query.New().IDEquals(id))
	if err != nil {
		t.Fatalf("FindWords() returned an unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Expected 1 word, but got %d", len(found))
	}
	got := found[0]
	if got.Word != w.Word || got.Translation != w.Translation || got.Example != w.Example {
		t.Errorf("Expected %+v, but got %+v", w, got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != domain.TagPhrasalVerb || got.Tags[1] != domain.TagWord {
		t.Errorf("Expected tags to round-trip in order, but got %v", got.Tags)
	}
	if !got.NextReviewDate.Equal(w.NextReviewDate) {
		t.Errorf("Expected next review %v, but got %v", w.NextReviewDate, got.NextReviewDate)
	}
	if len(got.History) != 2 || got.History[0].Correct || !got.History[1].Correct ||
		!got.History[0].AskedAt.Equal(today.AddDate(0, 0, -10)) {
		t.Errorf("Expected history to round-trip, but got %+v", got.History)
	}
}

func TestInsertDuplicateWord(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	dup := domain.Word{Word: "run", Translation: "uciekać", NextReviewDate: today}
	if _, err := db.InsertWord(context.Background(), &dup); !errors.Is(err, domain.ErrDuplicateWord) {
		t.Errorf("Expected ErrDuplicateWord, but got %v", err)
	}
}

func TestUpdateWord(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	words := seed(t, db)

	w := words[0]
	w.Translation = "biec"
	w.History = append(w.History, domain.Answer{Correct: true, AskedAt: today})
	w.NextReviewDate = today.AddDate(0, 0, 2)
	if err := db.UpdateWord(ctx, &w); err != nil {
		t.Fatalf("UpdateWord() returned an unexpected error: %v", err)
	}

	found, err := db.FindWords(ctx, query.New().WordEquals("run"))
	if err != nil || len(found) != 1 {
		t.Fatalf("FindWords() = %v, %v", found, err)
	}
	got := found[0]
	if got.Translation != "biec" || len(got.History) != 1 || !got.NextReviewDate.Equal(today.AddDate(0, 0, 2)) {
		t.Errorf("Expected the update to be stored, but got %+v", got)
	}

	t.Run("rename onto an existing word", func(t *testing.T) {
		clash := words[1]
		clash.Word = "run"
		if err := db.UpdateWord(ctx, &clash); !errors.Is(err, domain.ErrDuplicateWord) {
			t.Errorf("Expected ErrDuplicateWord, but got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := domain.Word{ID: 999, Word: "ghost", Translation: "duch", NextReviewDate: today}
		if err := db.UpdateWord(ctx, &missing); !errors.Is(err, domain.ErrWordNotFound) {
			t.Errorf("Expected ErrWordNotFound, but got %v", err)
		}
	})
}

func TestFindWordsMatchesInMemoryEvaluation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	words := seed(t, db)

	specs := map[string]query.Spec{
		"all":               query.New(),
		"id equals":         query.New().IDEquals(words[2].ID),
		"id not equals":     query.New().IDNotEquals(words[2].ID),
		"word equals":       query.New().WordEquals("run"),
		"word contains":     query.New().WordContains("run"),
		"case sensitive":    query.New().WordContains("Run"),
		"due":               query.New().DueForReview(),
		"due sample":        query.DueSample(),
		"paged":             query.New().Page(2, 2),
		"paged by review":   query.New().OrderByNextReview().Page(1, 3),
		"unsatisfiable":     query.New().IDEquals(words[0].ID).IDNotEquals(words[0].ID),
		"duplicate":         query.Duplicate("run", 0),
		"duplicate of self": query.Duplicate("run", words[0].ID),
		"unknown predicate": query.New().Where(query.Predicate{Kind: query.Kind(99)}),
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got, err := db.FindWords(ctx, spec)
			if err != nil {
				t.Fatalf("FindWords() returned an unexpected error: %v", err)
			}
			expected := spec.Apply(words, today)
			if len(got) != len(expected) {
				t.Fatalf("Expected %d words, but got %d", len(expected), len(got))
			}
			for i := range got {
				if got[i].ID != expected[i].ID {
					t.Errorf("Expected word %d at position %d, but got %d", expected[i].ID, i, got[i].ID)
				}
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	n, err := db.CountWords(context.Background(), query.New().DueForReview().Page(0, 1))
	if err != nil {
		t.Fatalf("CountWords() returned an unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 due words regardless of the page, but got %d", n)
	}
}

func TestSourcesAndImports(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	words := seed(t, db)

	id, err := db.InsertSource(ctx, "lists/", SourceLocal)
	if err != nil {
		t.Fatalf("InsertSource() returned an unexpected error: %v", err)
	}
	if _, err := db.InsertSource(ctx, "lists/", SourceLocal); err == nil {
		t.Error("Expected an error inserting the same path twice")
	}

	src, err := db.FindSourceByPath(ctx, "lists/")
	if err != nil || src == nil || src.ID != id || src.Type != SourceLocal {
		t.Fatalf("FindSourceByPath() = %+v, %v", src, err)
	}
	if src.LastScanned.Valid {
		t.Error("Expected a new source not to be scanned yet")
	}
	if err := db.UpdateSourceLastScanned(ctx, id); err != nil {
		t.Fatalf("UpdateSourceLastScanned() returned an unexpected error: %v", err)
	}
	sources, err := db.GetAllSources(ctx)
	if err != nil || len(sources) != 1 || !sources[0].LastScanned.Valid {
		t.Fatalf("GetAllSources() = %+v, %v", sources, err)
	}

	if err := db.SaveImport(ctx, Import{WordID: words[0].ID, SourceID: id, Fingerprint: "a"}); err != nil {
		t.Fatalf("SaveImport() returned an unexpected error: %v", err)
	}
	if err := db.SaveImport(ctx, Import{WordID: words[0].ID, SourceID: id, Fingerprint: "b"}); err != nil {
		t.Fatalf("SaveImport() returned an unexpected error: %v", err)
	}
	imp, err := db.FindImportByWord(ctx, words[0].ID)
	if err != nil || imp == nil || imp.Fingerprint != "b" {
		t.Fatalf("Expected the fingerprint to be refreshed, got %+v, %v", imp, err)
	}
	if imp, _ := db.FindImportByWord(ctx, words[1].ID); imp != nil {
		t.Errorf("Expected no import for a manual word, but got %+v", imp)
	}

	if err := db.DeleteSource(ctx, id); err != nil {
		t.Fatalf("DeleteSource() returned an unexpected error: %v", err)
	}
	imports, err := db.GetImportsBySourceID(ctx, id)
	if err != nil || len(imports) != 0 {
		t.Errorf("Expected imports to be unlinked, got %+v, %v", imports, err)
	}
	if kept, _ := db.FindWords(ctx, query.New().WordEquals(words[0].Word)); len(kept) != 1 {
		t.Error("Expected the imported word to survive source deletion")
	}
	if err := db.DeleteSource(ctx, id); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound on second delete, but got %v", err)
	}
}
