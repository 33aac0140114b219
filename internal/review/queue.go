package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/conorfennell/wordpractice/internal/domain"
)

// DefaultSessionSize caps the number of words in one session.
const DefaultSessionSize = 20

var ErrEmptyQueue = errors.New("review queue is empty")

// Updater persists a word after an answer has been recorded.
type Updater interface {
	UpdateWord(ctx context.Context, w *domain.Word) error
}

// Shuffler randomises the order of the sampled words. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Item is a word taking part in a session. The answered flag only lives for
// the session and is never stored.
type Item struct {
	Word     domain.Word
	answered bool
}

// Answered reports whether the item's outcome has already been recorded this
// session.
func (it *Item) Answered() bool { return it.answered }

// Revise replaces the word after it was edited mid-session.
func (it *Item) Revise(w domain.Word) { it.Word = w }

// Queue is the working set of a single review session. It is not safe for
// concurrent use.
type Queue struct {
	items []*Item
	store Updater
	today time.Time
}

// NewQueue shuffles the sampled words and keeps at most size of them. A nil
// shuffler uses the global random source; size <= 0 means DefaultSessionSize.
func NewQueue(words []domain.Word, store Updater, today time.Time, rnd Shuffler, size int) *Queue {
	if size <= 0 {
		size = DefaultSessionSize
	}

	items := make([]*Item, len(words))
	for i, w := range words {
		items[i] = &Item{Word: w}
	}

	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if rnd != nil {
		rnd.Shuffle(len(items), swap)
	} else {
		rand.Shuffle(len(items), swap)
	}

	if len(items) > size {
		items = items[:size]
	}

	return &Queue{items: items, store: store, today: today}
}

// Today is the date used for every answer recorded in this session.
func (q *Queue) Today() time.Time { return q.today }

func (q *Queue) IsEmpty() bool { return len(q.items) == 0 }

func (q *Queue) Len() int { return len(q.items) }

// PopNext removes and returns the first item.
func (q *Queue) PopNext() (*Item, error) {
	if len(q.items) == 0 {
		return nil, ErrEmptyQueue
	}
	it := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return it, nil
}

// RecordOutcome applies an answer to an item that was popped from the queue.
//
// The first outcome of a session is appended to the word's history, the next
// review date is recomputed and the word is persisted. Later outcomes for the
// same item only affect the queue. A wrong answer sends the item to the back
// of the queue; a correct one drops it.
//
// If persisting fails the error is returned and neither the item nor the
// queue is changed.
func (q *Queue) RecordOutcome(ctx context.Context, it *Item, correct bool) error {
	if !it.answered {
		updated := it.Word
		updated.History = append(append([]domain.Answer(nil), it.Word.History...), domain.Answer{
			Correct: correct,
			AskedAt: q.today,
		})
		updated.NextReviewDate = nextReviewDate(updated.History, q.today)

		if err := q.store.UpdateWord(ctx, &updated); err != nil {
			return fmt.Errorf("failed to record answer for word %d: %w", it.Word.ID, err)
		}
		slog.Debug("answer recorded",
			"id", updated.ID,
			"correct", correct,
			"next_review", updated.NextReviewDate.Format(time.DateOnly),
		)
		it.Word = updated
		it.answered = true
	}

	if !correct {
		q.items = append(q.items, it)
	}
	return nil
}
