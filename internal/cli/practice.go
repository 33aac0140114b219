package cli

import (
	"context"
	"log/slog"

	"github.com/conorfennell/wordpractice/internal/review"
)

func (a *App) practise(ctx context.Context) error {
	q, err := a.words.StartSession(ctx)
	if err != nil {
		return err
	}

	if q.IsEmpty() {
		a.clear()
		a.println("Practice word panel.")
		a.println("No words to ask; try again tomorrow.")
		return a.pause()
	}

	for !q.IsEmpty() {
		it, err := q.PopNext()
		if err != nil {
			return err
		}

		a.clear()
		a.showItem(it, false)
		if _, err := a.prompt("Press 'Enter' to show answer..."); err != nil {
			return err
		}

		done, err := a.askOutcome(ctx, q, it)
		if err != nil {
			return err
		}
		if done {
			a.println("Finishing practise word session.")
			return nil
		}
	}

	a.clear()
	a.println("Practice word panel.")
	a.println("Practice session finished.")
	return a.pause()
}

// askOutcome reads the user's verdict for it. It reports true when the user
// ends the session.
func (a *App) askOutcome(ctx context.Context, q *review.Queue, it *review.Item) (bool, error) {
	a.clear()
	a.showItem(it, true)
	for {
		input, err := a.prompt("Actions: 'y' -> correct answer, 'n' -> incorrect answer, 'd' -> edit word, 'e' -> exit session: ")
		if err != nil {
			return false, err
		}

		switch input {
		case "e":
			return true, nil
		case "y", "n":
			if err := q.RecordOutcome(ctx, it, input == "y"); err != nil {
				slog.Error("Failed to save answer", "id", it.Word.ID, "error", err)
				a.printf("Could not save answer: %v. Try again.\n", err)
				continue
			}
			return false, nil
		case "d":
			w, saved, err := a.editWord(ctx, it.Word)
			if err != nil {
				return false, err
			}
			if saved {
				it.Revise(w)
			}
			a.clear()
			a.showItem(it, true)
		default:
			a.println("Unknown command. Try again one more time.")
		}
	}
}

func (a *App) showItem(it *review.Item, revealed bool) {
	word, example := mask(it.Word.Word), mask(it.Word.Example)
	if revealed {
		word, example = it.Word.Word, it.Word.Example
	}
	a.println("Practice word panel.")
	a.println("word translation: " + it.Word.Translation)
	a.println("tags: " + formatTags(it.Word.Tags))
	a.println("word: " + word)
	a.println("example use: " + example)
}
