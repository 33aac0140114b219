package review

import (
	"time"

	"github.com/conorfennell/wordpractice/internal/domain"
)

// Window is the number of most recent answers that count towards the score.
const Window = 5

// intervals maps a net score to the number of days until the next review.
var intervals = [Window + 1]int{0, 2, 5, 8, 13, 21}

// netScore counts correct minus incorrect answers in the rolling window.
func netScore(history []domain.Answer) int {
	if len(history) > Window {
		history = history[len(history)-Window:]
	}
	score := 0
	for _, a := range history {
		if a.Correct {
			score++
		} else {
			score--
		}
	}
	return score
}

// nextReviewDate schedules the next review from the full history, including
// the answer that was just given. A wrong last answer or a negative score
// brings the word back today.
func nextReviewDate(history []domain.Answer, today time.Time) time.Time {
	if len(history) == 0 || !history[len(history)-1].Correct {
		return today
	}
	score := netScore(history)
	if score < 0 {
		return today
	}
	return today.AddDate(0, 0, intervals[min(score, Window)])
}
