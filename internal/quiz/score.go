package quiz

import "github.com/pavelanni/quizmode/internal/model"

// PassThreshold is the fraction of correct answers needed to pass.
const PassThreshold = 0.70

// SelectionDelta is the change in running score when a selection moves from
// previous to next (either may be empty): +1 when the new selection is
// correct and the old one was not, -1 when a correct selection is replaced
// or cleared, 0 otherwise.
func SelectionDelta(previous, next, answer string) int {
	return correct(next, answer) - correct(previous, answer)
}

func correct(selected, answer string) int {
	if selected != "" && selected == answer {
		return 1
	}
	return 0
}

// Score counts correctly answered questions.
func Score(qs []Question) int {
	n := 0
	for _, q := range qs {
		if q.Correct() {
			n++
		}
	}
	return n
}

// Unanswered returns the questions without a selection, in their given order.
func Unanswered(qs []Question) []Question {
	var out []Question
	for _, q := range qs {
		if !q.Answered() {
			out = append(out, q)
		}
	}
	return out
}

// Verdict maps a score to the pass/fail status. An empty quiz fails.
func Verdict(score, total int) model.QuizStatus {
	if total > 0 && float64(score)/float64(total) >= PassThreshold {
		return model.StatusPassed
	}
	return model.StatusFailed
}

// Summary is the outcome shown after submission.
type Summary struct {
	Score     int
	Total     int
	Incorrect int
	Status    model.QuizStatus
}

// Summarize scores every question; unanswered ones count as wrong.
func Summarize(qs []Question) Summary {
	score := Score(qs)
	return Summary{
		Score:     score,
		Total:     len(qs),
		Incorrect: len(qs) - score,
		Status:    Verdict(score, len(qs)),
	}
}
