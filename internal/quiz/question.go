// Package quiz holds the client-side quiz logic: the question records of a
// quiz set, the filtered views over them, option shuffling, navigation and
// scoring. Nothing here performs I/O.
package quiz

import (
	"errors"
	"strings"

	"github.com/pavelanni/quizmode/internal/model"
)

// ErrNoQuestion is returned when an operation needs a current question but
// the view is empty.
var ErrNoQuestion = errors.New("no question at current position")

const labelPrefix = "Option "

// Label returns the positional answer label for option index i ("Option A" for 0).
func Label(i int) string {
	return labelPrefix + string(rune('A'+i))
}

// LabelIndex parses a positional label back into an option index.
func LabelIndex(label string) (int, bool) {
	rest, ok := strings.CutPrefix(label, labelPrefix)
	if !ok || len(rest) != 1 {
		return 0, false
	}
	i := int(rest[0]) - 'A'
	if i < 0 || i >= 26 {
		return 0, false
	}
	return i, true
}

// Question is a question as held by the quiz page, annotated with the
// user's selection.
//
// Options is the order currently displayed. Permutation maps each displayed
// position to its index in OriginalOptions, so Options[i] is always
// OriginalOptions[Permutation[i]]. Answer and Selected are labels relative to
// the displayed order; Selected is empty when the question is unanswered.
type Question struct {
	ID              int64
	Order           int
	Text            string
	Options         []string
	OriginalOptions []string
	Permutation     []int
	Answer          string
	Selected        string
	URL             string
	Explanation     string
	DiscussionLink  string
	HasMathContent  bool
}

// FromRecord builds a Question from a backend record. OriginalOptions is a
// private copy and is never modified afterwards.
func FromRecord(r model.QuestionRecord) Question {
	return Question{
		ID:              r.ID,
		Order:           r.Order,
		Text:            r.Text,
		Options:         append([]string(nil), r.Options...),
		OriginalOptions: append([]string(nil), r.Options...),
		Permutation:     identity(len(r.Options)),
		Answer:          r.Answer,
		URL:             r.URL,
		Explanation:     r.Explanation,
		DiscussionLink:  r.DiscussionLink,
		HasMathContent:  r.HasMathContent,
	}
}

// FromRecords converts a backend listing, keeping its order.
func FromRecords(records []model.QuestionRecord) []Question {
	qs := make([]Question, 0, len(records))
	for _, r := range records {
		qs = append(qs, FromRecord(r))
	}
	return qs
}

// Answered reports whether the user has selected an option.
func (q Question) Answered() bool {
	return q.Selected != ""
}

// Correct reports whether the selection matches the answer.
func (q Question) Correct() bool {
	return q.Selected != "" && q.Selected == q.Answer
}

// AnswerText returns the text of the correct option, or "" if the answer
// label does not point at an option.
func (q Question) AnswerText() string {
	i, ok := LabelIndex(q.Answer)
	if !ok || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// CanonicalLabel converts a label relative to the displayed order into the
// label of the same option in OriginalOptions. Labels that do not point at
// an option are returned unchanged.
func (q Question) CanonicalLabel(label string) string {
	i, ok := LabelIndex(label)
	if !ok || i >= len(q.Permutation) {
		return label
	}
	return Label(q.Permutation[i])
}

// DisplayLabel is the inverse of CanonicalLabel.
func (q Question) DisplayLabel(canonical string) string {
	orig, ok := LabelIndex(canonical)
	if !ok {
		return canonical
	}
	for i, p := range q.Permutation {
		if p == orig {
			return Label(i)
		}
	}
	return canonical
}

func (q Question) clone() Question {
	q.Options = append([]string(nil), q.Options...)
	q.Permutation = append([]int(nil), q.Permutation...)
	return q
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}
