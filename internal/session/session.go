// Package session implements the quiz page controller. It owns the view
// state of one quiz set and mirrors user actions to the backend.
//
// Every method that talks to the backend performs its I/O without holding the
// state lock. Operations that replace the question list take a new request
// epoch first; any response that arrives after a newer epoch was taken is
// discarded with ErrStale.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
)

// ErrStale is returned when a response was superseded by a newer request.
var ErrStale = errors.New("response superseded by a newer request")

// ErrInvalidOption is returned when selecting an option the question does not have.
var ErrInvalidOption = errors.New("no such option")

// Backend is the subset of the backend API the page needs.
type Backend interface {
	Questions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error)
	ShuffleQuestions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error)
	UserSelections(ctx context.Context, quizSetID int64) (map[int64]string, error)
	Favorites(ctx context.Context, quizSetID int64) ([]int64, error)
	ToggleFavorite(ctx context.Context, questionID int64) error
	UpdateSelection(ctx context.Context, questionID int64, option string) error
	UpdateScore(ctx context.Context, quizSetID, questionID int64, increment int) error
	EyeIconState(ctx context.Context, quizSetID int64) (bool, error)
	UpdateEyeIconState(ctx context.Context, quizSetID int64, state bool) error
	ResetQuestions(ctx context.Context, quizSetID int64) error
	UpdateStatus(ctx context.Context, quizSetID int64, status model.QuizStatus) error
	UpdateQuizSetScore(ctx context.Context, quizSetID int64, score int) error
	Explain(ctx context.Context, questionID int64, selected string) (string, error)
}

// Notice message ids emitted after confirmed actions.
const (
	NoticeAddedToFavorites     = "AddedToFavorites"
	NoticeRemovedFromFavorites = "RemovedFromFavorites"
	NoticeQuestionsShuffled    = "QuestionsShuffled"
	NoticeQuestionsReset       = "QuestionsReset"
	NoticeOptionsShuffled      = "OptionsShuffled"
	NoticeOptionsRestored      = "OptionsRestored"
	NoticeFlipCardShown        = "FlipCardShown"
	NoticeFlipCardHidden       = "FlipCardHidden"
)

// ShuffleState records which shuffles are currently applied.
type ShuffleState struct {
	QuestionsShuffled bool
	OptionsShuffled   bool
}

// State is the view state of the quiz page.
type State struct {
	QuizSetID    int64
	Loaded       bool
	Questions    []quiz.Question
	Favorites    quiz.Favorites
	Filter       quiz.Filter
	Nav          quiz.Navigator
	Shuffle      ShuffleState
	ShowFlipCard bool
	Flipped      bool
	Summary      *quiz.Summary
}

// View returns the filtered view.
func (s State) View() []quiz.Question {
	return quiz.Apply(s.Questions, s.Favorites, s.Filter)
}

// Current returns the question at the current position of the view.
func (s State) Current() (quiz.Question, error) {
	view := s.View()
	i := s.Nav.Index()
	if i < 0 || i >= len(view) {
		return quiz.Question{}, quiz.ErrNoQuestion
	}
	return view[i], nil
}

func (s State) clone() State {
	c := s
	c.Questions = make([]quiz.Question, len(s.Questions))
	copy(c.Questions, s.Questions)
	c.Favorites = s.Favorites.Clone()
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	return c
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the callback that receives notice message ids.
func WithNotifier(fn func(msgID string)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithRand sets the random source for option shuffling.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rand = r }
}

// Controller drives the quiz page for one quiz set.
type Controller struct {
	backend Backend
	notify  func(msgID string)
	rand    *rand.Rand

	mu    sync.Mutex
	st    State
	epoch uint64

	// selMu serializes selection changes so each score delta is computed
	// against the previous confirmed selection.
	selMu sync.Mutex
}

// New creates a controller for quizSetID. Call Load before anything else.
func New(b Backend, quizSetID int64, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		notify:  func(string) {},
		st: State{
			QuizSetID:    quizSetID,
			Favorites:    quiz.NewFavorites(),
			Filter:       quiz.FilterAll,
			ShowFlipCard: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.clone()
}

// begin starts a new epoch, invalidating every request in flight.
func (c *Controller) begin() (uint64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch, c.st.QuizSetID
}

// current returns the epoch, the quiz set id and the current question.
func (c *Controller) current() (uint64, int64, quiz.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, err := c.st.Current()
	return c.epoch, c.st.QuizSetID, q, err
}

// commit runs fn under the lock if epoch is still current.
func (c *Controller) commit(epoch uint64, op string, fn func(st *State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		slog.Debug("discarding stale response", "op", op, "epoch", epoch, "current", c.epoch)
		return ErrStale
	}
	fn(&c.st)
	c.clampIndex()
	return nil
}

// clampIndex keeps the position inside the view after it shrinks.
func (c *Controller) clampIndex() {
	n := len(c.st.View())
	if n > 0 && c.st.Nav.Index() >= n {
		c.st.Nav.Goto(n, n)
	}
}

// unflip puts the card face down, or face up when the flip card is hidden.
func (s *State) unflip() {
	s.Flipped = !s.ShowFlipCard
}

func (c *Controller) emit(msgID string) {
	c.notify(msgID)
}

// Load fetches the questions, selections, favorites and flip card state.
func (c *Controller) Load(ctx context.Context) error {
	epoch, id := c.begin()

	recs, err := c.backend.Questions(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	selections, err := c.backend.UserSelections(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch selections: %w", err)
	}
	favIDs, err := c.backend.Favorites(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch favorites: %w", err)
	}
	showFlip, err := c.backend.EyeIconState(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch eye icon state: %w", err)
	}

	qs := quiz.FromRecords(recs)
	for i := range qs {
		qs[i].Selected = selections[qs[i].ID]
	}

	return c.commit(epoch, "load", func(st *State) {
		if st.Shuffle.OptionsShuffled {
			qs = quiz.ShuffleOptions(qs, c.rand)
		}
		st.Questions = qs
		st.Favorites = quiz.NewFavorites(favIDs...)
		st.ShowFlipCard = showFlip
		st.Nav.Reset()
		st.unflip()
		st.Loaded = true
	})
}

// SelectOption selects option k of the current question. k < 0 clears the
// selection. The selection and any score change are sent to the backend
// before the local state changes.
func (c *Controller) SelectOption(ctx context.Context, k int) error {
	c.selMu.Lock()
	defer c.selMu.Unlock()

	epoch, setID, q, err := c.current()
	if err != nil {
		return err
	}

	var next string
	if k >= 0 {
		if k >= len(q.Options) {
			return fmt.Errorf("%w: %d", ErrInvalidOption, k)
		}
		next = quiz.Label(k)
	}
	if next == q.Selected {
		return nil
	}

	var canonical string
	if next != "" {
		canonical = q.CanonicalLabel(next)
	}
	delta := quiz.SelectionDelta(q.Selected, next, q.Answer)

	if err := c.backend.UpdateSelection(ctx, q.ID, canonical); err != nil {
		return fmt.Errorf("update selection: %w", err)
	}
	var scoreErr error
	if delta != 0 {
		if err := c.backend.UpdateScore(ctx, setID, q.ID, delta); err != nil {
			scoreErr = fmt.Errorf("update score: %w", err)
		}
	}

	err = c.commit(epoch, "select", func(st *State) {
		for i := range st.Questions {
			if st.Questions[i].ID != q.ID {
				continue
			}
			// The options may have been reshuffled meanwhile.
			if canonical == "" {
				st.Questions[i].Selected = ""
			} else {
				st.Questions[i].Selected = st.Questions[i].DisplayLabel(canonical)
			}
		}
	})
	return errors.Join(err, scoreErr)
}

// ToggleFavorite flips the favorite flag of the current question once the
// backend confirms.
func (c *Controller) ToggleFavorite(ctx context.Context) error {
	epoch, _, q, err := c.current()
	if err != nil {
		return err
	}
	if err := c.backend.ToggleFavorite(ctx, q.ID); err != nil {
		return fmt.Errorf("toggle favorite: %w", err)
	}

	var added bool
	if err := c.commit(epoch, "favorite", func(st *State) {
		added = st.Favorites.Toggle(q.ID)
	}); err != nil {
		return err
	}
	if added {
		c.emit(NoticeAddedToFavorites)
	} else {
		c.emit(NoticeRemovedFromFavorites)
	}
	return nil
}

// ToggleShuffleOptions shuffles the options of every question, or restores
// their original order if they are shuffled.
func (c *Controller) ToggleShuffleOptions() {
	c.mu.Lock()
	shuffled := !c.st.Shuffle.OptionsShuffled
	if shuffled {
		c.st.Questions = quiz.ShuffleOptions(c.st.Questions, c.rand)
	} else {
		c.st.Questions = quiz.RestoreOptions(c.st.Questions)
	}
	c.st.Shuffle.OptionsShuffled = shuffled
	c.mu.Unlock()

	if shuffled {
		c.emit(NoticeOptionsShuffled)
	} else {
		c.emit(NoticeOptionsRestored)
	}
}

// ShuffleQuestions asks the backend for a new question order and replaces
// the question list with it. Selections are carried over and an active
// option shuffle is applied again.
func (c *Controller) ShuffleQuestions(ctx context.Context) error {
	epoch, id := c.begin()

	recs, err := c.backend.ShuffleQuestions(ctx, id)
	if err != nil {
		return fmt.Errorf("shuffle questions: %w", err)
	}
	qs := quiz.FromRecords(recs)

	if err := c.commit(epoch, "shuffle", func(st *State) {
		selected := make(map[int64]string, len(st.Questions))
		for _, old := range st.Questions {
			if old.Selected != "" {
				selected[old.ID] = old.CanonicalLabel(old.Selected)
			}
		}
		for i := range qs {
			qs[i].Selected = selected[qs[i].ID]
		}
		if st.Shuffle.OptionsShuffled {
			qs = quiz.ShuffleOptions(qs, c.rand)
		}
		st.Questions = qs
		st.Shuffle.QuestionsShuffled = true
		st.Nav.Reset()
		st.unflip()
	}); err != nil {
		return err
	}
	c.emit(NoticeQuestionsShuffled)
	return nil
}

// Reset clears every selection and the score on the backend, then reloads
// the questions in their original order with options unshuffled.
func (c *Controller) Reset(ctx context.Context) error {
	epoch, id := c.begin()

	if err := c.backend.ResetQuestions(ctx, id); err != nil {
		return fmt.Errorf("reset questions: %w", err)
	}
	recs, err := c.backend.Questions(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}

	if err := c.commit(epoch, "reset", func(st *State) {
		st.Questions = quiz.FromRecords(recs)
		st.Shuffle = ShuffleState{}
		st.Summary = nil
		st.Nav.Reset()
		st.unflip()
	}); err != nil {
		return err
	}
	c.emit(NoticeQuestionsReset)
	return nil
}

// ToggleFlipCardVisibility shows or hides the flip card. With the flip card
// hidden the answer is always revealed.
func (c *Controller) ToggleFlipCardVisibility(ctx context.Context) error {
	c.mu.Lock()
	epoch, id, show := c.epoch, c.st.QuizSetID, !c.st.ShowFlipCard
	c.mu.Unlock()

	if err := c.backend.UpdateEyeIconState(ctx, id, show); err != nil {
		return fmt.Errorf("update eye icon state: %w", err)
	}
	if err := c.commit(epoch, "eye", func(st *State) {
		st.ShowFlipCard = show
		st.unflip()
	}); err != nil {
		return err
	}
	if show {
		c.emit(NoticeFlipCardShown)
	} else {
		c.emit(NoticeFlipCardHidden)
	}
	return nil
}

// Flip turns the card over. It does nothing while the flip card is hidden.
func (c *Controller) Flip() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.ShowFlipCard {
		c.st.Flipped = !c.st.Flipped
	}
}

// Prev moves to the previous question.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Nav.Prev(len(c.st.View()))
	c.st.unflip()
}

// Next moves to the next question.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Nav.Next(len(c.st.View()))
	c.st.unflip()
}

// Goto jumps to the 1-based question number within the view. It reports
// false and leaves the position unchanged when the number is out of range.
func (c *Controller) Goto(number int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.Nav.Goto(number, len(c.st.View())) {
		return false
	}
	c.st.unflip()
	return true
}

// SetFilter switches the view and returns to its first question.
func (c *Controller) SetFilter(f quiz.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Filter = f
	c.st.Nav.Reset()
	c.st.unflip()
}

// CycleFilter switches to the next filter in toolbar order.
func (c *Controller) CycleFilter() quiz.Filter {
	c.mu.Lock()
	f := c.st.Filter.Next()
	c.mu.Unlock()
	c.SetFilter(f)
	return f
}

// Search returns the questions matching keyword.
func (c *Controller) Search(keyword string) []quiz.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return quiz.Search(c.st.Questions, keyword)
}

// ShowQuestion moves to the question with the given id. If the current view
// does not contain it the filter switches to all.
func (c *Controller) ShowQuestion(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := quiz.IndexOf(c.st.Questions, c.st.Favorites, c.st.Filter, id)
	if i < 0 {
		i = quiz.IndexOf(c.st.Questions, c.st.Favorites, quiz.FilterAll, id)
		if i < 0 {
			return false
		}
		c.st.Filter = quiz.FilterAll
	}
	c.st.Nav.Goto(i+1, len(c.st.View()))
	c.st.unflip()
	return true
}

// Submission is the outcome of Submit. Exactly one field is set.
type Submission struct {
	Unanswered []quiz.Question
	Summary    *quiz.Summary
}

// Submit scores the quiz set. Unless force is set, submission stops and
// returns the unanswered questions if there are any. Otherwise the score
// and pass/fail status are sent to the backend and the summary is stored.
func (c *Controller) Submit(ctx context.Context, force bool) (Submission, error) {
	c.mu.Lock()
	epoch, id := c.epoch, c.st.QuizSetID
	qs := quiz.Apply(c.st.Questions, nil, quiz.FilterAll)
	c.mu.Unlock()

	if !force {
		if missing := quiz.Unanswered(qs); len(missing) > 0 {
			return Submission{Unanswered: missing}, nil
		}
	}

	sum := quiz.Summarize(qs)
	if err := c.backend.UpdateQuizSetScore(ctx, id, sum.Score); err != nil {
		return Submission{}, fmt.Errorf("update quiz set score: %w", err)
	}
	if err := c.backend.UpdateStatus(ctx, id, sum.Status); err != nil {
		return Submission{}, fmt.Errorf("update quiz set status: %w", err)
	}

	if err := c.commit(epoch, "submit", func(st *State) {
		st.Summary = &sum
	}); err != nil {
		return Submission{}, err
	}
	return Submission{Summary: &sum}, nil
}

// DismissSummary closes the summary.
func (c *Controller) DismissSummary() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Summary = nil
}

// ReviewIncorrect closes the summary and shows the incorrect questions.
func (c *Controller) ReviewIncorrect() {
	c.mu.Lock()
	c.st.Summary = nil
	c.mu.Unlock()
	c.SetFilter(quiz.FilterIncorrect)
}

// Explain asks the backend to explain the current question's answer.
func (c *Controller) Explain(ctx context.Context) (string, error) {
	_, _, q, err := c.current()
	if err != nil {
		return "", err
	}
	var selected string
	if q.Selected != "" {
		selected = q.CanonicalLabel(q.Selected)
	}
	text, err := c.backend.Explain(ctx, q.ID, selected)
	if err != nil {
		return "", fmt.Errorf("explain question %d: %w", q.ID, err)
	}
	return text, nil
}
