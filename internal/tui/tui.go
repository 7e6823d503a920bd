// Package tui is the terminal shell of the quiz page.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appI18n "github.com/pavelanni/quizmode/internal/i18n"
	"github.com/pavelanni/quizmode/internal/quiz"
	"github.com/pavelanni/quizmode/internal/session"
)

type mode int

const (
	modeQuestion mode = iota
	modeSearch
	modeGoto
	modeConfirmShuffle
	modeConfirmReset
	modeUnanswered
	modeSummary
	modeExplanation
)

type loadedMsg struct{ err error }

type actionMsg struct {
	op  string
	err error
}

type submitMsg struct {
	sub session.Submission
	err error
}

type explainMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of the quiz page.
type Model struct {
	ctrl    *session.Controller
	ctx     context.Context
	notices chan string

	mode        mode
	input       textinput.Model
	hits        []quiz.Question
	hitCursor   int
	unanswered  []quiz.Question
	explanation string
	notice      string
	errMsg      string
	busy        bool
	width       int
}

// New creates the model for one quiz set. lang selects the message language
// and filter the initial view.
func New(b session.Backend, quizSetID int64, lang string, filter quiz.Filter) *Model {
	notices := make(chan string, 16)
	ctrl := session.New(b, quizSetID, session.WithNotifier(func(id string) {
		select {
		case notices <- id:
		default:
			slog.Warn("notice dropped", "id", id)
		}
	}))
	if filter != "" {
		ctrl.SetFilter(filter)
	}

	ti := textinput.New()
	ti.CharLimit = 80
	ti.Width = 40

	return &Model{
		ctrl:    ctrl,
		ctx:     appI18n.Context(lang),
		notices: notices,
		input:   ti,
		busy:    true,
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(b session.Backend, quizSetID int64, lang string, filter quiz.Filter) error {
	_, err := tea.NewProgram(New(b, quizSetID, lang, filter), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.load
}

func (m *Model) load() tea.Msg {
	return loadedMsg{err: m.ctrl.Load(context.Background())}
}

// do runs a backend action in a command.
func (m *Model) do(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		return actionMsg{op: op, err: fn(context.Background())}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		m.busy = false
		m.handleErr("load", msg.err)
		return m, nil

	case actionMsg:
		m.busy = false
		m.handleErr(msg.op, msg.err)
		m.drainNotices()
		return m, nil

	case submitMsg:
		m.busy = false
		if m.handleErr("submit", msg.err) {
			return m, nil
		}
		if len(msg.sub.Unanswered) > 0 {
			m.unanswered = msg.sub.Unanswered
			m.mode = modeUnanswered
		} else {
			m.mode = modeSummary
		}
		return m, nil

	case explainMsg:
		m.busy = false
		if m.handleErr("explain", msg.err) {
			return m, nil
		}
		m.explanation = msg.text
		m.mode = modeExplanation
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeGoto:
			return m.updateGoto(msg)
		case modeConfirmShuffle, modeConfirmReset:
			return m.updateConfirm(msg)
		case modeUnanswered:
			return m.updateUnanswered(msg)
		case modeSummary:
			return m.updateSummary(msg)
		case modeExplanation:
			if key.Matches(msg, keys.Back, keys.Submit, keys.Quit) {
				m.mode = modeQuestion
			}
			return m, nil
		}
		return m.updateQuestion(msg)
	}

	if m.mode == modeSearch || m.mode == modeGoto {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleErr logs and shows a failed action. Superseded responses are ignored.
func (m *Model) handleErr(op string, err error) bool {
	if err == nil {
		m.errMsg = ""
		return false
	}
	if errors.Is(err, session.ErrStale) {
		slog.Debug("ignoring stale response", "op", op)
		return true
	}
	slog.Error("action failed", "op", op, "error", err)
	m.errMsg = appI18n.Td(m.ctx, "RequestFailed", map[string]any{"Error": err.Error()})
	return true
}

func (m *Model) drainNotices() {
	for {
		select {
		case id := <-m.notices:
			m.notice = appI18n.T(m.ctx, id)
		default:
			return
		}
	}
}

func (m *Model) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	if i, ok := optionIndex(msg.String()); ok {
		return m, m.do("select", func(ctx context.Context) error { return m.ctrl.SelectOption(ctx, i) })
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Flip):
		m.ctrl.Flip()
	case key.Matches(msg, keys.Prev):
		m.ctrl.Prev()
	case key.Matches(msg, keys.Next):
		m.ctrl.Next()
	case key.Matches(msg, keys.Clear):
		return m, m.do("clear", func(ctx context.Context) error { return m.ctrl.SelectOption(ctx, -1) })
	case key.Matches(msg, keys.Favorite):
		return m, m.do("favorite", m.ctrl.ToggleFavorite)
	case key.Matches(msg, keys.Filter):
		m.ctrl.CycleFilter()
	case key.Matches(msg, keys.ShuffleOptions):
		m.ctrl.ToggleShuffleOptions()
		m.drainNotices()
	case key.Matches(msg, keys.ShuffleQuestion):
		m.mode = modeConfirmShuffle
	case key.Matches(msg, keys.Reset):
		m.mode = modeConfirmReset
	case key.Matches(msg, keys.Eye):
		return m, m.do("eye", m.ctrl.ToggleFlipCardVisibility)
	case key.Matches(msg, keys.Search):
		m.openInput(modeSearch, appI18n.T(m.ctx, "SearchPrompt"))
		m.hits = m.ctrl.Search("")
		m.hitCursor = 0
		return m, textinput.Blink
	case key.Matches(msg, keys.Goto):
		m.openInput(modeGoto, appI18n.T(m.ctx, "GotoPrompt"))
		return m, textinput.Blink
	case key.Matches(msg, keys.Submit):
		return m, m.submit(false)
	case key.Matches(msg, keys.Explain):
		m.busy = true
		return m, func() tea.Msg {
			text, err := m.ctrl.Explain(context.Background())
			return explainMsg{text: text, err: err}
		}
	}
	return m, nil
}

func (m *Model) submit(force bool) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		sub, err := m.ctrl.Submit(context.Background(), force)
		return submitMsg{sub: sub, err: err}
	}
}

func (m *Model) openInput(md mode, prompt string) {
	m.mode = md
	m.input.Reset()
	m.input.Prompt = prompt
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.input.Blur()
	m.mode = modeQuestion
}

// updateSearch owns every key while the search box is focused, so the arrow
// keys never navigate questions here.
func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.closeInput()
		return m, nil
	case key.Matches(msg, keys.Up):
		if m.hitCursor > 0 {
			m.hitCursor--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.hitCursor < len(m.hits)-1 {
			m.hitCursor++
		}
		return m, nil
	case key.Matches(msg, keys.Submit):
		if m.hitCursor < len(m.hits) {
			m.ctrl.ShowQuestion(m.hits[m.hitCursor].ID)
		}
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.hits = m.ctrl.Search(m.input.Value())
	m.hitCursor = min(m.hitCursor, max(len(m.hits)-1, 0))
	return m, cmd
}

func (m *Model) updateGoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.closeInput()
		return m, nil
	case key.Matches(msg, keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		n, err := strconv.Atoi(value)
		if err != nil || !m.ctrl.Goto(n) {
			m.notice = appI18n.Td(m.ctx, "InvalidQuestionNumber", map[string]any{"N": value})
		}
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	md := m.mode
	m.mode = modeQuestion
	if !key.Matches(msg, keys.Confirm) {
		return m, nil
	}
	if md == modeConfirmShuffle {
		return m, m.do("shuffle", m.ctrl.ShuffleQuestions)
	}
	return m, m.do("reset", m.ctrl.Reset)
}

func (m *Model) updateUnanswered(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		m.unanswered = nil
		return m, m.submit(true)
	case key.Matches(msg, keys.Back, keys.Quit):
		m.unanswered = nil
		m.mode = modeQuestion
	}
	return m, nil
}

func (m *Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Review):
		m.ctrl.ReviewIncorrect()
		m.mode = modeQuestion
	case key.Matches(msg, keys.Back, keys.Submit):
		m.ctrl.DismissSummary()
		m.mode = modeQuestion
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}
