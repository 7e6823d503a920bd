package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	appI18n "github.com/pavelanni/quizmode/internal/i18n"
	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
	"github.com/pavelanni/quizmode/internal/session"
)

var (
	styleHeader    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleSubtle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleCorrect   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleIncorrect = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleStar      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleNotice    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleBox       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var filterMessages = map[quiz.Filter]string{
	quiz.FilterAll:        "FilterAll",
	quiz.FilterFavorites:  "FilterFavorites",
	quiz.FilterAnswered:   "FilterAnswered",
	quiz.FilterUnanswered: "FilterUnanswered",
	quiz.FilterIncorrect:  "FilterIncorrect",
}

func (m *Model) View() string {
	st := m.ctrl.State()
	if !st.Loaded {
		if m.errMsg != "" {
			return styleError.Render(m.errMsg) + "\n"
		}
		return appI18n.T(m.ctx, "Loading") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.header(st))
	b.WriteString("\n\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(m.searchView())
	case modeUnanswered:
		b.WriteString(m.unansweredView())
	case modeSummary:
		b.WriteString(m.summaryView(st.Summary))
	case modeExplanation:
		b.WriteString(styleBox.Render(appI18n.T(m.ctx, "Explanation") + "\n\n" + wrap(m.explanation, m.width)))
		b.WriteString("\n")
	default:
		b.WriteString(m.questionView(st))
	}

	switch m.mode {
	case modeGoto:
		b.WriteString("\n" + m.input.View() + "\n")
	case modeConfirmShuffle:
		b.WriteString("\n" + appI18n.T(m.ctx, "ConfirmShuffle") + "\n")
	case modeConfirmReset:
		b.WriteString("\n" + appI18n.T(m.ctx, "ConfirmReset") + "\n")
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(styleError.Render(m.errMsg) + "\n")
	} else if m.notice != "" {
		b.WriteString(styleNotice.Render(m.notice) + "\n")
	}
	b.WriteString(styleSubtle.Render(wrap(appI18n.T(m.ctx, "Help"), m.width)) + "\n")
	return b.String()
}

func (m *Model) header(st session.State) string {
	parts := []string{
		appI18n.T(m.ctx, "AppTitle"),
		appI18n.Td(m.ctx, "FilterLabel", map[string]any{"Filter": appI18n.T(m.ctx, filterMessages[st.Filter])}),
	}
	if st.Shuffle.QuestionsShuffled {
		parts = append(parts, appI18n.T(m.ctx, "QuestionsShuffledMark"))
	}
	if st.Shuffle.OptionsShuffled {
		parts = append(parts, appI18n.T(m.ctx, "OptionsShuffledMark"))
	}
	if m.busy {
		parts = append(parts, "…")
	}
	return styleHeader.Render(strings.Join(parts, " | "))
}

func (m *Model) questionView(st session.State) string {
	view := st.View()
	q, err := st.Current()
	if err != nil {
		return styleSubtle.Render(appI18n.T(m.ctx, "NoQuestions")) + "\n"
	}

	var b strings.Builder
	title := appI18n.Td(m.ctx, "QuestionN", map[string]any{"N": st.Nav.Index() + 1, "Total": len(view)})
	if st.Favorites.Has(q.ID) {
		title += " " + styleStar.Render("★")
	}
	b.WriteString(title + "\n\n")
	b.WriteString(wrap(q.Text, m.width) + "\n\n")

	for i, opt := range q.Options {
		label := quiz.Label(i)
		line := fmt.Sprintf("  %d) %s", i+1, opt)
		switch {
		case st.Flipped && label == q.Answer:
			line = styleCorrect.Render("✓" + line[1:])
		case st.Flipped && label == q.Selected:
			line = styleIncorrect.Render("✗" + line[1:])
		case label == q.Selected:
			line = styleSelected.Render(">" + line[1:])
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if !st.Flipped {
		b.WriteString(styleSubtle.Render(appI18n.T(m.ctx, "PressSpaceToFlip")) + "\n")
		return b.String()
	}

	back := []string{appI18n.Td(m.ctx, "CorrectAnswer", map[string]any{"Answer": q.Answer + ": " + q.AnswerText()})}
	if q.Selected != "" {
		back = append(back, appI18n.Td(m.ctx, "YourAnswer", map[string]any{"Answer": q.Selected}))
	}
	if q.Explanation != "" {
		back = append(back, "", wrap(q.Explanation, m.width))
	}
	for _, link := range []string{q.URL, q.DiscussionLink} {
		if link != "" {
			back = append(back, styleSubtle.Render(link))
		}
	}
	b.WriteString(styleBox.Render(strings.Join(back, "\n")) + "\n")
	return b.String()
}

func (m *Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.input.View() + "\n")
	b.WriteString(styleSubtle.Render(appI18n.Tp(m.ctx, "SearchResults", len(m.hits))) + "\n\n")
	for i, q := range m.hits {
		if i >= 10 {
			break
		}
		line := fmt.Sprintf("  #%d %s", q.Order, truncate(q.Text, 70))
		if i == m.hitCursor {
			line = styleSelected.Render(">" + line[1:])
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) unansweredView() string {
	var b strings.Builder
	b.WriteString(appI18n.Tp(m.ctx, "UnansweredQuestions", len(m.unanswered)) + "\n\n")
	for _, q := range m.unanswered {
		b.WriteString(fmt.Sprintf("  #%d %s\n", q.Order, truncate(q.Text, 70)))
	}
	b.WriteString("\n" + appI18n.T(m.ctx, "SubmitAnyway") + "\n")
	return b.String()
}

func (m *Model) summaryView(sum *quiz.Summary) string {
	if sum == nil {
		return ""
	}
	status := styleIncorrect.Render(appI18n.T(m.ctx, "StatusFailed"))
	if sum.Status == model.StatusPassed {
		status = styleCorrect.Render(appI18n.T(m.ctx, "StatusPassed"))
	}
	body := appI18n.Td(m.ctx, "SummaryScore", map[string]any{"Score": sum.Score, "Total": sum.Total}) +
		"\n" + status
	if sum.Incorrect > 0 {
		body += "\n\n" + appI18n.T(m.ctx, "ReviewIncorrect")
	}
	return styleBox.Render(body) + "\n"
}

func wrap(s string, width int) string {
	if width <= 10 {
		return s
	}
	return lipgloss.NewStyle().Width(width - 4).Render(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
