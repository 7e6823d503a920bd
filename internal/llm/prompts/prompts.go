package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
)

//go:embed templates/*.txt
var templateFS embed.FS

var questionTextRegex = regexp.MustCompile(`(?i)</?\s*question-text\b[^>]*>`)

// PromptVariant represents an explanation prompt variant.
type PromptVariant string

const (
	// PromptBrief asks for a short explanation.
	PromptBrief PromptVariant = "brief"
	// PromptStandard is the default explanation variant.
	PromptStandard PromptVariant = "standard"
	// PromptDetailed walks through every option.
	PromptDetailed PromptVariant = "detailed"
)

var validVariants = map[PromptVariant]bool{
	PromptBrief:    true,
	PromptStandard: true,
	PromptDetailed: true,
}

var (
	loadOnce         sync.Once
	loadErr          error
	explainTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// ExplainData holds template data for explanation prompts.
type ExplainData struct {
	QuestionText string
	Options      []string
	Answer       string
	AnswerText   string
	Selected     string
	Reference    string
	HasMath      bool
}

// Load parses the embedded prompt templates once.
func Load() error {
	return load(templateFS)
}

func load(fsys fs.FS) error {
	loadOnce.Do(func() {
		explainTemplates = make(map[PromptVariant]*template.Template)
		for v := range validVariants {
			name := "templates/explain_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New("explain").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			explainTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildExplainPrompt renders the explanation prompt for a question.
// selected is the label the student chose, or "".
func BuildExplainPrompt(variant PromptVariant, q model.QuestionRecord, selected string) (string, error) {
	if err := Load(); err != nil {
		return "", err
	}
	tmpl, ok := explainTemplates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	data := ExplainData{
		QuestionText: sanitize(q.Text),
		Answer:       q.Answer,
		Selected:     selected,
		Reference:    sanitize(q.Explanation),
		HasMath:      q.HasMathContent,
	}
	for i, opt := range q.Options {
		label := quiz.Label(i)
		data.Options = append(data.Options, label+": "+sanitize(opt))
		if label == q.Answer {
			data.AnswerText = sanitize(opt)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitize(s string) string {
	s = questionTextRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 4000 {
		s = string([]rune(s)[:4000]) + " [truncated]"
	}
	return s
}
