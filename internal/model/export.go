package model

import "time"

// ResultsExport is the top-level JSON structure for quiz result export.
type ResultsExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	QuizSets   []QuizSetResult `json:"quiz_sets"`
}

// QuizSetResult holds one quiz set's progress for export.
type QuizSetResult struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Status        QuizStatus       `json:"status"`
	Score         int              `json:"score"`
	ProgressScore int              `json:"progress_score"`
	NumQuestions  int              `json:"num_questions"`
	NumAnswered   int              `json:"num_answered"`
	Questions     []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question data for export.
type QuestionResult struct {
	ID             int64    `json:"id"`
	Order          int      `json:"order"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	Answer         string   `json:"answer"`
	SelectedOption *string  `json:"selected_option"`
	Correct        bool     `json:"correct"`
	Favorite       bool     `json:"favorite"`
}
