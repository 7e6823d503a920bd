package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleAdmin may upload quiz sets and export results.
	UserRoleAdmin UserRole = "admin"
	// UserRoleStudent may only take quizzes.
	UserRoleStudent UserRole = "student"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuizStatus is the outcome recorded for a quiz set after submission.
type QuizStatus string

const (
	StatusNotAttempted QuizStatus = "Not Attempted"
	StatusPassed       QuizStatus = "Passed"
	StatusFailed       QuizStatus = "Failed"
)

// Final reports whether s is an outcome a submission can record.
func (s QuizStatus) Final() bool {
	return s == StatusPassed || s == StatusFailed
}

// QuizSet is a named, ordered collection of questions.
type QuizSet struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Status        QuizStatus `json:"status"`
	Score         int        `json:"score"`
	ProgressScore int        `json:"progress_score"`
	EyeIconState  bool       `json:"eye_icon_state"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// QuestionRecord is a question as stored by the backend and sent over the wire.
type QuestionRecord struct {
	ID             int64    `json:"id"`
	QuizSetID      int64    `json:"-"`
	Order          int      `json:"order"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	Answer         string   `json:"answer"`
	URL            string   `json:"url"`
	Explanation    string   `json:"explanation"`
	DiscussionLink string   `json:"discussion_link"`
	HasMathContent bool     `json:"hasMathContent"`
}

// FavoriteRef is the element type of the favorites listing.
type FavoriteRef struct {
	ID int64 `json:"id"`
}

// ToggleFavoriteRequest is the body of POST /toggleFavorite.
type ToggleFavoriteRequest struct {
	QuestionID int64 `json:"question_id"`
}

// UpdateSelectionRequest is the body of POST /updateUserSelection.
// A nil SelectedOption clears the selection.
type UpdateSelectionRequest struct {
	QuestionID     int64   `json:"question_id"`
	SelectedOption *string `json:"selected_option"`
}

// UpdateScoreRequest is the body of POST /updateScore.
type UpdateScoreRequest struct {
	QuestionID int64 `json:"question_id"`
	Increment  int   `json:"increment"`
	QuizSetID  int64 `json:"quiz_set_id"`
}

// EyeIconState is the body and response of the eye icon endpoints.
type EyeIconState struct {
	State bool `json:"state"`
}

// StatusRequest is the body of POST /updateQuizSetStatus/{id}.
type StatusRequest struct {
	Status QuizStatus `json:"status"`
}

// ScoreRequest is the body of POST /updateQuizSetScore/{id}.
type ScoreRequest struct {
	Score int `json:"score"`
}

// ExplainRequest is the optional body of POST /explainQuestion/{id}.
type ExplainRequest struct {
	SelectedOption string `json:"selected_option,omitempty"`
}

// Explanation is the response of POST /explainQuestion/{id}.
type Explanation struct {
	Explanation string `json:"explanation"`
}

// ServerConfig holds runtime server parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments
	AllowedOrigin []string
	MaxUploadSize int64
}

// QuizSetImport is used for loading a quiz set from a file.
type QuizSetImport struct {
	Name      string           `json:"name"`
	Questions []QuestionImport `json:"questions"`
}

// QuestionImport is one question of a QuizSetImport.
type QuestionImport struct {
	Order          int      `json:"order"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	Answer         string   `json:"answer"`
	URL            string   `json:"url"`
	Explanation    string   `json:"explanation"`
	DiscussionLink string   `json:"discussion_link"`
	HasMathContent bool     `json:"hasMathContent"`
}
