// Package client talks to the quizmode backend REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/quizmode/internal/model"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client is a backend API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ListQuizSets fetches every quiz set.
func (c *Client) ListQuizSets(ctx context.Context) ([]model.QuizSet, error) {
	var sets []model.QuizSet
	err := c.do(ctx, http.MethodGet, "/quizSets", nil, &sets)
	return sets, err
}

// GetQuizSet fetches one quiz set.
func (c *Client) GetQuizSet(ctx context.Context, id int64) (model.QuizSet, error) {
	var set model.QuizSet
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/quizSets/%d", id), nil, &set)
	return set, err
}

// Questions fetches the questions of a quiz set in their stored order.
func (c *Client) Questions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error) {
	var qs []model.QuestionRecord
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/getQuestionsByQuizSet/%d", quizSetID), nil, &qs)
	return qs, err
}

// ShuffleQuestions asks the backend for a new question order.
func (c *Client) ShuffleQuestions(ctx context.Context, quizSetID int64) ([]model.QuestionRecord, error) {
	var qs []model.QuestionRecord
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/shuffleQuestions/%d", quizSetID), nil, &qs)
	return qs, err
}

// UserSelections fetches the stored selections keyed by question id.
func (c *Client) UserSelections(ctx context.Context, quizSetID int64) (map[int64]string, error) {
	sel := map[int64]string{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/getUserSelections/%d", quizSetID), nil, &sel)
	return sel, err
}

// Favorites fetches the favorited question ids.
func (c *Client) Favorites(ctx context.Context, quizSetID int64) ([]int64, error) {
	var refs []model.FavoriteRef
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/getFavorites/%d", quizSetID), nil, &refs); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ToggleFavorite flips the favorite flag of a question.
func (c *Client) ToggleFavorite(ctx context.Context, questionID int64) error {
	return c.do(ctx, http.MethodPost, "/toggleFavorite", model.ToggleFavoriteRequest{QuestionID: questionID}, nil)
}

// UpdateSelection stores a selection. An empty option clears it.
func (c *Client) UpdateSelection(ctx context.Context, questionID int64, option string) error {
	req := model.UpdateSelectionRequest{QuestionID: questionID}
	if option != "" {
		req.SelectedOption = &option
	}
	return c.do(ctx, http.MethodPost, "/updateUserSelection", req, nil)
}

// UpdateScore adds increment to the running score of a quiz set.
func (c *Client) UpdateScore(ctx context.Context, quizSetID, questionID int64, increment int) error {
	return c.do(ctx, http.MethodPost, "/updateScore", model.UpdateScoreRequest{
		QuestionID: questionID,
		Increment:  increment,
		QuizSetID:  quizSetID,
	}, nil)
}

// EyeIconState fetches whether the flip card is shown.
func (c *Client) EyeIconState(ctx context.Context, quizSetID int64) (bool, error) {
	var st model.EyeIconState
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/getEyeIconState/%d", quizSetID), nil, &st)
	return st.State, err
}

// UpdateEyeIconState stores whether the flip card is shown.
func (c *Client) UpdateEyeIconState(ctx context.Context, quizSetID int64, state bool) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/updateEyeIconState/%d", quizSetID), model.EyeIconState{State: state}, nil)
}

// ResetQuestions clears selections and restores the original order.
func (c *Client) ResetQuestions(ctx context.Context, quizSetID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/resetQuestions/%d", quizSetID), nil, nil)
}

// UpdateStatus records the pass/fail status of a quiz set.
func (c *Client) UpdateStatus(ctx context.Context, quizSetID int64, status model.QuizStatus) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/updateQuizSetStatus/%d", quizSetID), model.StatusRequest{Status: status}, nil)
}

// UpdateQuizSetScore records the final score of a quiz set.
func (c *Client) UpdateQuizSetScore(ctx context.Context, quizSetID int64, score int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/updateQuizSetScore/%d", quizSetID), model.ScoreRequest{Score: score}, nil)
}

// Explain asks the backend for an explanation of a question's answer.
// selected is the canonical label the student chose, or "".
func (c *Client) Explain(ctx context.Context, questionID int64, selected string) (string, error) {
	var out model.Explanation
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/explainQuestion/%d", questionID), model.ExplainRequest{SelectedOption: selected}, &out)
	return out.Explanation, err
}
