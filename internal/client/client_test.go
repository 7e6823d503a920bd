package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/pavelanni/quizmode/internal/model"
)

type call struct {
	method string
	path   string
	body   string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) get(i int) call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

func newTestServer(t *testing.T, routes map[string]string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.add(call{r.Method, r.URL.Path, string(body)})
		resp, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"not found"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), rec
}

func TestQuestionsAndSelections(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{
		"GET /getQuestionsByQuizSet/3": `[{"id":1,"order":2,"text":"Q1","options":["a","b"],"answer":"Option B","hasMathContent":true}]`,
		"GET /getUserSelections/3":     `{"1":"Option A"}`,
		"GET /getFavorites/3":          `[{"id":1},{"id":4}]`,
		"GET /getEyeIconState/3":       `{"state":true}`,
	})
	ctx := context.Background()

	qs, err := c.Questions(ctx, 3)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 1 || qs[0].Order != 2 || !qs[0].HasMathContent || qs[0].Answer != "Option B" {
		t.Errorf("questions = %+v", qs)
	}

	sel, err := c.UserSelections(ctx, 3)
	if err != nil {
		t.Fatalf("UserSelections: %v", err)
	}
	if sel[1] != "Option A" {
		t.Errorf("selections = %v", sel)
	}

	favs, err := c.Favorites(ctx, 3)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if !slices.Equal(favs, []int64{1, 4}) {
		t.Errorf("favorites = %v", favs)
	}

	state, err := c.EyeIconState(ctx, 3)
	if err != nil || !state {
		t.Errorf("EyeIconState = %v, %v", state, err)
	}
}

func TestRequestBodies(t *testing.T) {
	c, calls := newTestServer(t, map[string]string{
		"POST /toggleFavorite":        `{}`,
		"POST /updateUserSelection":   `{}`,
		"POST /updateScore":           `{}`,
		"POST /updateEyeIconState/3":  `{}`,
		"POST /updateQuizSetStatus/3": `{}`,
		"POST /updateQuizSetScore/3":  `{}`,
		"POST /resetQuestions/3":      `{}`,
	})
	ctx := context.Background()

	steps := []struct {
		name string
		run  func() error
		want string
	}{
		{"toggle favorite", func() error { return c.ToggleFavorite(ctx, 7) }, `{"question_id":7}`},
		{"select", func() error { return c.UpdateSelection(ctx, 7, "Option C") }, `{"question_id":7,"selected_option":"Option C"}`},
		{"clear selection", func() error { return c.UpdateSelection(ctx, 7, "") }, `{"question_id":7,"selected_option":null}`},
		{"score", func() error { return c.UpdateScore(ctx, 3, 7, -1) }, `{"question_id":7,"increment":-1,"quiz_set_id":3}`},
		{"eye icon", func() error { return c.UpdateEyeIconState(ctx, 3, false) }, `{"state":false}`},
		{"status", func() error { return c.UpdateStatus(ctx, 3, model.StatusPassed) }, `{"status":"Passed"}`},
		{"final score", func() error { return c.UpdateQuizSetScore(ctx, 3, 4) }, `{"score":4}`},
		{"reset", func() error { return c.ResetQuestions(ctx, 3) }, ``},
	}
	for i, st := range steps {
		if err := st.run(); err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		got := calls.get(i)
		if got.method != http.MethodPost {
			t.Errorf("%s: method = %s", st.name, got.method)
		}
		if st.want == "" {
			if got.body != "" {
				t.Errorf("%s: expected empty body, got %s", st.name, got.body)
			}
			continue
		}
		var gotJSON, wantJSON any
		if err := json.Unmarshal([]byte(got.body), &gotJSON); err != nil {
			t.Fatalf("%s: body %q: %v", st.name, got.body, err)
		}
		_ = json.Unmarshal([]byte(st.want), &wantJSON)
		g, _ := json.Marshal(gotJSON)
		w, _ := json.Marshal(wantJSON)
		if string(g) != string(w) {
			t.Errorf("%s: body = %s, want %s", st.name, g, w)
		}
	}
}

func TestStatusError(t *testing.T) {
	c, _ := newTestServer(t, nil)

	_, err := c.Questions(context.Background(), 99)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Message != "not found" {
		t.Errorf("status error = %+v", se)
	}
	if se.Path != "/getQuestionsByQuizSet/99" {
		t.Errorf("path = %s", se.Path)
	}
}

func TestExplain(t *testing.T) {
	c, calls := newTestServer(t, map[string]string{
		"POST /explainQuestion/5": `{"explanation":"Because."}`,
	})

	got, err := c.Explain(context.Background(), 5, "Option A")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Because." {
		t.Errorf("Explain = %q", got)
	}
	if body := calls.get(0).body; body != `{"selected_option":"Option A"}` {
		t.Errorf("body = %s", body)
	}
}
