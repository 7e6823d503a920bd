package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/quizmode/internal/model"
)

var testQuestion = model.QuestionRecord{
	ID:          7,
	Text:        "Which one barks?",
	Options:     []string{"Cat", "Dog", "Fox"},
	Answer:      "Option B",
	Explanation: "Dogs bark.",
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	if _, err := New("http://localhost", "key", "m", "verbose"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestExplain(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Dogs are the animals that bark.  "}}],"usage":{"total_tokens":12}}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v1", "key", "test-model", "standard")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Explain(context.Background(), testQuestion, "Option A")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Dogs are the animals that bark." {
		t.Errorf("Explain = %q", got)
	}
	for _, want := range []string{"Which one barks?", "Option B: Dog", "CORRECT ANSWER: Option B (Dog)", "THE STUDENT CHOSE: Option A", "Dogs bark."} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, gotPrompt)
		}
	}
}

func TestExplainNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v1", "key", "test-model", "brief")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Explain(context.Background(), testQuestion, ""); err == nil {
		t.Error("expected error when LLM returns no choices")
	}
}
