package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return Context(lang)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"en", "AddedToFavorites", "Added to favorites"},
		{"en", "FilterIncorrect", "Incorrect"},
		{"ru", "AddedToFavorites", "Добавлено в избранное"},
		{"ru", "StatusPassed", "Сдано"},
		{"de", "QuestionsReset", "Questions reset"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := T(ctx, tt.id); got != tt.want {
				t.Errorf("T(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 question is unanswered:"},
		{"en", 2, "2 questions are unanswered:"},
		{"ru", 1, "1 вопрос без ответа:"},
		{"ru", 3, "3 вопроса без ответа:"},
		{"ru", 5, "5 вопросов без ответа:"},
	}
	for _, tt := range tests {
		ctx := initLang(t, tt.lang)
		if got := Tp(ctx, "UnansweredQuestions", tt.count); got != tt.want {
			t.Errorf("Tp(%s, %d) = %q, want %q", tt.lang, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "QuestionN", map[string]any{"N": 3, "Total": 10})
	if got != "Question 3 of 10" {
		t.Errorf("Td(QuestionN) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the message id", got)
	}
}

func TestLanguages(t *testing.T) {
	initLang(t, "en")
	langs := Languages()
	for _, want := range []string{"en", "ru"} {
		if !slices.Contains(langs, want) {
			t.Errorf("Languages() = %v, missing %s", langs, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "QuestionsShuffled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Вопросы перемешаны" {
		t.Errorf("Accept-Language ru: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Questions shuffled" {
		t.Errorf("lang=en query: got %q", got)
	}
}
