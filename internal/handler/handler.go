package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	appI18n "github.com/pavelanni/quizmode/internal/i18n"
	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/store"
)

// Explainer produces an explanation of a question's correct answer.
type Explainer interface {
	Explain(ctx context.Context, q model.QuestionRecord, selected string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    Explainer
	config model.ServerConfig
}

// New creates a new Handler. l may be nil, in which case explanations are
// unavailable.
func New(s *store.Store, l Explainer, cfg model.ServerConfig) *Handler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	return &Handler{store: s, llm: l, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/quizSets", h.handleListQuizSets)
	r.Get("/quizSets/{id}", h.handleGetQuizSet)
	r.Get("/getQuestionsByQuizSet/{id}", h.handleQuestions)
	r.Post("/shuffleQuestions/{id}", h.handleShuffleQuestions)
	r.Post("/resetQuestions/{id}", h.handleResetQuestions)
	r.Get("/getUserSelections/{id}", h.handleUserSelections)
	r.Post("/updateUserSelection", h.handleUpdateSelection)
	r.Post("/updateScore", h.handleUpdateScore)
	r.Get("/getFavorites/{id}", h.handleFavorites)
	r.Post("/toggleFavorite", h.handleToggleFavorite)
	r.Get("/getEyeIconState/{id}", h.handleEyeIconState)
	r.Post("/updateEyeIconState/{id}", h.handleUpdateEyeIconState)
	r.Post("/updateQuizSetStatus/{id}", h.handleUpdateStatus)
	r.Post("/updateQuizSetScore/{id}", h.handleUpdateQuizSetScore)
	r.Post("/explainQuestion/{questionID}", h.handleExplain)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(requireRole(model.UserRoleAdmin))
		r.Post("/quizSets", h.handleUploadQuizSet)
		r.Get("/export", h.handleExport)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError answers with a localized {"error": ...} body.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeErrorData(w, r, status, msgID, nil)
}

func writeErrorData(w http.ResponseWriter, r *http.Request, status int, msgID string, data map[string]any) {
	msg := appI18n.Td(r.Context(), msgID, data)
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps a store error to a response. A missing row is a 404.
func writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}
	slog.Error("store operation failed", "op", op, "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusInternalServerError, "InternalError")
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// idParam parses a positive integer route parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "InvalidID")
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into v. An empty body is accepted
// when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	slog.Warn("invalid request body", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusBadRequest, "InvalidRequestBody")
	return false
}
