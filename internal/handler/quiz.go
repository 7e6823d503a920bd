package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
)

func (h *Handler) handleListQuizSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.store.ListQuizSets(r.Context())
	if err != nil {
		writeStoreError(w, r, "list quiz sets", err)
		return
	}
	if sets == nil {
		sets = []model.QuizSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *Handler) handleGetQuizSet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	set, err := h.store.GetQuizSet(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "get quiz set", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	qs, err := h.store.ListQuestions(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "list questions", err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) handleShuffleQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	qs, err := h.store.ShuffleQuestions(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "shuffle questions", err)
		return
	}
	slog.Info("shuffled questions", "quiz_set_id", id, "count", len(qs))
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) handleResetQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.ResetQuestions(r.Context(), id); err != nil {
		writeStoreError(w, r, "reset questions", err)
		return
	}
	slog.Info("reset questions", "quiz_set_id", id)
	writeOK(w)
}

func (h *Handler) handleUserSelections(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetQuizSet(r.Context(), id); err != nil {
		writeStoreError(w, r, "get quiz set", err)
		return
	}
	sel, err := h.store.UserSelections(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "user selections", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (h *Handler) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSelectionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	q, err := h.store.GetQuestion(r.Context(), req.QuestionID)
	if err != nil {
		writeStoreError(w, r, "get question", err)
		return
	}
	if req.SelectedOption != nil {
		i, ok := quiz.LabelIndex(*req.SelectedOption)
		if !ok || i >= len(q.Options) {
			writeError(w, r, http.StatusBadRequest, "InvalidOption")
			return
		}
	}
	if err := h.store.UpdateUserSelection(r.Context(), req.QuestionID, req.SelectedOption); err != nil {
		writeStoreError(w, r, "update selection", err)
		return
	}
	writeOK(w)
}

func (h *Handler) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateScoreRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.store.AddProgressScore(r.Context(), req.QuizSetID, req.Increment); err != nil {
		writeStoreError(w, r, "update score", err)
		return
	}
	slog.Debug("progress score updated", "quiz_set_id", req.QuizSetID, "question_id", req.QuestionID, "increment", req.Increment)
	writeOK(w)
}

func (h *Handler) handleFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetQuizSet(r.Context(), id); err != nil {
		writeStoreError(w, r, "get quiz set", err)
		return
	}
	ids, err := h.store.Favorites(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "favorites", err)
		return
	}
	refs := make([]model.FavoriteRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.FavoriteRef{ID: id})
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req model.ToggleFavoriteRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	fav, err := h.store.ToggleFavorite(r.Context(), req.QuestionID)
	if err != nil {
		writeStoreError(w, r, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": fav})
}

func (h *Handler) handleEyeIconState(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	state, err := h.store.EyeIconState(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "eye icon state", err)
		return
	}
	writeJSON(w, http.StatusOK, model.EyeIconState{State: state})
}

func (h *Handler) handleUpdateEyeIconState(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.EyeIconState
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.store.SetEyeIconState(r.Context(), id, req.State); err != nil {
		writeStoreError(w, r, "update eye icon state", err)
		return
	}
	writeOK(w)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.StatusRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if !req.Status.Final() {
		writeError(w, r, http.StatusBadRequest, "InvalidStatus")
		return
	}
	if err := h.store.SetQuizSetStatus(r.Context(), id, req.Status); err != nil {
		writeStoreError(w, r, "update status", err)
		return
	}
	slog.Info("quiz set submitted", "quiz_set_id", id, "status", req.Status)
	writeOK(w)
}

func (h *Handler) handleUpdateQuizSetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.ScoreRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if req.Score < 0 {
		writeError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if err := h.store.SetQuizSetScore(r.Context(), id, req.Score); err != nil {
		writeStoreError(w, r, "update quiz set score", err)
		return
	}
	writeOK(w)
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		writeError(w, r, http.StatusServiceUnavailable, "ExplanationUnavailable")
		return
	}
	id, ok := idParam(w, r, "questionID")
	if !ok {
		return
	}
	var req model.ExplainRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	q, err := h.store.GetQuestion(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "get question", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()
	text, err := h.llm.Explain(ctx, q, req.SelectedOption)
	if err != nil {
		slog.Error("LLM explanation failed", "question_id", id, "error", err)
		writeError(w, r, http.StatusBadGateway, "ExplanationFailed")
		return
	}
	writeJSON(w, http.StatusOK, model.Explanation{Explanation: text})
}
