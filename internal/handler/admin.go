package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pavelanni/quizmode/internal/quizfile"
	"github.com/pavelanni/quizmode/internal/store"
)

// handleUploadQuizSet imports a quiz set from the multipart "file" field.
// Re-uploading an unchanged file returns the existing quiz set.
func (h *Handler) handleUploadQuizSet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "FileTooLarge")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "NoFileUploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	imp, err := quizfile.Parse(header.Filename, data)
	if err != nil {
		writeErrorData(w, r, http.StatusBadRequest, "InvalidQuizFile", map[string]any{"Error": err.Error()})
		return
	}

	id, created, err := h.store.ImportQuizSet(r.Context(), header.Filename, store.FileHash(data), imp)
	if errors.Is(err, store.ErrFileChanged) {
		writeError(w, r, http.StatusConflict, "FileChanged")
		return
	}
	if err != nil {
		writeStoreError(w, r, "import quiz set", err)
		return
	}

	set, err := h.store.GetQuizSet(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "get quiz set", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		slog.Info("uploaded quiz set via admin", "filename", header.Filename, "quiz_set_id", id, "count", len(imp.Questions))
	}
	writeJSON(w, status, set)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportResults(r.Context())
	if err != nil {
		writeStoreError(w, r, "export results", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="quizmode-results-`+time.Now().UTC().Format("20060102")+`.json"`)
	writeJSON(w, http.StatusOK, export)
}
