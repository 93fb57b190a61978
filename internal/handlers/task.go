package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docshrink/internal/dto"
	"docshrink/internal/middleware"
	"docshrink/internal/stats"
	"docshrink/internal/store"
	"docshrink/internal/validation"
)

// TaskService is what the HTTP layer needs from the core.
type TaskService interface {
	Submit(ctx context.Context, data []byte, filename string) (*dto.TaskResponse, error)
	Status(taskID string) (*dto.TaskResponse, error)
	Download(taskID, filename string) ([]byte, error)
	Delete(taskID string) error
	Stats() (*stats.Summary, error)
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
	maxSize int64
}

func NewTaskHandler(service TaskService, maxSize int64, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
		maxSize: maxSize,
	}
}

var mediaTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Compress accepts a multipart upload and returns the task descriptor in
// processing state. The store re-validates; the size pre-check here only
// keeps oversized bodies from being read into memory.
func (h *TaskHandler) Compress(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.handleError(w, "failed to parse form", err, traceID, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, "failed to get file", err, traceID, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, "failed to read file", err, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.Submit(r.Context(), data, header.Filename)
	if err != nil {
		if validation.IsValidationError(err) {
			h.handleError(w, err.Error(), err, traceID, http.StatusBadRequest)
			return
		}
		h.handleError(w, "failed to create task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.logger.Info("upload accepted",
		zap.String("trace_id", traceID),
		zap.String("task_id", resp.ID),
		zap.String("filename", header.Filename),
	)

	h.respondJSON(w, http.StatusAccepted, resp)
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	resp, err := h.service.Status(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(w, "task not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "failed to get task status", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())
	filename := filepath.Base(r.PathValue("filename"))

	data, err := h.service.Download(r.PathValue("id"), filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(w, "file not found or expired", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "failed to read file", err, traceID, http.StatusInternalServerError)
		return
	}

	mediaType := mediaTypes[strings.ToLower(filepath.Ext(filename))]
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if err := h.service.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(w, "task not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "failed to delete task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	summary, err := h.service.Stats()
	if err != nil {
		h.handleError(w, "failed to load stats", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "document-compressor",
	})
}

func (h *TaskHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
