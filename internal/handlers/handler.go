// Package handlers exposes the cache layer over a JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jpcarver/versecache/internal/annotate"
	"github.com/jpcarver/versecache/internal/backend"
	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/domain"
	"github.com/jpcarver/versecache/internal/logger"
	"github.com/jpcarver/versecache/internal/reader"
)

type Handler struct {
	Manager   *cache.Manager
	Reader    *reader.Controller
	Annotator *annotate.Annotator
	API       backend.API
	Logger    *logger.Logger

	validate *validator.Validate
}

func NewHandler(m *cache.Manager, rd *reader.Controller, an *annotate.Annotator, api backend.API, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Manager:   m,
		Reader:    rd,
		Annotator: an,
		API:       api,
		Logger:    log.WithComponent("http"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/versions", h.GetVersions)
	r.Get("/api/books", h.GetBooks)
	r.Get("/api/chapter/{table}/{book}/{chapter}", h.GetChapter)
	r.Post("/api/annotate", h.Annotate)
	r.Post("/api/popover", h.Popover)
	r.Get("/api/cross-references", h.CrossReferences)
	r.Get("/api/cache/stats", h.CacheStats)
	r.Post("/api/cache/refresh", h.CacheRefresh)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	Retryable bool   `json:"retryable"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("response encode failed", "error", err)
	}
}

// writeError maps domain errors onto statuses. Network failures are marked
// retryable so explicit loads can offer the user another attempt.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	reqID := uuid.New().String()

	status := http.StatusInternalServerError
	retryable := false
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNetworkTimeout), errors.Is(err, domain.ErrNetwork):
		status = http.StatusBadGateway
		retryable = true
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		retryable = true
	}

	if status >= 500 {
		h.Logger.Error("request failed", "request_id", reqID, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: reqID, Retryable: retryable})
}

func (h *Handler) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidArgument
	}
	if err := h.validate.Struct(v); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}
