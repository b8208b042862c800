// internal/api/handlers/opening_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"opening-server/internal/api/middleware"
	"opening-server/internal/models"
	"opening-server/internal/storage"
)

type OpeningHandler struct {
	openings storage.OpeningStore
	tasks    storage.TaskStore
	logger   zerolog.Logger
}

func NewOpeningHandler(openings storage.OpeningStore, tasks storage.TaskStore, logger zerolog.Logger) *OpeningHandler {
	return &OpeningHandler{
		openings: openings,
		tasks:    tasks,
		logger:   logger,
	}
}

type saveOpeningRequest struct {
	OpeningID string `json:"opening_id"`
	Title     string `json:"title"`
}

// SaveOpening persists a reference to a completed generation under the
// caller's account. The opening_id is the generation task id; its result
// URLs are snapshotted into the saved record.
func (h *OpeningHandler) SaveOpening(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req saveOpeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OpeningID == "" {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.tasks.Get(req.OpeningID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if task.Owner != principal.UserID {
		respondError(w, http.StatusForbidden, "Not authorized to save this opening")
		return
	}
	if task.Stage != models.StageCompleted || task.Result == nil {
		respondError(w, http.StatusBadRequest, "Opening is not ready to be saved")
		return
	}

	opening := &models.Opening{
		ID:         models.NewOpeningID(),
		UserID:     principal.UserID,
		Title:      req.Title,
		Theme:      task.Result.Theme,
		VideoURL:   task.Result.VideoURL,
		PreviewURL: task.Result.PreviewURL,
		CreatedAt:  time.Now(),
	}
	if err := h.openings.Save(r.Context(), opening); err != nil {
		h.logger.Error().Err(err).Str("opening_id", opening.ID).Msg("failed to save opening")
		respondError(w, http.StatusInternalServerError, "Failed to save opening")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Opening saved successfully",
		"opening_id": opening.ID,
		"opening":    opening,
	})
}

// ListOpenings returns the caller's saved openings.
func (h *OpeningHandler) ListOpenings(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	openings, err := h.openings.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", principal.UserID).Msg("failed to list openings")
		respondError(w, http.StatusInternalServerError, "Failed to list openings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"openings": openings})
}

// GetOpening returns one saved opening; only its owner may read it.
func (h *OpeningHandler) GetOpening(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	opening, err := h.openings.Get(r.Context(), chi.URLParam(r, "openingID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Opening not found")
		return
	}
	if opening.UserID != principal.UserID {
		respondError(w, http.StatusForbidden, "Not authorized to access this opening")
		return
	}

	respondJSON(w, http.StatusOK, opening)
}

// DeleteOpening removes a saved opening; only its owner may delete it.
func (h *OpeningHandler) DeleteOpening(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	err := h.openings.Delete(r.Context(), chi.URLParam(r, "openingID"), principal.UserID)
	switch {
	case errors.Is(err, storage.ErrOpeningNotFound):
		respondError(w, http.StatusNotFound, "Opening not found")
	case errors.Is(err, storage.ErrNotOwner):
		respondError(w, http.StatusForbidden, "Not authorized to delete this opening")
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to delete opening")
		respondError(w, http.StatusInternalServerError, "Failed to delete opening")
	default:
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
