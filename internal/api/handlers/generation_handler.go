// internal/api/handlers/generation_handler.go
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"opening-server/internal/api/middleware"
	"opening-server/internal/models"
	"opening-server/internal/queue"
	"opening-server/internal/storage"
)

const maxUploadBytes = 32 << 20

// GenerationStatus is the wire form of a task for submission and polling.
type GenerationStatus struct {
	TaskID   string         `json:"task_id"`
	Status   string         `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
	Result   *models.Result `json:"result"`
	Error    string         `json:"error,omitempty"`
}

type GenerationHandler struct {
	tasks   storage.TaskStore
	queue   queue.Queue
	tempDir string
	logger  zerolog.Logger
}

func NewGenerationHandler(tasks storage.TaskStore, q queue.Queue, tempDir string, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		tasks:   tasks,
		queue:   q,
		tempDir: tempDir,
		logger:  logger,
	}
}

// GenerateOpening accepts the image batch, creates the task and hands the job
// to the queue without waiting for the pipeline. The caller gets the task id
// immediately and polls for progress.
func (h *GenerationHandler) GenerateOpening(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	images := r.MultipartForm.File["images"]
	if len(images) == 0 {
		respondError(w, http.StatusBadRequest, "No images provided")
		return
	}

	// Unknown themes are coerced to the default rather than rejected.
	theme := models.NormalizeTheme(r.FormValue("theme"))
	title := r.FormValue("title")

	task := h.tasks.Create(principal.UserID)

	savedPaths, err := h.saveImages(task.ID, images)
	if err != nil {
		h.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to persist uploads")
		h.abortTask(task.ID, err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start generation: %s", err))
		return
	}

	job := &models.GenerationInput{
		TaskID:     task.ID,
		Owner:      principal.UserID,
		ImagePaths: savedPaths,
		Theme:      theme,
		Title:      title,
	}
	if err := h.queue.Publish(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to queue job")
		h.abortTask(task.ID, err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start generation: %s", err))
		return
	}

	respondJSON(w, http.StatusOK, GenerationStatus{
		TaskID:   task.ID,
		Status:   "started",
		Progress: 0,
		Message:  "Generation started",
		Result:   nil,
	})
}

// GenerationStatus reports the current stage of a task. No authorization:
// anyone holding a task id may poll it.
func (h *GenerationHandler) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := h.tasks.Get(taskID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, GenerationStatus{
		TaskID:   task.ID,
		Status:   string(task.Stage),
		Progress: task.Progress,
		Message:  task.Message,
		Result:   task.Result,
		Error:    task.Error,
	})
}

// abortTask settles a task whose job never reached the queue. The record is
// failed rather than left queued forever, and the upload dir is removed here
// because the driver's cleanup will never run for it.
func (h *GenerationHandler) abortTask(taskID string, cause error) {
	message := fmt.Sprintf("Generation failed: %s", cause)
	if err := h.tasks.Update(taskID, models.StageFailed, 0, message, nil, cause.Error()); err != nil {
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to record aborted task")
	}
	if err := os.RemoveAll(filepath.Join(h.tempDir, taskID)); err != nil {
		h.logger.Warn().Err(err).Str("task_id", taskID).Msg("failed to clean up task assets")
	}
}

func (h *GenerationHandler) saveImages(taskID string, images []*multipart.FileHeader) ([]string, error) {
	taskDir := filepath.Join(h.tempDir, taskID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create task dir: %w", err)
	}

	savedPaths := make([]string, 0, len(images))
	for i, header := range images {
		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %d: %w", i, err)
		}

		savePath := filepath.Join(taskDir, fmt.Sprintf("original_%d.jpg", i))
		dst, err := os.Create(savePath)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create %s: %w", savePath, err)
		}

		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", savePath, err)
		}

		savedPaths = append(savedPaths, savePath)
	}

	return savedPaths, nil
}
