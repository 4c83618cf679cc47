package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/middleware"
	"github.com/requill-tracker/internal/model"
	"github.com/requill-tracker/internal/scheduler"
	"github.com/requill-tracker/internal/storage"
)

const maxTaskURLs = 100

// CreateImportTask godoc
// @Summary Create an import task
// @Description Save a list of posting URLs that is imported on a cron schedule
// @Tags Imports
// @Accept json
// @Produce json
// @Param request body model.CreateImportTaskRequest true "Task configuration"
// @Success 201 {object} model.ImportTask
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports [post]
func (h *Handler) CreateImportTask(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateImportTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "task name is required")
		return
	}
	if _, err := scheduler.NormalizeSchedule(req.Schedule); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	urls, err := normalizeTaskURLs(req.URLs)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.URLs = urls
	if err := validateWebhook(req.WebhookURL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Create(r.Context(), &req, claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	if err := h.scheduler.AddTask(*task); err != nil {
		log.Printf("Failed to schedule task %s: %v", task.ID, err)
	}
	task.NextRunAt = h.scheduler.GetNextRun(task.ID)

	respondJSON(w, http.StatusCreated, task)
}

// ListImportTasks godoc
// @Summary List import tasks
// @Tags Imports
// @Produce json
// @Param limit query int false "Number of tasks to return" default(50)
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} map[string]interface{} "Tasks list with pagination"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports [get]
func (h *Handler) ListImportTasks(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r, 50)
	tasks, err := h.tasks.FindByOwner(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch tasks")
		return
	}
	if tasks == nil {
		tasks = []model.ImportTask{}
	}

	for i := range tasks {
		if next := h.scheduler.GetNextRun(tasks[i].ID); next != nil {
			tasks[i].NextRunAt = next
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// GetImportTask godoc
// @Summary Get an import task
// @Tags Imports
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} model.ImportTask
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id} [get]
func (h *Handler) GetImportTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if next := h.scheduler.GetNextRun(task.ID); next != nil {
		task.NextRunAt = next
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateImportTask godoc
// @Summary Update an import task
// @Tags Imports
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body model.UpdateImportTaskRequest true "Fields to change"
// @Success 200 {object} model.ImportTask
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id} [put]
func (h *Handler) UpdateImportTask(w http.ResponseWriter, r *http.Request) {
	current, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var req model.UpdateImportTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(w, http.StatusBadRequest, "task name must not be empty")
		return
	}
	if req.Schedule != nil {
		if _, err := scheduler.NormalizeSchedule(*req.Schedule); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Status != nil && *req.Status != model.TaskStatusEnabled && *req.Status != model.TaskStatusDisabled {
		respondError(w, http.StatusBadRequest, "status must be enabled or disabled")
		return
	}
	if req.URLs != nil {
		urls, err := normalizeTaskURLs(req.URLs)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.URLs = urls
	}
	if req.WebhookURL != nil {
		if err := validateWebhook(*req.WebhookURL); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	task, err := h.tasks.Update(r.Context(), current.ID, &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	if task == nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.scheduler.UpdateTask(*task); err != nil {
		log.Printf("Failed to reschedule task %s: %v", task.ID, err)
	}
	task.NextRunAt = h.scheduler.GetNextRun(task.ID)

	respondJSON(w, http.StatusOK, task)
}

// DeleteImportTask godoc
// @Summary Delete an import task
// @Description Delete a task and remove it from the scheduler. Jobs it imported stay in the tracker.
// @Tags Imports
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]string "Deletion status"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id} [delete]
func (h *Handler) DeleteImportTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), task.ID); err != nil {
		respondStoreError(w, err, "task")
		return
	}
	h.scheduler.RemoveTask(task.ID)

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TriggerImportTask godoc
// @Summary Run an import task now
// @Description Import the task's URLs immediately regardless of its schedule
// @Tags Imports
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} model.Execution
// @Failure 404 {object} map[string]string "Task not found"
// @Failure 409 {object} map[string]string "Task already running"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id}/run [post]
func (h *Handler) TriggerImportTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}
	if task.Status == model.TaskStatusRunning {
		respondError(w, http.StatusConflict, "task is already running")
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	execution, err := h.scheduler.TriggerTask(r.Context(), task.ID, claims.UserID)
	if errors.Is(err, scheduler.ErrTaskNotFound) {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	if execution == nil {
		respondError(w, http.StatusInternalServerError, "failed to run task")
		return
	}

	// A failed run still produced an execution record worth returning.
	respondJSON(w, http.StatusOK, execution)
}

// GetImportExecutions godoc
// @Summary List executions of an import task
// @Tags Imports
// @Produce json
// @Param id path string true "Task ID"
// @Param limit query int false "Number of executions to return" default(20)
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} map[string]interface{} "Executions list"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id}/executions [get]
func (h *Handler) GetImportExecutions(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r, 20)
	executions, err := h.execs.FindByTaskID(r.Context(), task.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch executions")
		return
	}
	if executions == nil {
		executions = []model.Execution{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"executions": executions,
		"limit":      limit,
		"offset":     offset,
	})
}

// GetImportExecution godoc
// @Summary Get execution details
// @Description Per-URL outcome of one run of an import task
// @Tags Imports
// @Produce json
// @Param id path string true "Task ID"
// @Param execId path string true "Execution ID"
// @Success 200 {object} model.Execution
// @Failure 404 {object} map[string]string "Execution not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id}/executions/{execId} [get]
func (h *Handler) GetImportExecution(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	execution, err := h.execs.FindByID(r.Context(), r.PathValue("execId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch execution")
		return
	}
	if execution == nil || execution.TaskID != task.ID {
		respondError(w, http.StatusNotFound, "execution not found")
		return
	}

	respondJSON(w, http.StatusOK, execution)
}

// ownedTask loads the task named in the path and writes an error response
// unless it belongs to the caller. Admins may access every task.
func (h *Handler) ownedTask(w http.ResponseWriter, r *http.Request) (*model.ImportTask, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	task, err := h.tasks.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch task")
		return nil, false
	}
	if task == nil || !claims.CanAccess(task.CreatedBy) {
		respondError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

// normalizeTaskURLs validates every URL and drops duplicates, keeping order.
func normalizeTaskURLs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("at least one URL is required")
	}
	if len(raw) > maxTaskURLs {
		return nil, fmt.Errorf("at most %d URLs per task", maxTaskURLs)
	}

	seen := make(map[string]bool, len(raw))
	urls := make([]string, 0, len(raw))
	for _, s := range raw {
		u, err := extractor.ValidateURL(s)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q", s)
		}
		key := storage.NormalizeURL(u.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, u.String())
	}
	return urls, nil
}

func validateWebhook(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := extractor.ValidateURL(raw)
	if err != nil || u.Scheme != "https" {
		return errors.New("webhook_url must be an https URL")
	}
	return nil
}
