package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/middleware"
	"github.com/requill-tracker/internal/model"
	"github.com/requill-tracker/internal/storage"
)

type UserStore interface {
	Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ValidatePassword(user *model.User, password string) bool
	UpdateLastLogin(ctx context.Context, userID string) error
	RegenerateAPIKey(ctx context.Context, userID string) (string, error)
}

type JobStore interface {
	Create(ctx context.Context, job *model.JobRecord) error
	FindByID(ctx context.Context, userID, id string) (*model.JobRecord, error)
	FindByUser(ctx context.Context, filter model.JobFilter) ([]model.JobRecord, error)
	ExistsBySource(ctx context.Context, userID, sourceURL string) (bool, error)
	UpdateStatus(ctx context.Context, userID, id string, status model.JobStatus) error
	UpdateNotes(ctx context.Context, userID, id, notes string) error
	IncrementViews(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
	CountByStatus(ctx context.Context, userID string) ([]model.JobStatusCount, error)
}

type TaskStore interface {
	Create(ctx context.Context, req *model.CreateImportTaskRequest, userID string) (*model.ImportTask, error)
	FindByID(ctx context.Context, id string) (*model.ImportTask, error)
	FindByOwner(ctx context.Context, userID string, limit, offset int) ([]model.ImportTask, error)
	Update(ctx context.Context, id string, req *model.UpdateImportTaskRequest) (*model.ImportTask, error)
	Delete(ctx context.Context, id string) error
}

type ExecutionStore interface {
	FindByID(ctx context.Context, id string) (*model.Execution, error)
	FindByTaskID(ctx context.Context, taskID string, limit, offset int) ([]model.Execution, error)
}

// Pipeline is the extraction pipeline as seen by the handlers.
type Pipeline interface {
	Extract(ctx context.Context, rawURL string) (*model.JobRecord, error)
	Import(ctx context.Context, userID, rawURL string) (*model.JobRecord, error)
	Profiles() *extractor.ProfileTable
	Skills() *extractor.SkillTagger
}

// Locker guards against the same user extracting the same URL twice at once.
type Locker interface {
	Acquire(ctx context.Context, userID, rawURL string) (bool, error)
	Release(ctx context.Context, userID, rawURL string) error
}

type TaskScheduler interface {
	AddTask(task model.ImportTask) error
	UpdateTask(task model.ImportTask) error
	RemoveTask(taskID string)
	TriggerTask(ctx context.Context, taskID, triggeredBy string) (*model.Execution, error)
	GetNextRun(taskID string) *time.Time
	IsRunning() bool
}

// Handler contains all API handlers
type Handler struct {
	users          UserStore
	jobs           JobStore
	tasks          TaskStore
	execs          ExecutionStore
	pipeline       Pipeline
	lock           Locker
	scheduler      TaskScheduler
	auth           *middleware.AuthMiddleware
	extractTimeout time.Duration
}

// Deps bundles the collaborators of a Handler.
type Deps struct {
	Users          UserStore
	Jobs           JobStore
	Tasks          TaskStore
	Executions     ExecutionStore
	Pipeline       Pipeline
	Lock           Locker
	Scheduler      TaskScheduler
	Auth           *middleware.AuthMiddleware
	ExtractTimeout time.Duration
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:          d.Users,
		jobs:           d.Jobs,
		tasks:          d.Tasks,
		execs:          d.Executions,
		pipeline:       d.Pipeline,
		lock:           d.Lock,
		scheduler:      d.Scheduler,
		auth:           d.Auth,
		extractTimeout: d.ExtractTimeout,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Auth handlers

// Register godoc
// @Summary Register a new user
// @Description Create a new user account with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "email, password, and name are required")
		return
	}
	if !isValidEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.users.Create(r.Context(), &req)
	if errors.Is(err, storage.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, expiresAt, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil || user == nil || !user.IsActive {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !h.users.ValidatePassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.users.UpdateLastLogin(r.Context(), user.ID)

	respondJSON(w, http.StatusOK, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// GetProfile godoc
// @Summary Get user profile
// @Description Get the current user's profile information
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// RegenerateAPIKey godoc
// @Summary Regenerate API key
// @Description Generate a new API key for the current user. The key is only shown once.
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.APIKeyResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/api-key/regenerate [post]
func (h *Handler) RegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	apiKey, err := h.users.RegenerateAPIKey(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to regenerate API key")
		return
	}

	respondJSON(w, http.StatusOK, model.APIKeyResponse{APIKey: apiKey})
}

// Health godoc
// @Summary Health check
// @Description Check if the API is running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if h.scheduler != nil {
		resp["scheduler"] = h.scheduler.IsRunning()
	}
	respondJSON(w, http.StatusOK, resp)
}

// pagination reads limit and offset, falling back to the defaults for
// missing or malformed values.
func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	return strings.Contains(parts[1], ".")
}
