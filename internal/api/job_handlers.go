package api

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/middleware"
	"github.com/requill-tracker/internal/model"
	"github.com/requill-tracker/internal/storage"
)

const maxNotesRunes = 5000

// Manual entries and notes are stored as plain text.
var plainText = bluemonday.StrictPolicy()

// ExtractionErrorResponse is returned when a posting could not be imported.
type ExtractionErrorResponse struct {
	Error       string `json:"error"`
	Reason      string `json:"reason"`
	ManualEntry bool   `json:"manual_entry"`
}

// SiteInfo describes a supported site family.
type SiteInfo struct {
	Family          model.SiteFamily `json:"family"`
	Label           string           `json:"label"`
	Domains         []string         `json:"domains,omitempty"`
	ManualEntryHint bool             `json:"manual_entry_hint"`
}

// ExtractJob godoc
// @Summary Import a job from a posting URL
// @Description Fetch the posting through the scraping proxy, extract its fields and save it to the tracker
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body model.ExtractJobRequest true "Posting URL"
// @Success 201 {object} model.JobRecord
// @Failure 400 {object} ExtractionErrorResponse "Invalid URL"
// @Failure 409 {object} map[string]string "Already tracked or extraction in progress"
// @Failure 422 {object} ExtractionErrorResponse "Site blocked or page unreadable"
// @Failure 502 {object} ExtractionErrorResponse "Proxy failure"
// @Failure 504 {object} ExtractionErrorResponse "Proxy timeout"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/extract [post]
func (h *Handler) ExtractJob(w http.ResponseWriter, r *http.Request) {
	h.extract(w, r, true)
}

// PreviewJob godoc
// @Summary Preview extraction of a posting URL
// @Description Run the extraction pipeline without saving the result
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body model.ExtractJobRequest true "Posting URL"
// @Success 200 {object} model.JobRecord
// @Failure 400 {object} ExtractionErrorResponse "Invalid URL"
// @Failure 422 {object} ExtractionErrorResponse "Site blocked or page unreadable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/preview [post]
func (h *Handler) PreviewJob(w http.ResponseWriter, r *http.Request) {
	h.extract(w, r, false)
}

func (h *Handler) extract(w http.ResponseWriter, r *http.Request, save bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.ExtractJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := extractor.ValidateURL(req.URL)
	if err != nil {
		respondExtractionError(w, err)
		return
	}
	target := u.String()

	if save {
		exists, err := h.jobs.ExistsBySource(r.Context(), claims.UserID, target)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to check existing jobs")
			return
		}
		if exists {
			respondError(w, http.StatusConflict, "this job is already in your tracker")
			return
		}
	}

	if h.lock != nil {
		acquired, err := h.lock.Acquire(r.Context(), claims.UserID, target)
		if err != nil {
			log.Printf("Warning: %v", err)
		} else if !acquired {
			respondError(w, http.StatusConflict, "this job is already being imported")
			return
		} else {
			defer h.lock.Release(context.WithoutCancel(r.Context()), claims.UserID, target)
		}
	}

	ctx := r.Context()
	if h.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.extractTimeout)
		defer cancel()
	}

	var job *model.JobRecord
	if save {
		job, err = h.pipeline.Import(ctx, claims.UserID, target)
	} else {
		job, err = h.pipeline.Extract(ctx, target)
	}
	if err != nil {
		log.Printf("Extraction of %s failed [%s]: %v", target, middleware.GetRequestID(r.Context()), err)
		respondExtractionError(w, err)
		return
	}

	if save {
		respondJSON(w, http.StatusCreated, job)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// respondExtractionError maps pipeline errors to a status code and a message
// the user can act on.
func respondExtractionError(w http.ResponseWriter, err error) {
	msg, manual := extractor.UserMessage(err)
	resp := ExtractionErrorResponse{Error: msg, ManualEntry: manual}
	status := http.StatusInternalServerError

	var fetchErr *extractor.FetchError
	var extractErr *extractor.ExtractionError
	switch {
	case errors.Is(err, extractor.ErrInvalidURL):
		status = http.StatusBadRequest
		resp.Reason = "invalid_url"
	case errors.As(err, &fetchErr):
		resp.Reason = string(fetchErr.Reason)
		switch fetchErr.Reason {
		case extractor.ReasonBlocked:
			status = http.StatusUnprocessableEntity
		case extractor.ReasonTimeout:
			status = http.StatusGatewayTimeout
		default:
			status = http.StatusBadGateway
		}
	case errors.As(err, &extractErr):
		status = http.StatusUnprocessableEntity
		resp.Reason = string(extractErr.Reason)
	default:
		resp.Reason = "internal_error"
	}

	respondJSON(w, status, resp)
}

// CreateJob godoc
// @Summary Add a job manually
// @Description Save a job entered by hand. Text fields are stripped of markup; skills and remote flag are derived like imported jobs.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body model.CreateJobRequest true "Job details"
// @Success 201 {object} model.JobRecord
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Already tracked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs [post]
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.manualJob(claims.UserID, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if job.SourceURL != "" {
		exists, err := h.jobs.ExistsBySource(r.Context(), claims.UserID, job.SourceURL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to check existing jobs")
			return
		}
		if exists {
			respondError(w, http.StatusConflict, "this job is already in your tracker")
			return
		}
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save job")
		return
	}

	respondJSON(w, http.StatusCreated, job)
}

// manualJob builds a record from user input the same way the pipeline
// assembles extracted ones.
func (h *Handler) manualJob(userID string, req model.CreateJobRequest) (*model.JobRecord, error) {
	title := sanitize(req.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}

	status := model.JobStatusApplied
	if req.Status != "" {
		st, err := model.ParseJobStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	if req.Salary != nil && *req.Salary < 0 {
		return nil, errors.New("salary must not be negative")
	}
	if req.Applicants != nil && *req.Applicants < 0 {
		return nil, errors.New("applicants must not be negative")
	}

	notes := sanitizeNotes(req.Notes)
	if utf8.RuneCountInString(notes) > maxNotesRunes {
		return nil, errors.New("notes are too long")
	}

	sourceURL := ""
	if strings.TrimSpace(req.SourceURL) != "" {
		u, err := extractor.ValidateURL(req.SourceURL)
		if err != nil {
			return nil, errors.New("source_url must be an http(s) URL")
		}
		sourceURL = u.String()
	}

	description := sanitize(req.Description)
	location := sanitize(req.Location)
	skills := h.pipeline.Skills().Tag(description)

	platform := sanitize(req.Platform)
	if platform == "" && sourceURL != "" {
		platform = extractor.PlatformLabel(h.pipeline.Profiles().Select(sourceURL), sourceURL)
	}

	return &model.JobRecord{
		UserID:            userID,
		Title:             title,
		Company:           sanitize(req.Company),
		Location:          location,
		Description:       description,
		ExtractedSkills:   skills,
		SourceURL:         sourceURL,
		Platform:          platform,
		IsRemote:          extractor.IsRemoteLocation(location),
		Salary:            req.Salary,
		Applicants:        req.Applicants,
		Status:            status,
		DescriptionLength: utf8.RuneCountInString(description),
		SkillsCount:       len(skills),
		Notes:             notes,
	}, nil
}

// sanitize strips markup and collapses whitespace.
func sanitize(s string) string {
	return extractor.NormalizeText(html.UnescapeString(plainText.Sanitize(s)))
}

// sanitizeNotes strips markup but keeps the user's line breaks.
func sanitizeNotes(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// ListJobs godoc
// @Summary List tracked jobs
// @Tags Jobs
// @Produce json
// @Param status query string false "Filter by status"
// @Param remote query bool false "Filter by remote flag"
// @Param limit query int false "Number of jobs to return" default(50)
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} map[string]interface{} "Jobs list"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter, err := jobFilter(r, claims.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := h.jobs.FindByUser(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch jobs")
		return
	}
	if jobs == nil {
		jobs = []model.JobRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func jobFilter(r *http.Request, userID string) (model.JobFilter, error) {
	limit, offset := pagination(r, 50)
	filter := model.JobFilter{UserID: userID, Limit: limit, Offset: offset}

	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		st, err := model.ParseJobStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Status = st
	}
	if s := q.Get("remote"); s != "" {
		remote, err := strconv.ParseBool(s)
		if err != nil {
			return filter, errors.New("remote must be true or false")
		}
		filter.Remote = &remote
	}
	return filter, nil
}

// GetJob godoc
// @Summary Get a tracked job
// @Description Returns the job and counts the view
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} model.JobRecord
// @Failure 404 {object} map[string]string "Job not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := r.PathValue("id")
	job, err := h.jobs.FindByID(r.Context(), claims.UserID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	if err := h.jobs.IncrementViews(r.Context(), claims.UserID, id); err != nil {
		log.Printf("Warning: failed to count view for job %s: %v", id, err)
	} else {
		job.Views++
	}

	respondJSON(w, http.StatusOK, job)
}

// UpdateJob godoc
// @Summary Update a tracked job
// @Description Change the application status and/or notes
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param request body model.UpdateJobRequest true "Fields to change"
// @Success 200 {object} model.JobRecord
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Job not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/{id} [patch]
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == nil && req.Notes == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	var status model.JobStatus
	if req.Status != nil {
		st, err := model.ParseJobStatus(*req.Status)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}
	var notes string
	if req.Notes != nil {
		notes = sanitizeNotes(*req.Notes)
		if utf8.RuneCountInString(notes) > maxNotesRunes {
			respondError(w, http.StatusBadRequest, "notes are too long")
			return
		}
	}

	id := r.PathValue("id")
	if status != "" {
		if err := h.jobs.UpdateStatus(r.Context(), claims.UserID, id, status); err != nil {
			respondStoreError(w, err, "job")
			return
		}
	}
	if req.Notes != nil {
		if err := h.jobs.UpdateNotes(r.Context(), claims.UserID, id, notes); err != nil {
			respondStoreError(w, err, "job")
			return
		}
	}

	job, err := h.jobs.FindByID(r.Context(), claims.UserID, id)
	if err != nil || job == nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// DeleteJob godoc
// @Summary Delete a tracked job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]string "Deletion status"
// @Failure 404 {object} map[string]string "Job not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/{id} [delete]
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.jobs.Delete(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		respondStoreError(w, err, "job")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// JobStats godoc
// @Summary Tracker statistics
// @Description Number of tracked jobs per status
// @Tags Jobs
// @Produce json
// @Success 200 {object} map[string]interface{} "Counts per status"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /jobs/stats [get]
func (h *Handler) JobStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.jobs.CountByStatus(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}

	total := 0
	byStatus := make(map[model.JobStatus]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
		total += c.Count
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
	})
}

// ListSites godoc
// @Summary Supported sites
// @Description Site families the extractor recognises, and whether manual entry is recommended for them
// @Tags Jobs
// @Produce json
// @Success 200 {array} SiteInfo
// @Router /sites [get]
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	profiles := h.pipeline.Profiles().All()
	sites := make([]SiteInfo, 0, len(profiles))
	for _, p := range profiles {
		sites = append(sites, SiteInfo{
			Family:          p.Family,
			Label:           p.Label,
			Domains:         p.Domains,
			ManualEntryHint: p.ManualEntryHint,
		})
	}
	respondJSON(w, http.StatusOK, sites)
}

func respondStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "failed to update "+what)
}
