package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/middleware"
	"github.com/requill-tracker/internal/model"
	"github.com/requill-tracker/internal/storage"
)

const postingPage = `<html><head><title>Platform Engineer - Acme</title></head><body>
	<h1>Platform Engineer</h1>
	<div class="company">Acme Corp</div>
	<div class="location">Remote (EU)</div>
	<div class="description"><p>Run Kubernetes clusters and write Python tooling.</p></div>
</body></html>`

// proxyStub answers like the scraping proxy: 403 for any target containing
// "linkedin", the posting page otherwise.
func proxyStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("url"), "linkedin") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		io.WriteString(w, postingPage)
	}))
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*model.JobRecord
	seq  int
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[string]*model.JobRecord{}} }

func (m *memJobs) Create(_ context.Context, job *model.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) FindByID(_ context.Context, userID, id string) (*model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.UserID != userID {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) FindByUser(_ context.Context, f model.JobFilter) ([]model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.JobRecord
	for _, j := range m.jobs {
		if j.UserID != f.UserID || (f.Status != "" && j.Status != f.Status) {
			continue
		}
		if f.Remote != nil && j.IsRemote != *f.Remote {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func (m *memJobs) ExistsBySource(_ context.Context, userID, sourceURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.UserID == userID && j.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memJobs) update(userID, id string, fn func(*model.JobRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.UserID != userID {
		return storage.ErrNotFound
	}
	fn(j)
	return nil
}

func (m *memJobs) UpdateStatus(_ context.Context, userID, id string, status model.JobStatus) error {
	return m.update(userID, id, func(j *model.JobRecord) { j.Status = status })
}

func (m *memJobs) UpdateNotes(_ context.Context, userID, id, notes string) error {
	return m.update(userID, id, func(j *model.JobRecord) { j.Notes = notes })
}

func (m *memJobs) IncrementViews(_ context.Context, userID, id string) error {
	return m.update(userID, id, func(j *model.JobRecord) { j.Views++ })
}

func (m *memJobs) Delete(_ context.Context, userID, id string) error {
	if err := m.update(userID, id, func(*model.JobRecord) {}); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
	return nil
}

func (m *memJobs) CountByStatus(_ context.Context, userID string) ([]model.JobStatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.JobStatus]int{}
	for _, j := range m.jobs {
		if j.UserID == userID {
			counts[j.Status]++
		}
	}
	var out []model.JobStatusCount
	for st, n := range counts {
		out = append(out, model.JobStatusCount{Status: st, Count: n})
	}
	return out, nil
}

type stubLock struct{ held map[string]bool }

func (l *stubLock) Acquire(_ context.Context, userID, rawURL string) (bool, error) {
	key := userID + "|" + rawURL
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *stubLock) Release(_ context.Context, userID, rawURL string) error {
	delete(l.held, userID+"|"+rawURL)
	return nil
}

type testEnv struct {
	h    *Handler
	jobs *memJobs
	lock *stubLock
	auth *middleware.AuthMiddleware
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := proxyStub()
	t.Cleanup(srv.Close)

	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)

	jobs := newMemJobs()
	ext, err := extractor.New(catalog, config.ProxyConfig{
		APIKey:         "k",
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
	},
		extractor.WithHTTPClient(srv.Client()),
		extractor.WithJobStore(jobs),
		extractor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	env := &testEnv{
		jobs: jobs,
		lock: &stubLock{held: map[string]bool{}},
		auth: middleware.NewAuthMiddleware(config.JWTConfig{Secret: "s3cret", ExpirationHours: 1}, nil),
	}
	env.h = NewHandler(Deps{
		Jobs:           jobs,
		Tasks:          newMemTasks(),
		Executions:     &memExecs{},
		Pipeline:       ext,
		Lock:           env.lock,
		Scheduler:      &stubScheduler{},
		Auth:           env.auth,
		ExtractTimeout: 10 * time.Second,
	})
	return env
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), &model.TokenClaims{UserID: userID, Role: model.UserRoleUser}))
}

func doJSON(t *testing.T, fn http.HandlerFunc, method, target, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req = asUser(req, userID)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestExtractJob_SavesRecord(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.ExtractJob, http.MethodPost, "/api/v1/jobs/extract", "user-1",
		model.ExtractJobRequest{URL: "https://careers.acme.test/jobs/7"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	job := decode[model.JobRecord](t, rec)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "user-1", job.UserID)
	assert.Equal(t, "careers.acme.test", job.Platform)
	assert.True(t, job.IsRemote)
	assert.Nil(t, job.Salary)
	assert.Len(t, env.jobs.jobs, 1)
	assert.Empty(t, env.lock.held, "lock released")

	// Importing the same posting again is a conflict.
	rec = doJSON(t, env.h.ExtractJob, http.MethodPost, "/api/v1/jobs/extract", "user-1",
		model.ExtractJobRequest{URL: "https://careers.acme.test/jobs/7"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExtractJob_InFlight(t *testing.T) {
	env := newTestEnv(t)
	env.lock.held["user-1|https://careers.acme.test/jobs/7"] = true

	rec := doJSON(t, env.h.ExtractJob, http.MethodPost, "/api/v1/jobs/extract", "user-1",
		model.ExtractJobRequest{URL: "https://careers.acme.test/jobs/7"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already being imported")
	assert.Empty(t, env.jobs.jobs)
}

func TestExtractJob_DefendedSite(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.ExtractJob, http.MethodPost, "/api/v1/jobs/extract", "user-1",
		model.ExtractJobRequest{URL: "https://www.linkedin.com/jobs/view/1"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ExtractionErrorResponse](t, rec)
	assert.Equal(t, "blocked", resp.Reason)
	assert.True(t, resp.ManualEntry)
	assert.Contains(t, resp.Error, "LinkedIn")
	assert.Empty(t, env.jobs.jobs)
}

func TestExtractJob_InvalidURL(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.ExtractJob, http.MethodPost, "/api/v1/jobs/extract", "user-1",
		model.ExtractJobRequest{URL: "ftp://example.com/job"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_url", decode[ExtractionErrorResponse](t, rec).Reason)
}

func TestPreviewJob_DoesNotSave(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.PreviewJob, http.MethodPost, "/api/v1/jobs/preview", "user-1",
		model.ExtractJobRequest{URL: "https://careers.acme.test/jobs/7"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Platform Engineer", decode[model.JobRecord](t, rec).Title)
	assert.Empty(t, env.jobs.jobs)
}

func TestRespondExtractionError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
		manual bool
	}{
		{"invalid url", fmt.Errorf("%w: x", extractor.ErrInvalidURL), http.StatusBadRequest, "invalid_url", false},
		{"blocked", &extractor.FetchError{Reason: extractor.ReasonBlocked, ManualEntryHint: true, Platform: "Indeed"}, http.StatusUnprocessableEntity, "blocked", true},
		{"timeout", &extractor.FetchError{Reason: extractor.ReasonTimeout}, http.StatusGatewayTimeout, "timeout", false},
		{"upstream", &extractor.FetchError{Reason: extractor.ReasonUpstreamError}, http.StatusBadGateway, "upstream_error", false},
		{"no title", &extractor.ExtractionError{Reason: extractor.ReasonNoTitleResolved}, http.StatusUnprocessableEntity, "no_title_resolved", false},
		{"other", fmt.Errorf("failed to save job: %w", io.ErrUnexpectedEOF), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondExtractionError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			resp := decode[ExtractionErrorResponse](t, rec)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.Equal(t, tt.manual, resp.ManualEntry)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateJob_Manual(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.CreateJob, http.MethodPost, "/api/v1/jobs", "user-1", model.CreateJobRequest{
		Title:       "  <b>Data</b>   Engineer ",
		Company:     "AT&T",
		Location:    "Remote, US",
		Description: "<script>alert(1)</script>Spark and Python pipelines",
		SourceURL:   "https://in.indeed.com/viewjob?jk=1",
		Notes:       "Referred by Sam\nFollow up Friday",
		Status:      "saved",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	job := decode[model.JobRecord](t, rec)
	assert.Equal(t, "Data Engineer", job.Title)
	assert.Equal(t, "AT&T", job.Company)
	assert.NotContains(t, job.Description, "script")
	assert.True(t, job.IsRemote)
	assert.Equal(t, "Indeed", job.Platform)
	assert.Equal(t, model.JobStatusSaved, job.Status)
	assert.Contains(t, []string(job.ExtractedSkills), "Python")
	assert.Equal(t, len(job.ExtractedSkills), job.SkillsCount)
	assert.Equal(t, "Referred by Sam\nFollow up Friday", job.Notes)
}

func TestCreateJob_Validation(t *testing.T) {
	env := newTestEnv(t)
	negative := -1.0

	tests := []struct {
		name string
		req  model.CreateJobRequest
	}{
		{"missing title", model.CreateJobRequest{Title: "<i></i>"}},
		{"bad status", model.CreateJobRequest{Title: "Engineer", Status: "ghosted"}},
		{"bad url", model.CreateJobRequest{Title: "Engineer", SourceURL: "not a url"}},
		{"negative salary", model.CreateJobRequest{Title: "Engineer", Salary: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, env.h.CreateJob, http.MethodPost, "/api/v1/jobs", "user-1", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestJobLifecycle_ThroughRouter(t *testing.T) {
	env := newTestEnv(t)
	router := NewRouter(env.h, env.auth)

	token, _, err := env.auth.GenerateToken(&model.User{ID: "user-1", Email: "a@b.test", Role: model.UserRoleUser})
	require.NoError(t, err)

	call := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := call(http.MethodPost, "/api/v1/jobs", model.CreateJobRequest{Title: "Backend Engineer", Location: "Pune"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.JobRecord](t, rec).ID

	rec = call(http.MethodGet, "/api/v1/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.JobRecord](t, rec).Views)

	status := "interviewing"
	rec = call(http.MethodPatch, "/api/v1/jobs/"+id, model.UpdateJobRequest{Status: &status})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.JobStatusInterviewing, decode[model.JobRecord](t, rec).Status)

	rec = call(http.MethodGet, "/api/v1/jobs?status=interviewing&remote=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Jobs []model.JobRecord `json:"jobs"`
	}](t, rec)
	assert.Len(t, list.Jobs, 1)

	rec = call(http.MethodGet, "/api/v1/jobs/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Total    int                     `json:"total"`
		ByStatus map[model.JobStatus]int `json:"by_status"`
	}](t, rec)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[model.JobStatusInterviewing])

	rec = call(http.MethodDelete, "/api/v1/jobs/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(http.MethodDelete, "/api/v1/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(http.MethodGet, "/api/v1/jobs?status=ghosted", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No credentials.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	unauth := httptest.NewRecorder()
	router.ServeHTTP(unauth, req)
	assert.Equal(t, http.StatusUnauthorized, unauth.Code)
}

func TestUpdateJob_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.UpdateJob, http.MethodPatch, "/api/v1/jobs/x", "user-1", model.UpdateJobRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := "pending"
	rec = doJSON(t, env.h.UpdateJob, http.MethodPatch, "/api/v1/jobs/x", "user-1", model.UpdateJobRequest{Status: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSites(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.h.ListSites, http.MethodGet, "/api/v1/sites", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sites := decode[[]SiteInfo](t, rec)
	require.Len(t, sites, len(model.KnownFamilies))
	assert.Equal(t, model.FamilyProfessionalNetwork, sites[0].Family)
	assert.True(t, sites[0].ManualEntryHint)
	assert.Equal(t, model.FamilyGeneric, sites[len(sites)-1].Family)
}

func TestPagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=10&offset=20", nil)
	limit, offset := pagination(r, 50)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	r = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=abc", nil)
	limit, offset = pagination(r, 50)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, isValidEmail("dev@requill.test"))
	assert.False(t, isValidEmail("dev@localhost"))
	assert.False(t, isValidEmail("@requill.test"))
	assert.False(t, isValidEmail("a@b@c.test"))
}

func httptestRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
