package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

type fakeStore struct {
	created []*model.JobRecord
	err     error
}

func (s *fakeStore) Create(_ context.Context, job *model.JobRecord) error {
	if s.err != nil {
		return s.err
	}
	job.ID = "job-1"
	s.created = append(s.created, job)
	return nil
}

func newTestExtractor(t *testing.T, srv *httptest.Server, opts ...Option) *Extractor {
	t.Helper()
	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)

	opts = append([]Option{WithLogger(quietLogger()), WithHTTPClient(srv.Client())}, opts...)
	e, err := New(catalog, config.ProxyConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/api/v1/",
		RequestTimeout: 5 * time.Second,
	}, opts...)
	require.NoError(t, err)
	return e
}

const linkedInPage = `<html><head><title>Acme hiring Backend Engineer | LinkedIn</title></head><body>
	<h1 class="top-card-layout__title">Backend   Engineer</h1>
	<a class="topcard__org-name-link">Acme Corp</a>
	<span class="topcard__flavor--bullet">Remote - India</span>
	<div class="show-more-less-html__markup">
		<p>We use React and Kubernetes daily.</p>
	</div>
</body></html>`

func TestExtract_LinkedInPosting(t *testing.T) {
	rec := &proxyRecorder{replies: []func(http.ResponseWriter){reply(200, linkedInPage)}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	job, err := newTestExtractor(t, srv).Extract(context.Background(), "https://www.linkedin.com/jobs/view/42")
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, "Remote - India", job.Location)
	assert.True(t, job.IsRemote)
	assert.Equal(t, "LinkedIn", job.Platform)
	assert.ElementsMatch(t, []string{"React", "Kubernetes"}, []string(job.ExtractedSkills))
	assert.Equal(t, 2, job.SkillsCount)
	assert.Equal(t, model.JobStatusApplied, job.Status)

	calls := rec.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "true", calls[0].Get("stealth_proxy"))
}

func TestExtract_GenericFallbackTitle(t *testing.T) {
	page := `<html><head><title>Senior Backend Engineer - Acme Corp - JobSite</title></head>
		<body><div class="job-location">Bangalore, India</div></body></html>`
	srv := httptest.NewServer(&proxyRecorder{replies: []func(http.ResponseWriter){reply(200, page)}})
	defer srv.Close()

	job, err := newTestExtractor(t, srv).Extract(context.Background(), "https://careers.acme.io/jobs/7")
	require.NoError(t, err)

	assert.Equal(t, "Senior Backend Engineer", job.Title)
	assert.Equal(t, "Bangalore, India", job.Location)
	assert.False(t, job.IsRemote)
	assert.Equal(t, "careers.acme.io", job.Platform)
	assert.Empty(t, job.ExtractedSkills)
}

func TestExtract_NoTitle(t *testing.T) {
	page := `<html><body><div>Menu</div><div>12345678901234</div></body></html>`
	srv := httptest.NewServer(&proxyRecorder{replies: []func(http.ResponseWriter){reply(200, page)}})
	defer srv.Close()

	job, err := newTestExtractor(t, srv).Extract(context.Background(), "https://careers.acme.io/jobs/7")
	assert.Nil(t, job)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, ReasonNoTitleResolved, extractErr.Reason)
}

func TestImport_DefendedSiteBlocked(t *testing.T) {
	// WHAT: Both fetch attempts fail for a heavily defended family.
	// WHY: The caller gets a blocked FetchError and nothing is stored.
	rec := &proxyRecorder{replies: []func(http.ResponseWriter){reply(500, ""), reply(500, "")}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	store := &fakeStore{}
	e := newTestExtractor(t, srv, WithJobStore(store))

	job, err := e.Import(context.Background(), "user-1", "https://www.linkedin.com/jobs/view/42")
	assert.Nil(t, job)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, ReasonBlocked, fetchErr.Reason)
	assert.Equal(t, model.FamilyProfessionalNetwork, fetchErr.Family)
	assert.Equal(t, 2, fetchErr.Attempts)
	assert.Len(t, rec.calls(), 2)
	assert.Empty(t, store.created)

	msg, manual := UserMessage(err)
	assert.True(t, manual)
	assert.Contains(t, msg, "LinkedIn")
}

func TestImport_Persists(t *testing.T) {
	srv := httptest.NewServer(&proxyRecorder{replies: []func(http.ResponseWriter){reply(200, linkedInPage)}})
	defer srv.Close()

	store := &fakeStore{}
	job, err := newTestExtractor(t, srv, WithJobStore(store)).Import(context.Background(), "user-1", "https://www.linkedin.com/jobs/view/42")
	require.NoError(t, err)

	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "user-1", job.UserID)
	require.Len(t, store.created, 1)
}

func TestImport_StoreFailure(t *testing.T) {
	srv := httptest.NewServer(&proxyRecorder{replies: []func(http.ResponseWriter){reply(200, linkedInPage)}})
	defer srv.Close()

	store := &fakeStore{err: errors.New("db down")}
	_, err := newTestExtractor(t, srv, WithJobStore(store)).Import(context.Background(), "user-1", "https://www.linkedin.com/jobs/view/42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestImport_NoStore(t *testing.T) {
	srv := httptest.NewServer(&proxyRecorder{})
	defer srv.Close()

	_, err := newTestExtractor(t, srv).Import(context.Background(), "user-1", "https://www.linkedin.com/jobs/view/42")
	assert.Error(t, err)
}

func TestExtract_InvalidURL(t *testing.T) {
	rec := &proxyRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()
	e := newTestExtractor(t, srv)

	for _, u := range []string{"", "linkedin.com/jobs/1", "ftp://example.com/job", "https://", "::::"} {
		_, err := e.Extract(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
	assert.Empty(t, rec.calls())
}

func TestNew_InvalidCatalog(t *testing.T) {
	catalog, err := config.ParseCatalog([]byte(strings.TrimSpace(`
families:
  - family: aggregator_a
    domains: [indeed.]
`)))
	require.NoError(t, err)

	_, err = New(catalog, config.ProxyConfig{})
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		manual bool
		substr string
	}{
		{"invalid url", ErrInvalidURL, false, "job posting link"},
		{"defended", &FetchError{Reason: ReasonBlocked, Platform: "Glassdoor", ManualEntryHint: true}, true, "Glassdoor"},
		{"timeout", &FetchError{Reason: ReasonTimeout}, false, "too long"},
		{"upstream", &FetchError{Reason: ReasonUpstreamError}, false, "try again later"},
		{"no title", &ExtractionError{Reason: ReasonNoTitleResolved}, false, "could not read this page"},
		{"other", errors.New("boom"), false, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, manual := UserMessage(tt.err)
			assert.Equal(t, tt.manual, manual)
			assert.Contains(t, msg, tt.substr)
		})
	}
}
