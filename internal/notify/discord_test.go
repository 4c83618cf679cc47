package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

func sampleJobs(n int) []model.JobRecord {
	jobs := make([]model.JobRecord, n)
	for i := range jobs {
		jobs[i] = model.JobRecord{
			Title:           fmt.Sprintf("Engineer %d", i),
			Company:         "Acme",
			Location:        "Pune",
			IsRemote:        i%2 == 0,
			SourceURL:       fmt.Sprintf("https://example.com/jobs/%d", i),
			Platform:        "LinkedIn",
			ExtractedSkills: []string{"Go", "SQL"},
		}
	}
	return jobs
}

func TestNotifyImported_PostsEmbeds(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(config.DiscordConfig{})
	err := n.NotifyImported(context.Background(), srv.URL, "Weekly boards", sampleJobs(12))
	require.NoError(t, err)

	assert.Len(t, got.Embeds, 10)
	assert.Contains(t, got.Content, "12 new job(s)")
	assert.Contains(t, got.Content, "showing first 10")

	first := got.Embeds[0]
	assert.Equal(t, "Engineer 0", first.Title)
	assert.Equal(t, "https://example.com/jobs/0", first.URL)
	require.NotNil(t, first.Footer)
	assert.Equal(t, "LinkedIn", first.Footer.Text)
	require.Len(t, first.Fields, 3)
	assert.Equal(t, "Pune (remote)", first.Fields[1].Value)
	assert.Equal(t, "Go, SQL", first.Fields[2].Value)
}

func TestNotifyImported_FallsBackToDefaultWebhook(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	n := NewDiscordNotifier(config.DiscordConfig{DefaultWebhook: srv.URL})
	require.NoError(t, n.NotifyImported(context.Background(), "", "task", sampleJobs(1)))
	assert.Equal(t, 1, hits)
}

func TestNotifyImported_NoWebhook(t *testing.T) {
	n := NewDiscordNotifier(config.DiscordConfig{})
	assert.ErrorIs(t, n.NotifyImported(context.Background(), "", "task", sampleJobs(1)), ErrNoWebhook)

	// Nothing to say, nothing to send.
	assert.NoError(t, n.NotifyImported(context.Background(), "", "task", nil))
}

func TestNotifyImported_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid Form Body"}`))
	}))
	defer srv.Close()

	n := NewDiscordNotifier(config.DiscordConfig{})
	err := n.NotifyImported(context.Background(), srv.URL, "task", sampleJobs(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "ééé...", truncate(strings.Repeat("é", 20), 6))
}

func TestMaskWebhook(t *testing.T) {
	assert.Equal(t, "***", MaskWebhook("https://x.test/abc"))
	masked := MaskWebhook("https://discord.com/api/webhooks/1234/secret-token")
	assert.True(t, strings.HasSuffix(masked, "***"))
	assert.NotContains(t, masked, "secret-token")
}
