package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://WWW.LinkedIn.com/jobs/view/42/", "https://www.linkedin.com/jobs/view/42"},
		{"https://example.com/job#apply", "https://example.com/job"},
		{"  https://example.com/job?id=7  ", "https://example.com/job?id=7"},
		{"https://example.com/", "https://example.com/"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

func TestHashURL(t *testing.T) {
	a := HashURL("https://Example.com/job/1/")
	b := HashURL("https://example.com/job/1#top")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashURL("https://example.com/job/2"))
}

func TestURLLock_NoClient(t *testing.T) {
	lock := NewURLLock(nil, 0)

	ok, err := lock.Acquire(context.Background(), "user-1", "https://example.com/job")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, lock.Release(context.Background(), "user-1", "https://example.com/job"))

	var nilLock *URLLock
	ok, err = nilLock.Acquire(context.Background(), "user-1", "https://example.com/job")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockKey(t *testing.T) {
	assert.Equal(t,
		lockKey("u1", "https://example.com/job/"),
		lockKey("u1", "https://EXAMPLE.com/job"))
	assert.NotEqual(t, lockKey("u1", "https://example.com/job"), lockKey("u2", "https://example.com/job"))
}
