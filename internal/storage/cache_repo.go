package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// URLCacheRepository remembers which posting URLs an import task has already
// turned into job records.
type URLCacheRepository struct {
	db *Database
}

func NewURLCacheRepository(db *Database) *URLCacheRepository {
	return &URLCacheRepository{db: db}
}

// NormalizeURL lowercases scheme and host and drops the fragment and a
// trailing slash so trivially different links share a cache entry.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}

// HashURL is the SHA-256 of the normalized URL.
func HashURL(raw string) string {
	hash := sha256.Sum256([]byte(NormalizeURL(raw)))
	return hex.EncodeToString(hash[:])
}

func (r *URLCacheRepository) SeenForTask(ctx context.Context, taskID, rawURL string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM url_cache WHERE url_hash = $1 AND task_id = $2`
	err := r.db.GetContext(ctx, &count, query, HashURL(rawURL), taskID)
	if err != nil {
		return false, fmt.Errorf("failed to check url cache: %w", err)
	}
	return count > 0, nil
}

// MarkImported records a successful import. jobID may be empty when the
// posting was filtered out rather than stored.
func (r *URLCacheRepository) MarkImported(ctx context.Context, taskID, rawURL, jobID string) error {
	query := `
		INSERT INTO url_cache (url_hash, url, job_id, task_id)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4)
		ON CONFLICT (url_hash, task_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, HashURL(rawURL), NormalizeURL(rawURL), jobID, taskID)
	if err != nil {
		return fmt.Errorf("failed to add to url cache: %w", err)
	}
	return nil
}

// FilterNew returns the URLs the task has not imported yet, in input order.
func (r *URLCacheRepository) FilterNew(ctx context.Context, taskID string, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	var fresh []string
	for _, u := range urls {
		seen, err := r.SeenForTask(ctx, taskID, u)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, u)
		}
	}
	return fresh, nil
}

func (r *URLCacheRepository) CleanOld(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM url_cache WHERE created_at < $1`
	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to clean old url cache: %w", err)
	}
	return result.RowsAffected()
}

func (r *URLCacheRepository) CleanByTask(ctx context.Context, taskID string) error {
	query := `DELETE FROM url_cache WHERE task_id = $1`
	_, err := r.db.ExecContext(ctx, query, taskID)
	return err
}
