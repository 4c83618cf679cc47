package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/requill-tracker/internal/model"
)

const (
	maxBodyBytes      = 10 << 20
	maxErrorBodyBytes = 64 << 10
	degradedWaitMs    = 1000
)

var blockMarkers = []string{
	"captcha",
	"access denied",
	"are you a robot",
	"unusual traffic",
	"request blocked",
}

// DegradedProxyConfig is used for the single retry after the primary request
// fails: no rendering, basic tier, short wait, no geo routing.
func DegradedProxyConfig() model.ProxyConfig {
	return model.ProxyConfig{
		RenderJS: false,
		Tier:     model.ProxyTierBasic,
		WaitMs:   degradedWaitMs,
		BlockAds: true,
	}
}

// Fetcher retrieves rendered pages through the scraping proxy.
type Fetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewFetcher(client *http.Client, baseURL, apiKey string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, baseURL: baseURL, apiKey: apiKey, logger: logger}
}

type attemptResult struct {
	status   int
	timedOut bool
	blocked  bool
	err      error
}

// Fetch returns the page HTML. The primary request uses the profile's proxy
// config; on any failure exactly one degraded request follows. Requests are
// never issued concurrently.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, profile model.SiteProfile) (string, error) {
	configs := []model.ProxyConfig{profile.Proxy, DegradedProxyConfig()}

	var results []attemptResult
	for i, pc := range configs {
		body, res := f.attempt(ctx, targetURL, pc)
		if res.err == nil {
			if i > 0 {
				f.logger.Info("extractor: degraded fetch succeeded", "family", profile.Family, "url", targetURL)
			}
			return body, nil
		}
		results = append(results, res)
		f.logger.Warn("extractor: fetch attempt failed",
			"family", profile.Family, "attempt", i+1, "status", res.status, "error", res.err)

		if ctx.Err() != nil {
			break
		}
	}

	return "", classify(results, profile)
}

func (f *Fetcher) attempt(ctx context.Context, targetURL string, pc model.ProxyConfig) (string, attemptResult) {
	reqURL, err := f.requestURL(targetURL, pc)
	if err != nil {
		return "", attemptResult{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", attemptResult{err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		timedOut := isTimeout(ctx, err)
		// url.Error carries the proxy URL, api_key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", attemptResult{err: fmt.Errorf("request failed: %w", err), timedOut: timedOut}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		f.logger.Debug("extractor: proxy error body", "status", resp.StatusCode, "body", truncate(string(snippet), 500))
		return "", attemptResult{
			status:   resp.StatusCode,
			timedOut: resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout,
			blocked:  isBlockStatus(resp.StatusCode) || hasBlockMarker(string(snippet)),
			err:      fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", attemptResult{status: resp.StatusCode, err: fmt.Errorf("failed to read response: %w", err), timedOut: isTimeout(ctx, err)}
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", attemptResult{status: resp.StatusCode, err: errors.New("empty response body")}
	}
	return string(body), attemptResult{status: resp.StatusCode}
}

func (f *Fetcher) requestURL(targetURL string, pc model.ProxyConfig) (string, error) {
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid proxy base url: %w", err)
	}

	q := base.Query()
	q.Set("api_key", f.apiKey)
	q.Set("url", targetURL)
	q.Set("render_js", strconv.FormatBool(pc.RenderJS))
	q.Set("premium_proxy", strconv.FormatBool(pc.Tier == model.ProxyTierPremium))
	q.Set("stealth_proxy", strconv.FormatBool(pc.Tier == model.ProxyTierStealth))
	q.Set("wait", strconv.Itoa(pc.WaitMs))
	if pc.CountryCode != nil {
		q.Set("country_code", *pc.CountryCode)
	}
	q.Set("block_ads", strconv.FormatBool(pc.BlockAds))
	base.RawQuery = q.Encode()

	return base.String(), nil
}

func classify(results []attemptResult, profile model.SiteProfile) *FetchError {
	last := results[len(results)-1]
	fe := &FetchError{
		Reason:          ReasonUpstreamError,
		Family:          profile.Family,
		Platform:        profile.Label,
		ManualEntryHint: profile.ManualEntryHint,
		StatusCode:      last.status,
		Attempts:        len(results),
		Err:             last.err,
	}

	blocked := false
	for _, r := range results {
		blocked = blocked || r.blocked
	}

	// Defended families report blocked whatever the last attempt did.
	switch {
	case profile.ManualEntryHint:
		fe.Reason = ReasonBlocked
	case last.timedOut:
		fe.Reason = ReasonTimeout
	case blocked:
		fe.Reason = ReasonBlocked
	}
	return fe
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isBlockStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusTooManyRequests
}

func hasBlockMarker(body string) bool {
	return containsAny(strings.ToLower(body), blockMarkers)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
