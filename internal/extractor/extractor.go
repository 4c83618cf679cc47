package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

// JobStore persists assembled records and fills in their ID.
type JobStore interface {
	Create(ctx context.Context, job *model.JobRecord) error
}

// Extractor turns a job posting URL into a JobRecord. It holds no per-call
// state and is safe for concurrent use.
type Extractor struct {
	profiles *ProfileTable
	fetcher  *Fetcher
	titles   *TitleResolver
	skills   *SkillTagger
	store    JobStore
	client   *http.Client
	logger   *slog.Logger
}

type Option func(*Extractor)

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithHTTPClient replaces the client used to call the scraping proxy.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

func WithJobStore(s JobStore) Option {
	return func(e *Extractor) { e.store = s }
}

// New builds an Extractor from the site catalog. Catalog problems such as a
// missing generic profile or an invalid locator are reported here.
func New(catalog *config.Catalog, proxy config.ProxyConfig, opts ...Option) (*Extractor, error) {
	profiles, err := catalog.Profiles()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	table, err := NewProfileTable(profiles)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	e := &Extractor{
		profiles: table,
		titles:   NewTitleResolver(catalog.BrandTokens, catalog.NoiseTokens, catalog.TitleMinLength),
		skills:   NewSkillTagger(catalog.Skills),
		client:   &http.Client{Timeout: proxy.RequestTimeout},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	e.fetcher = NewFetcher(e.client, proxy.BaseURL, proxy.APIKey, e.logger)

	return e, nil
}

func (e *Extractor) Profiles() *ProfileTable { return e.profiles }

func (e *Extractor) Skills() *SkillTagger { return e.skills }

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// Extract fetches the posting and assembles a record from it. Errors are
// ErrInvalidURL, *FetchError or *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*model.JobRecord, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	target := u.String()

	profile := e.profiles.Select(target)
	e.logger.Debug("extractor: profile selected", "url", target, "family", profile.Family)

	body, err := e.fetcher.Fetch(ctx, target, profile)
	if err != nil {
		return nil, err
	}

	return e.ExtractHTML(target, profile, body)
}

// ExtractHTML runs the parsing half of the pipeline on an already fetched
// page.
func (e *Extractor) ExtractHTML(sourceURL string, profile model.SiteProfile, body string) (*model.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	info := ExtractFields(doc, profile.Selectors)
	if info.Title == "" {
		info.Title = e.titles.Resolve(doc)
		if info.Title != "" {
			e.logger.Debug("extractor: title from fallback", "url", sourceURL, "title", info.Title)
		}
	}

	record, err := Assemble(info, e.skills.Tag(info.Description), sourceURL, profile)
	if err != nil {
		e.logger.Warn("extractor: no title resolved", "url", sourceURL, "family", profile.Family)
		return nil, err
	}
	return record, nil
}

// Import extracts the posting and stores it for userID.
func (e *Extractor) Import(ctx context.Context, userID, rawURL string) (*model.JobRecord, error) {
	if e.store == nil {
		return nil, errors.New("extractor: no job store configured")
	}

	record, err := e.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	record.UserID = userID

	if err := e.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	e.logger.Info("extractor: job imported", "id", record.ID, "platform", record.Platform, "skills", record.SkillsCount)
	return record, nil
}
