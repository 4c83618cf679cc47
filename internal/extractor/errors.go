package extractor

import (
	"errors"
	"fmt"

	"github.com/requill-tracker/internal/model"
)

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid job posting url")

type FetchReason string

const (
	ReasonBlocked       FetchReason = "blocked"
	ReasonTimeout       FetchReason = "timeout"
	ReasonUpstreamError FetchReason = "upstream_error"
)

// FetchError is returned when both the primary and the degraded proxy
// request failed.
type FetchError struct {
	Reason          FetchReason
	Family          model.SiteFamily
	Platform        string
	ManualEntryHint bool
	StatusCode      int // last proxy status, 0 for transport errors
	Attempts        int
	Err             error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch failed (%s) for %s after %d attempt(s)", e.Reason, e.Family, e.Attempts)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

type ExtractionReason string

const ReasonNoTitleResolved ExtractionReason = "no_title_resolved"

// ExtractionError is returned when a page was fetched but no usable record
// could be built from it.
type ExtractionError struct {
	Reason ExtractionReason
	URL    string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s) for %s", e.Reason, e.URL)
}

// UserMessage translates a pipeline error into text suitable for end users.
// manualEntry reports whether the user should be pointed at manual entry.
func UserMessage(err error) (msg string, manualEntry bool) {
	var fetchErr *FetchError
	var extractErr *ExtractionError

	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrInvalidURL):
		return "That does not look like a job posting link. Please paste the full http(s) URL.", false
	case errors.As(err, &fetchErr):
		if fetchErr.ManualEntryHint {
			name := fetchErr.Platform
			if name == "" {
				name = "This site"
			}
			return fmt.Sprintf("%s blocks automated reading of job pages. Please add this job manually.", name), true
		}
		if fetchErr.Reason == ReasonTimeout {
			return "The job page took too long to load. Please try again later.", false
		}
		return "We could not reach this job page right now. Please try again later.", false
	case errors.As(err, &extractErr):
		return "We could not read this page. You can still add the job manually.", false
	}
	return "Something went wrong while importing this job.", false
}
