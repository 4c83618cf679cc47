package scheduler

import (
	"strings"

	"github.com/requill-tracker/internal/model"
)

// MatchExcluded returns the first exclude keyword found in the job's title,
// company, location or description, or "" when none matches. Matching is a
// case-insensitive substring test.
func MatchExcluded(job *model.JobRecord, keywords []string) string {
	if job == nil || len(keywords) == 0 {
		return ""
	}

	text := strings.ToLower(strings.Join([]string{job.Title, job.Company, job.Location, job.Description}, " "))
	for _, keyword := range keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			return keyword
		}
	}
	return ""
}
