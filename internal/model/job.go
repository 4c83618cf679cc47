package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type JobStatus string

const (
	JobStatusSaved        JobStatus = "saved"
	JobStatusApplied      JobStatus = "applied"
	JobStatusInterviewing JobStatus = "interviewing"
	JobStatusOffer        JobStatus = "offer"
	JobStatusRejected     JobStatus = "rejected"
	JobStatusWithdrawn    JobStatus = "withdrawn"
)

// ParseJobStatus converts a raw string to a JobStatus, returning an error for
// unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case JobStatusSaved, JobStatusApplied, JobStatusInterviewing,
		JobStatusOffer, JobStatusRejected, JobStatusWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// JobRecord is a tracked job posting. Records produced by the extraction
// pipeline never carry a salary or applicant count.
type JobRecord struct {
	ID                string         `json:"id" db:"id"`
	UserID            string         `json:"user_id" db:"user_id"`
	Title             string         `json:"title" db:"title"`
	Company           string         `json:"company" db:"company"`
	Location          string         `json:"location" db:"location"`
	Description       string         `json:"description" db:"description"`
	ExtractedSkills   pq.StringArray `json:"extracted_skills" db:"extracted_skills"`
	SourceURL         string         `json:"source_url" db:"source_url"`
	Platform          string         `json:"platform" db:"platform"`
	IsRemote          bool           `json:"is_remote" db:"is_remote"`
	Salary            *float64       `json:"salary" db:"salary"`
	Applicants        *int           `json:"applicants" db:"applicants"`
	Status            JobStatus      `json:"status" db:"status"`
	DescriptionLength int            `json:"description_length" db:"description_length"`
	SkillsCount       int            `json:"skills_count" db:"skills_count"`
	Notes             string         `json:"notes,omitempty" db:"notes"`
	Views             int            `json:"views" db:"views"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// ExtractedJobInfo holds the raw field values resolved from a posting page.
// Any field may be empty.
type ExtractedJobInfo struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
}

type JobFilter struct {
	UserID string
	Status JobStatus
	Remote *bool
	Limit  int
	Offset int
}

type ExtractJobRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type CreateJobRequest struct {
	Title       string   `json:"title" validate:"required"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	SourceURL   string   `json:"source_url"`
	Platform    string   `json:"platform"`
	Salary      *float64 `json:"salary,omitempty"`
	Applicants  *int     `json:"applicants,omitempty"`
	Status      string   `json:"status,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type UpdateJobRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// JobStatusCount is one row of the per-status breakdown.
type JobStatusCount struct {
	Status JobStatus `json:"status" db:"status"`
	Count  int       `json:"count" db:"count"`
}
