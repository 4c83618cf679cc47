package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

type TaskStatus string

const (
	TaskStatusEnabled  TaskStatus = "enabled"
	TaskStatusDisabled TaskStatus = "disabled"
	TaskStatusRunning  TaskStatus = "running"
)

// ImportTask is a saved batch of posting URLs that is imported on a cron
// schedule. URLs that were imported successfully are skipped on later runs.
type ImportTask struct {
	ID              string         `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Schedule        string         `json:"schedule" db:"schedule"` // Cron expression
	Status          TaskStatus     `json:"status" db:"status"`
	URLs            URLList        `json:"urls" db:"urls"`
	ExcludeKeywords pq.StringArray `json:"exclude_keywords" db:"exclude_keywords"`
	WebhookURL      string         `json:"-" db:"webhook_url"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty" db:"last_run_at"`
	NextRunAt       *time.Time     `json:"next_run_at,omitempty" db:"next_run_at"`
	CreatedBy       string         `json:"created_by" db:"created_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// URLList is stored as a JSONB array.
type URLList []string

func (u URLList) Value() (driver.Value, error) {
	if u == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(u)
}

func (u *URLList) Scan(value interface{}) error {
	if value == nil {
		*u = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, u)
}

type CreateImportTaskRequest struct {
	Name            string   `json:"name" validate:"required,min=3,max=100"`
	Schedule        string   `json:"schedule" validate:"required"`
	URLs            []string `json:"urls" validate:"required,min=1"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
	WebhookURL      string   `json:"webhook_url,omitempty"`
}

type UpdateImportTaskRequest struct {
	Name            *string     `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Schedule        *string     `json:"schedule,omitempty"`
	Status          *TaskStatus `json:"status,omitempty"`
	URLs            []string    `json:"urls,omitempty"`
	ExcludeKeywords []string    `json:"exclude_keywords,omitempty"`
	WebhookURL      *string     `json:"webhook_url,omitempty"`
}
