package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/requill-tracker/internal/model"
)

type ImportTaskRepository struct {
	db *Database
}

func NewImportTaskRepository(db *Database) *ImportTaskRepository {
	return &ImportTaskRepository{db: db}
}

const taskColumns = `id, name, schedule, status, urls, exclude_keywords, webhook_url, last_run_at, next_run_at, created_by, created_at, updated_at`

func (r *ImportTaskRepository) Create(ctx context.Context, req *model.CreateImportTaskRequest, userID string) (*model.ImportTask, error) {
	var task model.ImportTask
	query := `
		INSERT INTO import_tasks (name, schedule, urls, exclude_keywords, webhook_url, created_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns
	err := r.db.QueryRowxContext(ctx, query,
		req.Name, req.Schedule, model.URLList(req.URLs), pq.StringArray(req.ExcludeKeywords),
		req.WebhookURL, userID, model.TaskStatusEnabled,
	).StructScan(&task)
	if err != nil {
		return nil, fmt.Errorf("failed to create import task: %w", err)
	}

	return &task, nil
}

func (r *ImportTaskRepository) FindByID(ctx context.Context, id string) (*model.ImportTask, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var task model.ImportTask
	query := `SELECT ` + taskColumns + ` FROM import_tasks WHERE id = $1`
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find import task: %w", err)
	}
	return &task, nil
}

func (r *ImportTaskRepository) FindByOwner(ctx context.Context, userID string, limit, offset int) ([]model.ImportTask, error) {
	tasks := []model.ImportTask{}
	query := `
		SELECT ` + taskColumns + ` FROM import_tasks
		WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &tasks, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find import tasks: %w", err)
	}
	return tasks, nil
}

func (r *ImportTaskRepository) FindEnabled(ctx context.Context) ([]model.ImportTask, error) {
	var tasks []model.ImportTask
	query := `SELECT ` + taskColumns + ` FROM import_tasks WHERE status = $1`
	err := r.db.SelectContext(ctx, &tasks, query, model.TaskStatusEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to find enabled import tasks: %w", err)
	}
	return tasks, nil
}

func (r *ImportTaskRepository) Update(ctx context.Context, id string, req *model.UpdateImportTaskRequest) (*model.ImportTask, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Schedule != nil {
		task.Schedule = *req.Schedule
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.URLs != nil {
		task.URLs = req.URLs
	}
	if req.ExcludeKeywords != nil {
		task.ExcludeKeywords = req.ExcludeKeywords
	}
	if req.WebhookURL != nil {
		task.WebhookURL = *req.WebhookURL
	}

	query := `
		UPDATE import_tasks
		SET name = $1, schedule = $2, status = $3, urls = $4, exclude_keywords = $5, webhook_url = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + taskColumns
	err = r.db.QueryRowxContext(ctx, query,
		task.Name, task.Schedule, task.Status, task.URLs, task.ExcludeKeywords, task.WebhookURL, time.Now(), id,
	).StructScan(task)
	if err != nil {
		return nil, fmt.Errorf("failed to update import task: %w", err)
	}

	return task, nil
}

func (r *ImportTaskRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM import_tasks WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete import task: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ImportTaskRepository) UpdateLastRun(ctx context.Context, id string, lastRun time.Time) error {
	query := `UPDATE import_tasks SET last_run_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, lastRun, time.Now(), id)
	return err
}

func (r *ImportTaskRepository) UpdateNextRun(ctx context.Context, id string, nextRun time.Time) error {
	query := `UPDATE import_tasks SET next_run_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, nextRun, time.Now(), id)
	return err
}

func (r *ImportTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) error {
	query := `UPDATE import_tasks SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}
