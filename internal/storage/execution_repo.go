package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/requill-tracker/internal/model"
)

type ExecutionRepository struct {
	db *Database
}

func NewExecutionRepository(db *Database) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

const executionColumns = `id, task_id, task_name, status, started_at, finished_at, duration_ms, imported, step_results, error, triggered_by`

func (r *ExecutionRepository) Create(ctx context.Context, taskID, taskName, triggeredBy string) (*model.Execution, error) {
	var execution model.Execution
	query := `
		INSERT INTO executions (task_id, task_name, status, triggered_by, step_results)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + executionColumns
	err := r.db.QueryRowxContext(ctx, query, taskID, taskName, model.ExecutionStatusRunning, triggeredBy, model.StepResults{}).
		StructScan(&execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) FindByID(ctx context.Context, id string) (*model.Execution, error) {
	var execution model.Execution
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`
	err := r.db.GetContext(ctx, &execution, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find execution: %w", err)
	}
	return &execution, nil
}

func (r *ExecutionRepository) FindByTaskID(ctx context.Context, taskID string, limit, offset int) ([]model.Execution, error) {
	executions := []model.Execution{}
	query := `
		SELECT ` + executionColumns + ` FROM executions WHERE task_id = $1
		ORDER BY started_at DESC LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &executions, query, taskID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find executions: %w", err)
	}
	return executions, nil
}

func (r *ExecutionRepository) Complete(ctx context.Context, id string, results model.StepResults, imported int) error {
	return r.finish(ctx, id, model.ExecutionStatusCompleted, results, imported, nil)
}

func (r *ExecutionRepository) Fail(ctx context.Context, id string, results model.StepResults, imported int, errMsg string) error {
	return r.finish(ctx, id, model.ExecutionStatusFailed, results, imported, &errMsg)
}

func (r *ExecutionRepository) finish(ctx context.Context, id string, status model.ExecutionStatus, results model.StepResults, imported int, errMsg *string) error {
	now := time.Now()
	exec, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var duration int64
	if exec != nil {
		duration = now.Sub(exec.StartedAt).Milliseconds()
	}

	query := `
		UPDATE executions
		SET status = $1, finished_at = $2, duration_ms = $3, step_results = $4, imported = $5, error = $6
		WHERE id = $7
	`
	_, err = r.db.ExecContext(ctx, query, status, now, duration, results, imported, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finish execution: %w", err)
	}
	return nil
}

func (r *ExecutionRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM executions WHERE started_at < $1`
	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
