package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/requill-tracker/internal/model"
)

// JobRepository stores tracked job records. Every read and write is scoped to
// the owning user.
type JobRepository struct {
	db *Database
}

func NewJobRepository(db *Database) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, user_id, title, company, location, description, extracted_skills, source_url, platform,
	is_remote, salary, applicants, status, description_length, skills_count, notes, views, created_at, updated_at`

// Create assigns a new ID and bookkeeping timestamps, then inserts the record.
func (r *JobRepository) Create(ctx context.Context, job *model.JobRecord) error {
	if job.UserID == "" {
		return errors.New("job has no owner")
	}
	if job.Status == "" {
		job.Status = model.JobStatusApplied
	}
	if job.ExtractedSkills == nil {
		job.ExtractedSkills = []string{}
	}

	now := time.Now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (:id, :user_id, :title, :company, :location, :description, :extracted_skills, :source_url, :platform,
			:is_remote, :salary, :applicants, :status, :description_length, :skills_count, :notes, :views, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, userID, id string) (*model.JobRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var job model.JobRecord
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &job, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *JobRepository) FindByUser(ctx context.Context, filter model.JobFilter) ([]model.JobRecord, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Remote != nil {
		args = append(args, *filter.Remote)
		conds = append(conds, fmt.Sprintf("is_remote = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	jobs := []model.JobRecord{}
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find jobs: %w", err)
	}
	return jobs, nil
}

// ExistsBySource reports whether the user already tracks a job from this URL.
func (r *JobRepository) ExistsBySource(ctx context.Context, userID, sourceURL string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM jobs WHERE user_id = $1 AND source_url = $2`
	if err := r.db.GetContext(ctx, &count, query, userID, sourceURL); err != nil {
		return false, fmt.Errorf("failed to check job source: %w", err)
	}
	return count > 0, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, userID, id string, status model.JobStatus) error {
	return r.update(ctx, userID, id, "status", status)
}

func (r *JobRepository) UpdateNotes(ctx context.Context, userID, id, notes string) error {
	return r.update(ctx, userID, id, "notes", notes)
}

func (r *JobRepository) update(ctx context.Context, userID, id, column string, value interface{}) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	query := fmt.Sprintf(`UPDATE jobs SET %s = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`, column)
	result, err := r.db.ExecContext(ctx, query, value, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", column, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) IncrementViews(ctx context.Context, userID, id string) error {
	query := `UPDATE jobs SET views = views + 1 WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}

func (r *JobRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	query := `DELETE FROM jobs WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepository) CountByStatus(ctx context.Context, userID string) ([]model.JobStatusCount, error) {
	counts := []model.JobStatusCount{}
	query := `SELECT status, COUNT(*) AS count FROM jobs WHERE user_id = $1 GROUP BY status ORDER BY status`
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	return counts, nil
}
