package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/model"
)

// Extractor is the part of the extraction pipeline the runner needs.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*model.JobRecord, error)
}

type JobStore interface {
	Create(ctx context.Context, job *model.JobRecord) error
	ExistsBySource(ctx context.Context, userID, sourceURL string) (bool, error)
}

// URLCache remembers which URLs a task already imported.
type URLCache interface {
	SeenForTask(ctx context.Context, taskID, rawURL string) (bool, error)
	MarkImported(ctx context.Context, taskID, rawURL, jobID string) error
}

type ExecutionStore interface {
	Create(ctx context.Context, taskID, taskName, triggeredBy string) (*model.Execution, error)
	FindByID(ctx context.Context, id string) (*model.Execution, error)
	Complete(ctx context.Context, id string, results model.StepResults, imported int) error
	Fail(ctx context.Context, id string, results model.StepResults, imported int, errMsg string) error
}

type TaskStore interface {
	FindByID(ctx context.Context, id string) (*model.ImportTask, error)
	FindEnabled(ctx context.Context) ([]model.ImportTask, error)
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus) error
	UpdateLastRun(ctx context.Context, id string, lastRun time.Time) error
	UpdateNextRun(ctx context.Context, id string, nextRun time.Time) error
}

type Notifier interface {
	NotifyImported(ctx context.Context, webhookURL, taskName string, jobs []model.JobRecord) error
}

// ImportRunner executes import tasks: every URL of the task is extracted,
// filtered and stored for the task owner.
type ImportRunner struct {
	tasks     TaskStore
	execs     ExecutionStore
	cache     URLCache
	jobs      JobStore
	extractor Extractor
	notifier  Notifier
	delay     time.Duration
}

func NewImportRunner(
	tasks TaskStore,
	execs ExecutionStore,
	cache URLCache,
	jobs JobStore,
	ext Extractor,
	notifier Notifier,
	delay time.Duration,
) *ImportRunner {
	return &ImportRunner{
		tasks:     tasks,
		execs:     execs,
		cache:     cache,
		jobs:      jobs,
		extractor: ext,
		notifier:  notifier,
		delay:     delay,
	}
}

// Run imports the task's URLs and records the outcome as an execution. The
// execution fails only when every attempted URL failed.
func (r *ImportRunner) Run(ctx context.Context, task model.ImportTask, triggeredBy string) (*model.Execution, error) {
	execution, err := r.execs.Create(ctx, task.ID, task.Name, triggeredBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution record: %w", err)
	}

	if err := r.tasks.UpdateStatus(ctx, task.ID, model.TaskStatusRunning); err != nil {
		log.Printf("Warning: failed to update task status to running: %v", err)
	}

	results, imported := r.importAll(ctx, task)
	finalErr := outcome(results)

	// Records are closed out even when ctx was cancelled mid-run.
	bookkeeping := context.WithoutCancel(ctx)

	if finalErr != nil {
		if err := r.execs.Fail(bookkeeping, execution.ID, results, len(imported), finalErr.Error()); err != nil {
			log.Printf("Warning: failed to mark execution as failed: %v", err)
		}
	} else {
		if err := r.execs.Complete(bookkeeping, execution.ID, results, len(imported)); err != nil {
			log.Printf("Warning: failed to mark execution as complete: %v", err)
		}
	}

	if r.notifier != nil && len(imported) > 0 {
		if err := r.notifier.NotifyImported(ctx, task.WebhookURL, task.Name, imported); err != nil {
			log.Printf("Task %s: notification skipped: %v", task.ID, err)
		}
	}

	r.restoreStatus(bookkeeping, task)
	if err := r.tasks.UpdateLastRun(bookkeeping, task.ID, time.Now()); err != nil {
		log.Printf("Warning: failed to update last run time: %v", err)
	}

	if updated, err := r.execs.FindByID(bookkeeping, execution.ID); err == nil && updated != nil {
		execution = updated
	}
	log.Printf("Task %s: %d of %d URL(s) imported", task.ID, len(imported), len(task.URLs))

	return execution, finalErr
}

// restoreStatus puts the task back to the status it had before the run. A
// status changed while the run was in flight, such as a user disabling the
// task, is left alone, as is a task deleted mid-run.
func (r *ImportRunner) restoreStatus(ctx context.Context, task model.ImportTask) {
	previous := task.Status
	if previous == "" || previous == model.TaskStatusRunning {
		previous = model.TaskStatusEnabled
	}

	current, err := r.tasks.FindByID(ctx, task.ID)
	if err != nil {
		log.Printf("Warning: failed to reload task %s: %v", task.ID, err)
	} else if current == nil || current.Status != model.TaskStatusRunning {
		return
	}

	if err := r.tasks.UpdateStatus(ctx, task.ID, previous); err != nil {
		log.Printf("Warning: failed to restore task status to %s: %v", previous, err)
	}
}

func (r *ImportRunner) importAll(ctx context.Context, task model.ImportTask) (model.StepResults, []model.JobRecord) {
	var results model.StepResults
	var imported []model.JobRecord

	for i, rawURL := range task.URLs {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.delay):
			}
			if ctx.Err() != nil {
				break
			}
		}

		res, job := r.importOne(ctx, task, rawURL)
		now := time.Now()
		res.FinishedAt = &now
		results = append(results, res)
		if job != nil {
			imported = append(imported, *job)
		}
	}
	return results, imported
}

func (r *ImportRunner) importOne(ctx context.Context, task model.ImportTask, rawURL string) (model.StepResult, *model.JobRecord) {
	res := model.StepResult{URL: rawURL, StartedAt: time.Now()}

	seen, err := r.cache.SeenForTask(ctx, task.ID, rawURL)
	if err != nil {
		log.Printf("Warning: url cache lookup failed: %v", err)
	}
	if seen {
		res.Status = model.StepSkipped
		res.Reason = "already imported"
		return res, nil
	}

	job, err := r.extractor.Extract(ctx, rawURL)
	if err != nil {
		msg, manual := extractor.UserMessage(err)
		res.Status = model.StepFailed
		res.Reason = msg
		res.ManualEntry = manual
		res.Error = stringPtr(err.Error())
		return res, nil
	}
	res.Title = job.Title

	if keyword := MatchExcluded(job, task.ExcludeKeywords); keyword != "" {
		res.Status = model.StepFiltered
		res.Reason = fmt.Sprintf("matched exclude keyword %q", keyword)
		return res, nil
	}

	exists, err := r.jobs.ExistsBySource(ctx, task.CreatedBy, job.SourceURL)
	if err != nil {
		log.Printf("Warning: duplicate check failed: %v", err)
	}
	if exists {
		res.Status = model.StepSkipped
		res.Reason = "already tracked"
		r.markImported(ctx, task.ID, rawURL, "")
		return res, nil
	}

	job.UserID = task.CreatedBy
	if err := r.jobs.Create(ctx, job); err != nil {
		res.Status = model.StepFailed
		res.Reason = "failed to save job"
		res.Error = stringPtr(err.Error())
		return res, nil
	}

	res.Status = model.StepImported
	res.JobID = job.ID
	r.markImported(ctx, task.ID, rawURL, job.ID)
	return res, job
}

func (r *ImportRunner) markImported(ctx context.Context, taskID, rawURL, jobID string) {
	if err := r.cache.MarkImported(ctx, taskID, rawURL, jobID); err != nil {
		log.Printf("Warning: failed to cache imported url: %v", err)
	}
}

// outcome reports an error when at least one URL was attempted and none
// of the attempts got past extraction or storage.
func outcome(results model.StepResults) error {
	failed, attempted := 0, 0
	var last *string
	for _, res := range results {
		if res.Status == model.StepSkipped {
			continue
		}
		attempted++
		if res.Status == model.StepFailed {
			failed++
			last = res.Error
		}
	}
	if attempted == 0 || failed < attempted {
		return nil
	}

	err := fmt.Errorf("all %d url(s) failed", failed)
	if last != nil {
		err = fmt.Errorf("%w: last error: %s", err, *last)
	}
	return err
}

// ErrTaskNotFound is returned when a triggered task does not exist.
var ErrTaskNotFound = errors.New("task not found")

func stringPtr(s string) *string {
	return &s
}
