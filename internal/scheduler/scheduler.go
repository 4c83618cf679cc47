package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/requill-tracker/internal/model"
)

const runTimeout = 30 * time.Minute

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler runs enabled import tasks on their cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	taskRepo TaskStore
	runner   *ImportRunner
	entryMap map[string]cron.EntryID
	specs    map[string]cron.Schedule
	mu       sync.RWMutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(taskRepo TaskStore, runner *ImportRunner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		taskRepo: taskRepo,
		runner:   runner,
		entryMap: make(map[string]cron.EntryID),
		specs:    make(map[string]cron.Schedule),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start loads all enabled tasks and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)

	tasks, err := s.taskRepo.FindEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	for _, task := range tasks {
		if err := s.scheduleTask(task); err != nil {
			log.Printf("Failed to schedule task %s: %v", task.ID, err)
		}
	}

	s.cron.Start()
	s.running = true

	log.Printf("Scheduler started with %d tasks", len(tasks))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	log.Println("Scheduler stopped")
}

func (s *Scheduler) AddTask(task model.ImportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduleTask(task)
}

// UpdateTask reschedules task, dropping it when it is no longer enabled.
func (s *Scheduler) UpdateTask(task model.ImportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unschedule(task.ID)
	return s.scheduleTask(task)
}

func (s *Scheduler) RemoveTask(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unschedule(taskID)
}

// TriggerTask runs a task immediately, outside its schedule.
func (s *Scheduler) TriggerTask(ctx context.Context, taskID, triggeredBy string) (*model.Execution, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	return s.runner.Run(ctx, *task, triggeredBy)
}

// GetNextRun is computed from the schedule, so it is known before the cron
// loop starts.
func (s *Scheduler) GetNextRun(taskID string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.specs[taskID]
	if !ok {
		return nil
	}
	next := sched.Next(time.Now())
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *Scheduler) GetScheduledTasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entryMap))
	for id := range s.entryMap {
		ids = append(ids, id)
	}
	return ids
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// AddMaintenance registers a housekeeping job, such as pruning old
// executions, on a cron schedule.
func (s *Scheduler) AddMaintenance(schedule, name string, fn func(ctx context.Context) error) error {
	spec, err := NormalizeSchedule(schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("Maintenance %s failed: %v", name, err)
		}
	})
	return err
}

func (s *Scheduler) unschedule(taskID string) {
	if entryID, ok := s.entryMap[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.entryMap, taskID)
	}
	delete(s.specs, taskID)
}

// scheduleTask must be called with s.mu held.
func (s *Scheduler) scheduleTask(task model.ImportTask) error {
	if task.Status != model.TaskStatusEnabled {
		return nil
	}

	spec, err := NormalizeSchedule(task.Schedule)
	if err != nil {
		return err
	}

	sched, err := cronParser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", task.Schedule, err)
	}

	taskID := task.ID
	entryID := s.cron.Schedule(sched, cron.FuncJob(func() { s.runScheduled(taskID) }))
	s.entryMap[taskID] = entryID
	s.specs[taskID] = sched

	if next := sched.Next(time.Now()); !next.IsZero() {
		if err := s.taskRepo.UpdateNextRun(s.ctx, taskID, next); err != nil {
			log.Printf("Warning: failed to set initial next run time for task %s: %v", taskID, err)
		}
	}

	return nil
}

func (s *Scheduler) runScheduled(taskID string) {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	// The stored task may have changed since it was scheduled.
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		log.Printf("Task %s: failed to load, skipping this run: %v", taskID, err)
		return
	}
	if task == nil {
		log.Printf("Task %s not found, removing from scheduler", taskID)
		s.RemoveTask(taskID)
		return
	}

	switch task.Status {
	case model.TaskStatusRunning:
		log.Printf("Task %s is already running, skipping scheduled execution", taskID)
		return
	case model.TaskStatusEnabled:
	default:
		return
	}

	if _, err := s.runner.Run(ctx, *task, "schedule"); err != nil {
		log.Printf("Task %s execution failed: %v", taskID, err)
	}

	if next := s.GetNextRun(taskID); next != nil {
		if err := s.taskRepo.UpdateNextRun(ctx, taskID, *next); err != nil {
			log.Printf("Warning: failed to update next run time for task %s: %v", taskID, err)
		}
	}
}

// NormalizeSchedule accepts a 5-field cron expression, a 6-field one with
// seconds, or a descriptor such as @hourly, and returns the 6-field form the
// scheduler runs on.
func NormalizeSchedule(schedule string) (string, error) {
	schedule = strings.TrimSpace(schedule)
	switch schedule {
	case "@hourly":
		schedule = "0 0 * * * *"
	case "@daily":
		schedule = "0 0 0 * * *"
	case "@weekly":
		schedule = "0 0 0 * * 0"
	case "@monthly":
		schedule = "0 0 0 1 * *"
	}

	if len(strings.Fields(schedule)) == 5 {
		schedule = "0 " + schedule
	}

	if _, err := cronParser.Parse(schedule); err != nil {
		return "", fmt.Errorf("invalid cron expression '%s': %w", schedule, err)
	}
	return schedule, nil
}
