package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/toposeed/internal/log"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is a recurring job driven by a cron expression
type Task struct {
	ID       string
	Name     string
	Schedule string
	LastRun  *time.Time
	LastErr  error
	Status   string
	Runs     int
	Handler  TaskHandler
	entryID  cron.EntryID
}

// TaskHandler is the function executed by a task
type TaskHandler func(ctx context.Context, taskID string) error

// Scheduler runs registered tasks on their cron schedules. A task whose
// previous run is still going is skipped rather than stacked.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	tasks   map[string]*Task
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler. Task handlers receive a context
// derived from ctx that is also cancelled by Stop.
func NewScheduler(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		cron:   cron.New(),
		tasks:  make(map[string]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterTask adds a task. schedule is a standard five field cron
// expression or a descriptor such as "@hourly".
func (s *Scheduler) RegisterTask(id, name, schedule string, handler TaskHandler) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("task %s: invalid schedule %q: %w", id, schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		return fmt.Errorf("task %s already registered", id)
	}

	task := &Task{
		ID:       id,
		Name:     name,
		Schedule: schedule,
		Status:   StatusPending,
		Handler:  handler,
	}
	entryID, err := s.cron.AddFunc(schedule, func() { s.runTask(task) })
	if err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}
	task.entryID = entryID
	s.tasks[id] = task

	log.Info("Task registered", "task_id", id, "schedule", schedule)
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.Info("Starting reseed scheduler", "tasks", len(s.tasks))
}

// Stop stops the cron loop, cancels running tasks and waits for them
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Info("Stopping reseed scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// NextRun returns when a task will next fire. It is zero while stopped.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(task.entryID).Next, true
}

// Task returns a copy of a registered task
func (s *Scheduler) Task(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// RunNow runs a task immediately, outside its schedule
func (s *Scheduler) RunNow(id string) error {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("task %s not registered", id)
	}
	s.runTask(task)
	return nil
}

func (s *Scheduler) runTask(task *Task) {
	s.mu.Lock()
	if task.Status == StatusRunning {
		s.mu.Unlock()
		log.Warn("Task still running, skipping", "task_id", task.ID)
		return
	}
	task.Status = StatusRunning
	now := time.Now()
	task.LastRun = &now
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log.Info("Running task", "task_id", task.ID, "name", task.Name)
	err := task.Handler(s.ctx, task.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	task.Runs++
	task.LastErr = err
	if err != nil {
		task.Status = StatusFailed
		log.Error("Task failed", "task_id", task.ID, "error", err)
		return
	}
	task.Status = StatusCompleted
	log.Info("Task completed", "task_id", task.ID, "duration", time.Since(now))
}
