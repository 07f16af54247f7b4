package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/stepflow/pkg/log"
	"github.com/robfig/cron/v3"
)

// Starter opens new runs. *Runner satisfies it.
type Starter interface {
	Start(ctx context.Context, name string) (*StartResult, error)
}

// Scheduler starts runs of workflows on cron schedules.
type Scheduler struct {
	starter Starter
	cron    *cron.Cron
	logger  *slog.Logger

	mutex sync.RWMutex
	jobs  map[string]cron.EntryID
	ctx   context.Context
}

// NewScheduler creates a scheduler. Overlapping firings of the same job are
// skipped and panics in a job are recovered.
func NewScheduler(starter Starter) *Scheduler {
	return &Scheduler{
		starter: starter,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		logger: log.WithModule("workflow_scheduler"),
		jobs:   make(map[string]cron.EntryID),
		ctx:    context.Background(),
	}
}

// Add registers a standard five-field cron expression for a workflow. A
// workflow can only have one schedule.
func (s *Scheduler) Add(expr, workflowName string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression '%s' for workflow %s: %w", expr, workflowName, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[workflowName]; exists {
		return fmt.Errorf("workflow %s is already scheduled", workflowName)
	}

	entryID, err := s.cron.AddFunc(expr, func() { s.fire(workflowName) })
	if err != nil {
		return fmt.Errorf("failed to add cron job for workflow %s: %w", workflowName, err)
	}

	s.jobs[workflowName] = entryID
	s.logger.Info("Scheduled workflow", "workflow_name", workflowName, "cron", expr, "entry_id", entryID)

	return nil
}

func (s *Scheduler) fire(workflowName string) {
	s.mutex.RLock()
	ctx := s.ctx
	s.mutex.RUnlock()

	logger := s.logger.With("workflow_name", workflowName)

	result, err := s.starter.Start(ctx, workflowName)
	if err != nil {
		logger.Error("Scheduled start failed", "error", err)

		return
	}

	logger.Info("Scheduled run started", "run_id", result.RunID)
}

// Start runs the cron loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	s.ctx = ctx
	jobs := len(s.jobs)
	s.mutex.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", jobs)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	s.mutex.Lock()
	s.jobs = make(map[string]cron.EntryID)
	s.mutex.Unlock()

	s.logger.Info("Scheduler stopped")
}

// Jobs returns the names of the scheduled workflows.
func (s *Scheduler) Jobs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	return names
}
