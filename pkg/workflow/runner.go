package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// StartResult identifies a new run and the order its steps must run in.
type StartResult struct {
	RunID        string   `json:"run_id"`
	WorkflowName string   `json:"workflow_name"`
	Steps        []string `json:"steps"`
	Chain        []string `json:"chain"`
}

// ResumeResult is the work left in the run a restarted process should continue.
type ResumeResult struct {
	RunID          string   `json:"run_id"`
	WorkflowName   string   `json:"workflow_name"`
	RemainingSteps []string `json:"remaining_steps"`
}

// StepResult describes the entry appended for a step transition.
type StepResult struct {
	RunID        string                `json:"run_id"`
	WorkflowName string                `json:"workflow_name"`
	StepID       string                `json:"step_id"`
	Status       models.RunEntryStatus `json:"status"`
	At           time.Time             `json:"at"`
}

// RunStatus reports progress of a run. Current is empty when nothing remains
// or the workflow could not be planned.
type RunStatus struct {
	RunID        string   `json:"run_id"`
	WorkflowName string   `json:"workflow_name,omitempty"`
	Completed    []string `json:"completed"`
	Remaining    []string `json:"remaining"`
	Current      string   `json:"current,omitempty"`
}

// Inspection is the outcome of resolving and validating a workflow without
// starting it.
type Inspection struct {
	Name       string                     `json:"name"`
	Chain      []string                   `json:"chain,omitempty"`
	Resolved   *models.WorkflowDefinition `json:"resolved,omitempty"`
	Validation ValidationResult           `json:"validation"`
}

// runPlan is a resolved workflow with its fresh execution order.
type runPlan struct {
	definition *models.WorkflowDefinition
	chain      []string
	order      []string
}

// Runner drives runs of workflow definitions. The run log is the authority on
// which steps completed; the work state pointer only records where a run was.
type Runner struct {
	workflows persistence.WorkflowRepository
	runLog    persistence.RunLogRepository
	workState persistence.WorkStateRepository
	skills    SkillChecker

	resolver  *Resolver
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
	newRunID  func() string
	maxDepth  int
}

// NewRunner creates a runner over one persistence backend. skills is used
// only when validating definitions.
func NewRunner(store persistence.Persistence, skills SkillChecker, opts ...Option) *Runner {
	r := &Runner{
		workflows: store.WorkflowRepository(),
		runLog:    store.RunLogRepository(),
		workState: store.WorkStateRepository(),
		skills:    skills,
		tracer:    otelhelper.NoopTracer(),
		logger:    log.WithModule("workflow_runner"),
		now:       time.Now,
		newRunID:  uuid.NewString,
		maxDepth:  DefaultMaxExtendsDepth,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.resolver = NewResolver(r.load, r.maxDepth)

	return r
}

func (r *Runner) load(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	return r.workflows.GetByName(ctx, name)
}

// Inspect resolves and validates a workflow. Composition failures are reported
// inside the validation result; only storage failures are returned as errors.
func (r *Runner) Inspect(ctx context.Context, name string) (*Inspection, error) {
	definition, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}

	resolution, err := r.resolver.Resolve(ctx, definition)
	if err != nil {
		if !IsCompositionError(err) || errors.Is(err, ErrLoadParent) {
			return nil, err
		}

		return &Inspection{
			Name:       name,
			Validation: ValidationResult{Errors: []string{err.Error()}},
		}, nil
	}

	return &Inspection{
		Name:       name,
		Chain:      resolution.Chain,
		Resolved:   resolution.Resolved,
		Validation: Validate(resolution.Resolved, r.skills),
	}, nil
}

// Start validates the named workflow and opens a new run. A workflow that
// fails composition or validation yields a *StartError and writes nothing.
func (r *Runner) Start(ctx context.Context, name string) (*StartResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.start", otelhelper.RunAttributes(name, "", "")...)
	defer span.End()

	logger := r.logger.With("workflow_name", name)

	inspection, err := r.Inspect(ctx, name)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load workflow %s: %w", name, err)
	}

	if !inspection.Validation.Valid {
		err := &StartError{Workflow: name, Problems: inspection.Validation.Errors}
		otelhelper.SetError(span, err)
		logger.Warn("Refusing to start invalid workflow", "errors", inspection.Validation.Errors)

		return nil, err
	}

	order, err := executionOrder(inspection.Resolved)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, &StartError{Workflow: name, Problems: []string{err.Error()}, Err: err}
	}

	runID := r.newRunID()

	state, err := r.readState(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	pointer := &models.WorkflowPointer{
		Name:           name,
		CompletedSteps: []string{},
		RunID:          runID,
	}
	if len(order) > 0 {
		pointer.CurrentStep = order[0]
	}

	state.Workflow = pointer
	state.UpdatedAt = r.now().UTC()

	if err := r.workState.Save(ctx, state); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save work state: %w", err)
	}

	span.SetAttributes(otelhelper.RunAttributes("", runID, "")...)
	logger.Info("Started run", "run_id", runID, "steps", order, "chain", inspection.Chain)

	r.publish(ctx, runID, events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, name, runID, r.now()),
		Steps:     order,
		Chain:     inspection.Chain,
	})

	return &StartResult{RunID: runID, WorkflowName: name, Steps: order, Chain: inspection.Chain}, nil
}

// Resume reports the steps left in the run named by the work state pointer.
// It returns nil when there is nothing to resume or the workflow can no
// longer be planned.
func (r *Runner) Resume(ctx context.Context) (*ResumeResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.resume")
	defer span.End()

	state, err := r.workState.Read(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	if state == nil || state.Workflow == nil {
		r.logger.Debug("Nothing to resume")

		return nil, nil
	}

	pointer := state.Workflow
	logger := r.logger.With("workflow_name", pointer.Name)
	span.SetAttributes(otelhelper.RunAttributes(pointer.Name, "", "")...)

	p, err := r.plan(ctx, pointer.Name)
	if err != nil {
		if degradable(err) {
			logger.Warn("Cannot resume workflow", "error", err)

			return nil, nil
		}

		otelhelper.SetError(span, err)

		return nil, err
	}

	runID, err := r.latestRunID(ctx, pointer)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if runID == "" {
		logger.Debug("No run recorded for workflow")

		return nil, nil
	}

	completed, err := r.runLog.CompletedSteps(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read completed steps of run %s: %w", runID, err)
	}

	remaining := subtract(p.order, completed)

	span.SetAttributes(otelhelper.RunAttributes("", runID, "")...)
	logger.Info("Resuming run", "run_id", runID, "remaining", remaining)

	return &ResumeResult{RunID: runID, WorkflowName: pointer.Name, RemainingSteps: remaining}, nil
}

// AdvanceStep records that a step has begun. The step's work happens elsewhere.
func (r *Runner) AdvanceStep(ctx context.Context, runID, stepID string) (*StepResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.advance_step", otelhelper.RunAttributes("", runID, stepID)...)
	defer span.End()

	name, _, err := r.runWorkflow(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := r.now().UTC()

	entry := &models.RunEntry{
		RunID:        runID,
		WorkflowName: name,
		StepID:       stepID,
		Status:       models.RunEntryStatusStarted,
		StartedAt:    now,
	}

	if err := r.runLog.Append(ctx, entry); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to append started entry: %w", err)
	}

	r.logger.Info("Step started", "workflow_name", name, "run_id", runID, "step_id", stepID)

	r.publish(ctx, runID, events.StepStarted{
		BaseEvent: events.NewBaseEvent(events.StepStartedEvent, name, runID, now),
		StepID:    stepID,
	})

	return &StepResult{RunID: runID, WorkflowName: name, StepID: stepID, Status: entry.Status, At: now}, nil
}

// CompleteStep records a step as done and moves the work state pointer to the
// next incomplete step, or clears it when the whole run is complete.
func (r *Runner) CompleteStep(ctx context.Context, runID, stepID string) (*StepResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.complete_step", otelhelper.RunAttributes("", runID, stepID)...)
	defer span.End()

	name, entries, err := r.runWorkflow(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	logger := r.logger.With("workflow_name", name, "run_id", runID, "step_id", stepID)
	now := r.now().UTC()
	startedAt := lastStartedAt(entries, stepID, now)

	entry := &models.RunEntry{
		RunID:        runID,
		WorkflowName: name,
		StepID:       stepID,
		Status:       models.RunEntryStatusCompleted,
		StartedAt:    startedAt,
		CompletedAt:  &now,
	}

	if err := r.runLog.Append(ctx, entry); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to append completed entry: %w", err)
	}

	logger.Info("Step completed")

	r.publish(ctx, runID, events.StepCompleted{
		BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, name, runID, now),
		StepID:    stepID,
		Duration:  now.Sub(startedAt),
	})

	result := &StepResult{RunID: runID, WorkflowName: name, StepID: stepID, Status: entry.Status, At: now}

	// The completed entry is already recorded, so the pointer update only warns.
	if err := r.movePointer(ctx, name, runID); err != nil {
		logger.Warn("Work state left unchanged", "error", err)
	}

	return result, nil
}

func (r *Runner) movePointer(ctx context.Context, name, runID string) error {
	p, err := r.plan(ctx, name)
	if err != nil {
		return err
	}

	completed, err := r.runLog.CompletedSteps(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read completed steps of run %s: %w", runID, err)
	}

	return r.advancePointer(ctx, name, runID, p.order, completed)
}

func (r *Runner) advancePointer(ctx context.Context, name, runID string, order, completed []string) error {
	state, err := r.readState(ctx)
	if err != nil {
		return err
	}

	if state.Workflow != nil && state.Workflow.Name != name {
		r.logger.Warn("Work state points at another workflow, leaving it unchanged",
			"workflow_name", name, "active_workflow", state.Workflow.Name)

		return nil
	}

	remaining := subtract(order, completed)

	if len(remaining) == 0 {
		state.Workflow = nil
	} else {
		state.Workflow = &models.WorkflowPointer{
			Name:           name,
			CurrentStep:    remaining[0],
			CompletedSteps: completed,
			RunID:          runID,
		}
	}

	state.UpdatedAt = r.now().UTC()

	if err := r.workState.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save work state: %w", err)
	}

	if len(remaining) == 0 {
		r.logger.Info("Run completed", "workflow_name", name, "run_id", runID)

		r.publish(ctx, runID, events.RunCompleted{
			BaseEvent:      events.NewBaseEvent(events.RunCompletedEvent, name, runID, r.now()),
			CompletedSteps: completed,
		})
	}

	return nil
}

// FailStep records a step failure. The work state pointer is not touched so
// the run stays resumable.
func (r *Runner) FailStep(ctx context.Context, runID, stepID, reason string) (*StepResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.fail_step", otelhelper.RunAttributes("", runID, stepID)...)
	defer span.End()

	name, entries, err := r.runWorkflow(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := r.now().UTC()

	entry := &models.RunEntry{
		RunID:        runID,
		WorkflowName: name,
		StepID:       stepID,
		Status:       models.RunEntryStatusFailed,
		StartedAt:    lastStartedAt(entries, stepID, now),
		CompletedAt:  &now,
		Error:        &reason,
	}

	if err := r.runLog.Append(ctx, entry); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to append failed entry: %w", err)
	}

	r.logger.Warn("Step failed", "workflow_name", name, "run_id", runID, "step_id", stepID, "error", reason)

	r.publish(ctx, runID, events.StepFailed{
		BaseEvent: events.NewBaseEvent(events.StepFailedEvent, name, runID, now),
		StepID:    stepID,
		Error:     reason,
	})

	return &StepResult{RunID: runID, WorkflowName: name, StepID: stepID, Status: entry.Status, At: now}, nil
}

// Status reports the completed and remaining steps of a run. Without a work
// state pointer, or when the workflow can no longer be planned, only the
// completed steps are reported.
func (r *Runner) Status(ctx context.Context, runID string) (*RunStatus, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "stepflow.runner.status", otelhelper.RunAttributes("", runID, "")...)
	defer span.End()

	entries, err := r.runLog.Entries(ctx, runID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}

	status := &RunStatus{
		RunID:     runID,
		Completed: models.CompletedStepIDs(entries),
		Remaining: []string{},
	}

	state, err := r.workState.Read(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	if state == nil || state.Workflow == nil {
		return status, nil
	}

	if len(entries) > 0 {
		status.WorkflowName = entries[0].WorkflowName
	} else if state.Workflow.RunID == "" || state.Workflow.RunID == runID {
		status.WorkflowName = state.Workflow.Name
	} else {
		return status, nil
	}

	p, err := r.plan(ctx, status.WorkflowName)
	if err != nil {
		if degradable(err) {
			r.logger.Warn("Reporting completed steps only", "run_id", runID, "error", err)

			return status, nil
		}

		otelhelper.SetError(span, err)

		return nil, err
	}

	status.Remaining = subtract(p.order, status.Completed)
	if len(status.Remaining) > 0 {
		status.Current = status.Remaining[0]
	}

	return status, nil
}

// Entries returns the raw run log of a run.
func (r *Runner) Entries(ctx context.Context, runID string) ([]*models.RunEntry, error) {
	return r.runLog.Entries(ctx, runID)
}

// plan loads, resolves and orders a workflow. Skills are not checked so a run
// can still be resumed after a skill is removed.
func (r *Runner) plan(ctx context.Context, name string) (*runPlan, error) {
	definition, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}

	resolution, err := r.resolver.Resolve(ctx, definition)
	if err != nil {
		return nil, err
	}

	order, err := executionOrder(resolution.Resolved)
	if err != nil {
		return nil, err
	}

	return &runPlan{definition: resolution.Resolved, chain: resolution.Chain, order: order}, nil
}

// runWorkflow finds the workflow a run belongs to, first from its entries
// and then from the work state pointer.
func (r *Runner) runWorkflow(ctx context.Context, runID string) (string, []*models.RunEntry, error) {
	entries, err := r.runLog.Entries(ctx, runID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}

	if len(entries) > 0 {
		return entries[0].WorkflowName, entries, nil
	}

	state, err := r.workState.Read(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read work state: %w", err)
	}

	if state != nil && state.Workflow != nil && (state.Workflow.RunID == runID || state.Workflow.RunID == "") {
		return state.Workflow.Name, entries, nil
	}

	return "", nil, persistence.NewRunError("lookup", runID, persistence.ErrRunNotFound)
}

// latestRunID picks the run to resume. The run log decides, except when the
// pointer names a newer run that has no entries yet.
func (r *Runner) latestRunID(ctx context.Context, pointer *models.WorkflowPointer) (string, error) {
	summary, err := r.runLog.LatestRun(ctx, pointer.Name)
	if errors.Is(err, persistence.ErrRunNotFound) {
		return pointer.RunID, nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to find latest run of %s: %w", pointer.Name, err)
	}

	if pointer.RunID == "" || pointer.RunID == summary.RunID {
		return summary.RunID, nil
	}

	entries, err := r.runLog.Entries(ctx, pointer.RunID)
	if err != nil {
		return "", fmt.Errorf("failed to read run %s: %w", pointer.RunID, err)
	}

	if len(entries) == 0 {
		return pointer.RunID, nil
	}

	return summary.RunID, nil
}

func (r *Runner) readState(ctx context.Context) (*models.WorkState, error) {
	state, err := r.workState.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	if state == nil {
		state = &models.WorkState{}
	}

	return state, nil
}

func (r *Runner) publish(ctx context.Context, runID string, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, runID, event); err != nil {
		r.logger.Error("Failed to publish event", "event_type", event.GetType(), "run_id", runID, "error", err)
	}
}

// degradable reports structural problems that resume and status swallow.
func degradable(err error) bool {
	return errors.Is(err, persistence.ErrWorkflowNotFound) ||
		persistence.IsInvalidDefinition(err) ||
		errors.Is(err, ErrCyclicDefinition) ||
		errors.Is(err, ErrCircularExtends) ||
		errors.Is(err, ErrMissingParent) ||
		errors.Is(err, ErrMaxDepthExceeded)
}

func lastStartedAt(entries []*models.RunEntry, stepID string, fallback time.Time) time.Time {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].StepID == stepID && entries[i].Status == models.RunEntryStatusStarted {
			return entries[i].StartedAt
		}
	}

	return fallback
}

func subtract(order, completed []string) []string {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	remaining := make([]string, 0, len(order))

	for _, id := range order {
		if !done[id] {
			remaining = append(remaining, id)
		}
	}

	return remaining
}
