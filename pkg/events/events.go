// Package events defines the notifications published for run transitions.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every run event.
const Topic = "stepflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	StepStartedEvent   EventType = "step.started"
	StepCompletedEvent EventType = "step.completed"
	StepFailedEvent    EventType = "step.failed"
	RunCompletedEvent  EventType = "run.completed"
)

type BaseEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	WorkflowName string    `json:"workflow_name"`
	RunID        string    `json:"run_id"`
}

// NewBaseEvent fills in a fresh id and a UTC timestamp.
func NewBaseEvent(eventType EventType, workflowName, runID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		Timestamp:    at.UTC(),
		WorkflowName: workflowName,
		RunID:        runID,
	}
}

type RunStarted struct {
	BaseEvent

	Steps []string `json:"steps"`
	Chain []string `json:"chain,omitempty"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type StepStarted struct {
	BaseEvent

	StepID string `json:"step_id"`
}

func (e StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepCompleted struct {
	BaseEvent

	StepID   string        `json:"step_id"`
	Duration time.Duration `json:"duration"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type StepFailed struct {
	BaseEvent

	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

func (e StepFailed) GetType() EventType {
	return StepFailedEvent
}

type RunCompleted struct {
	BaseEvent

	CompletedSteps []string `json:"completed_steps"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// New returns an empty event value for the type, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case RunStartedEvent:
		return &RunStarted{}, true
	case StepStartedEvent:
		return &StepStarted{}, true
	case StepCompletedEvent:
		return &StepCompleted{}, true
	case StepFailedEvent:
		return &StepFailed{}, true
	case RunCompletedEvent:
		return &RunCompleted{}, true
	default:
		return nil, false
	}
}

// Types lists every run event type in lifecycle order.
func Types() []EventType {
	return []EventType{RunStartedEvent, StepStartedEvent, StepCompletedEvent, StepFailedEvent, RunCompletedEvent}
}
