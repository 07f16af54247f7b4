package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*60*60))

	base := NewBaseEvent(StepFailedEvent, "deploy", "run-1", at)

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, StepFailedEvent, base.Type)
	assert.Equal(t, time.UTC, base.Timestamp.Location())
	assert.True(t, base.Timestamp.Equal(at))
	assert.Equal(t, "deploy", base.WorkflowName)
	assert.Equal(t, "run-1", base.RunID)
}

func TestNewByType(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      any
	}{
		{RunStartedEvent, &RunStarted{}},
		{StepStartedEvent, &StepStarted{}},
		{StepCompletedEvent, &StepCompleted{}},
		{StepFailedEvent, &StepFailed{}},
		{RunCompletedEvent, &RunCompleted{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			event, ok := New(tt.eventType)
			require.True(t, ok)
			assert.IsType(t, tt.want, event)
		})
	}

	_, ok := New("workflow.triggered")
	assert.False(t, ok)
}

func TestStepFailedPayload(t *testing.T) {
	event := StepFailed{
		BaseEvent: NewBaseEvent(StepFailedEvent, "deploy", "run-1", time.Now()),
		StepID:    "test",
		Error:     "boom",
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "step.failed", decoded["type"])
	assert.Equal(t, "test", decoded["step_id"])
	assert.Equal(t, "boom", decoded["error"])
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, StepFailedEvent, event.GetType())
}

func TestTypesAreDecodable(t *testing.T) {
	for _, eventType := range Types() {
		_, ok := New(eventType)
		assert.True(t, ok, eventType)
	}
}
