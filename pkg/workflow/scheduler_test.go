package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStarter struct {
	started chan string
	err     error
}

func (s *recordingStarter) Start(_ context.Context, name string) (*StartResult, error) {
	s.started <- name

	if s.err != nil {
		return nil, s.err
	}

	return &StartResult{RunID: "run-" + name, WorkflowName: name}, nil
}

func TestScheduler_Add(t *testing.T) {
	scheduler := NewScheduler(&recordingStarter{started: make(chan string, 1)})

	require.NoError(t, scheduler.Add("*/5 * * * *", "ship"))
	assert.Equal(t, []string{"ship"}, scheduler.Jobs())

	err := scheduler.Add("*/5 * * * *", "ship")
	assert.ErrorContains(t, err, "already scheduled")

	err = scheduler.Add("not a cron", "other")
	assert.ErrorContains(t, err, "invalid cron expression")
}

func TestScheduler_FireStartsRun(t *testing.T) {
	starter := &recordingStarter{started: make(chan string, 2)}
	scheduler := NewScheduler(starter)

	scheduler.fire("ship")
	assert.Equal(t, "ship", <-starter.started)

	starter.err = errors.New("invalid")
	scheduler.fire("ship")
	assert.Equal(t, "ship", <-starter.started)
}

func TestScheduler_StopOnContextCancel(t *testing.T) {
	scheduler := NewScheduler(&recordingStarter{started: make(chan string, 1)})
	require.NoError(t, scheduler.Add("@every 1h", "ship"))

	ctx, cancel := context.WithCancel(t.Context())
	scheduler.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return len(scheduler.Jobs()) == 0 }, time.Second, 10*time.Millisecond)
}
