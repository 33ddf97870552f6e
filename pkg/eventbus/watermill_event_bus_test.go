package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/channels/gochannel"
	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
)

func setupBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribeRoundTrip(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	var (
		mu       sync.Mutex
		received []*events.StepMatched
	)

	err := bus.Handle(events.StepMatchedEvent, func(_ context.Context, event interface{}) error {
		matched, ok := event.(*events.StepMatched)
		require.True(t, ok)

		mu.Lock()
		received = append(received, matched)
		mu.Unlock()

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	published := events.StepMatched{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.StepMatchedEvent,
			Timestamp: time.Now().UTC(),
		},
		WorkflowID: "w-1",
		StepIndex:  2,
		ActionID:   "a-3",
	}

	require.NoError(t, bus.Publish(t.Context(), "w-1", published))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "w-1", received[0].WorkflowID)
	assert.Equal(t, 2, received[0].StepIndex)
	assert.Equal(t, "a-3", received[0].ActionID)
}

func TestWatermillEventBus_UnhandledEventTypesAreDropped(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	var (
		mu     sync.Mutex
		failed int
	)

	err := bus.Handle(events.ReplayFailedEvent, func(_ context.Context, _ interface{}) error {
		mu.Lock()
		failed++
		mu.Unlock()

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	// No handler registered for replay.finished: it is acked and dropped.
	require.NoError(t, bus.Publish(t.Context(), "w-1", events.ReplayFinished{
		BaseEvent:  events.BaseEvent{ID: bus.GenerateID(), Type: events.ReplayFinishedEvent},
		WorkflowID: "w-1",
	}))
	require.NoError(t, bus.Publish(t.Context(), "w-1", events.ReplayFailed{
		BaseEvent:  events.BaseEvent{ID: bus.GenerateID(), Type: events.ReplayFailedEvent},
		WorkflowID: "w-1",
		Reason:     "match miss",
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return failed == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
