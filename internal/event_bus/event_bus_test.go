package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testType EventType = "test.event"

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()
	var received []string

	bus.Subscribe(testType, func(e Event) error {
		received = append(received, e.Data.(string))
		return nil
	})
	bus.Subscribe(testType, func(e Event) error {
		received = append(received, e.Data.(string))
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), testType, "hello"))

	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "hello"}, received)
}

func TestPublishIgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus()
	called := false

	bus.Subscribe("other.type", func(Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, nil)))
	assert.False(t, called)
}

func TestFailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()
	delivered := 0

	bus.Subscribe(testType, func(Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(testType, func(Event) error {
		delivered++
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), testType, nil))

	assert.Error(t, err)
	assert.Equal(t, 1, delivered)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	delivered := 0

	unsubscribe := bus.Subscribe(testType, func(Event) error {
		delivered++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, nil)))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), testType, nil)))

	assert.Equal(t, 1, delivered)
}

func TestCancelledContextBlocksPublish(t *testing.T) {
	bus := NewEventBus()
	delivered := 0

	bus.Subscribe(testType, func(Event) error {
		delivered++
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, testType, nil))

	assert.Error(t, err)
	assert.Zero(t, delivered)
}
