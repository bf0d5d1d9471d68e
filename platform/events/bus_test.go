package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"labequip_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var mu sync.Mutex
	received := 0
	done := make(chan struct{}, 2)
	handler := HandlerFunc(func(_ context.Context, _ Event) error {
		mu.Lock()
		received++
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	bus.Subscribe("thing.happened", handler)
	bus.Subscribe("thing.happened", handler)
	bus.Subscribe("other.happened", handler)

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for handler")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if received != 2 {
		t.Errorf("received = %d, want 2", received)
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	wantErr := errors.New("handler failed")

	calls := 0
	bus.Subscribe("thing.happened", HandlerFunc(func(_ context.Context, _ Event) error {
		calls++
		return wantErr
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(_ context.Context, _ Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if !errors.Is(err, wantErr) {
		t.Errorf("PublishSync() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (stop on first error)", calls)
	}
}

func TestPublishSyncRecoversPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	bus.Subscribe("thing.happened", HandlerFunc(func(_ context.Context, _ Event) error {
		panic("boom")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if err == nil {
		t.Error("PublishSync() error = nil, want panic converted to error")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	// Must not block or panic.
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "nobody.cares"})
}
