package bus

import (
	"context"
	"testing"
	"time"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return logg
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	b := NewMemoryBus(testLogger(t))
	defer b.Close()

	ch1, cancel1 := b.Subscribe(context.Background())
	defer cancel1()
	ch2, cancel2 := b.Subscribe(context.Background())
	defer cancel2()

	ev := NewEvent(EventImageSaved, "p1", map[string]string{"url": "https://img/a.png"})
	if err := b.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, ch := range []<-chan Event{ch1, ch2} {
		got := recvEvent(t, ch)
		if got.Type != EventImageSaved || got.ProjectID != "p1" {
			t.Fatalf("event = %+v", got)
		}
		if len(got.Payload) == 0 {
			t.Fatalf("payload not carried through")
		}
	}
}

func TestMemoryBusCancelStopsDelivery(t *testing.T) {
	b := NewMemoryBus(testLogger(t))
	defer b.Close()

	ch, cancel := b.Subscribe(context.Background())
	cancel()

	if _, open := <-ch; open {
		t.Fatalf("cancelled subscription channel should be closed")
	}
	// Publishing after cancel must not panic or block.
	if err := b.Publish(context.Background(), NewEvent(EventPanelReset, "p1", nil)); err != nil {
		t.Fatalf("Publish after cancel: %v", err)
	}
}

func TestMemoryBusSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewMemoryBus(testLogger(t))
	defer b.Close()

	// Never drained: the buffer fills and later publishes drop for this
	// subscriber without blocking the publisher.
	_, cancel := b.Subscribe(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = b.Publish(context.Background(), NewEvent(EventGenerationProgress, "p1", nil))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publisher blocked on a slow subscriber")
	}
}

func TestMemoryBusContextCancelReleasesSubscription(t *testing.T) {
	b := NewMemoryBus(testLogger(t))
	defer b.Close()

	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, cancel := b.Subscribe(ctx)
	defer cancel()

	cancelCtx()
	select {
	case _, open := <-ch:
		if open {
			t.Fatalf("expected closed channel after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("context cancel did not release the subscription")
	}
}

func TestMemoryBusCloseIsTerminal(t *testing.T) {
	b := NewMemoryBus(testLogger(t))
	ch, cancel := b.Subscribe(context.Background())
	defer cancel()

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatalf("Close should close subscriber channels")
	}
	if err := b.Publish(context.Background(), NewEvent(EventImageSaved, "p1", nil)); err != nil {
		t.Fatalf("Publish after Close should be a no-op, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("double Close: %v", err)
	}
}
