package bus

import (
	"context"
	"sync"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const subscriberBuffer = 64

// memoryBus is the single-process default. Every subscriber gets every event;
// a full subscriber channel drops the event for that subscriber only.
type memoryBus struct {
	log *logger.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func NewMemoryBus(baseLog *logger.Logger) Bus {
	return &memoryBus{
		log:  baseLog.With("component", "MemoryBus"),
		subs: make(map[int]chan Event),
	}
}

func (b *memoryBus) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Warn("Dropping event for slow subscriber", "subscriber", id, "event", event.Type)
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	if !b.closed {
		b.subs[id] = ch
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return ch, cancel
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
