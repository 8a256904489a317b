package bus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

const redisChannel = "studiostory.events"

// redisBus fans events out across processes through Redis pub/sub. Used when
// more than one API instance serves the same frontend.
type redisBus struct {
	log *logger.Logger
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client, baseLog *logger.Logger) Bus {
	return &redisBus{
		log: baseLog.With("component", "RedisBus"),
		rdb: rdb,
	}
}

func (b *redisBus) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, redisChannel, raw).Err()
}

func (b *redisBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	sub := b.rdb.Subscribe(ctx, redisChannel)
	out := make(chan Event, subscriberBuffer)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("Dropping malformed bus event", "error", err)
				continue
			}
			select {
			case out <- ev:
			default:
				b.log.Warn("Dropping event for slow subscriber", "event", ev.Type)
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel
}

func (b *redisBus) Close() error {
	return b.rdb.Close()
}
