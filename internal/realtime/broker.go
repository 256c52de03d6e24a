// internal/realtime/broker.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is one realtime change notification. ID is the record identity used
// for de-duplication: a locally-applied insert and the pub/sub echo of the
// same logical event both reach a subscriber.
type Event struct {
	ID       string          `json:"id"`
	Resource string          `json:"resource"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Broker fans events out through Redis pub/sub, one channel per logical
// resource ("project:<id>", "user:<id>", "conversation:<id>").
type Broker struct {
	rdb *redis.Client
}

func NewBroker(redisURL string) (*Broker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %v", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %v", err)
	}
	return &Broker{rdb: client}, nil
}

// NewBrokerWithClient wraps an existing client (shared with the rate limiter).
func NewBrokerWithClient(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

func (b *Broker) Client() *redis.Client { return b.rdb }

func channelFor(resource string) string { return "events:" + resource }

func (b *Broker) Publish(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelFor(ev.Resource), payload).Err()
}

// Subscribe delivers events for one resource until the returned stop func is
// called or ctx ends. Delivery de-duplicates by event ID.
func (b *Broker) Subscribe(ctx context.Context, resource string, onEvent func(Event)) (func(), error) {
	sub := b.rdb.Subscribe(ctx, channelFor(resource))
	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	dedup := newDeduper(256)
	go func() {
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("realtime: drop malformed event", "err", err)
				continue
			}
			if dedup.Seen(ev.ID) {
				continue
			}
			onEvent(ev)
		}
	}()

	return func() { _ = sub.Close() }, nil
}

func (b *Broker) Close() error { return b.rdb.Close() }
