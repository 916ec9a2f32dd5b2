package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/roach88/tillsync/internal/model"
)

// Handler receives a delivered broadcast message.
type Handler func(msg model.BroadcastMessage)

// Bus is the cross-context notification bus. Construct once per process
// and inject; the zero value is not usable.
type Bus struct {
	client   *redis.Client
	channel  string
	originID string

	mu       sync.Mutex
	nextSub  int
	handlers map[model.MessageType]map[int]Handler
	pubsub   *redis.PubSub
	cancel   context.CancelFunc
}

// New connects to Redis and returns a live bus. If the server cannot be
// reached the returned bus is degraded, not an error: publishing becomes a
// no-op and subscriptions are inert.
func New(redisURL, channel string) *Bus {
	b := &Bus{
		channel:  channel,
		originID: uuid.NewString(),
		handlers: make(map[model.MessageType]map[int]Handler),
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("tillsync: broadcast disabled: bad redis url: %v", err)
		return b
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		log.Printf("tillsync: broadcast disabled: redis unreachable: %v", err)
		return b
	}

	b.client = client
	return b
}

// OriginID returns this context's instance id.
func (b *Bus) OriginID() string { return b.originID }

// Enabled reports whether the underlying primitive is available.
func (b *Bus) Enabled() bool { return b.client != nil }

// Publish sends a message tagged with this context's origin id and the
// current time. On a degraded bus it is a no-op. Payload is marshaled to
// JSON; a marshal failure is the only error a live publish can add beyond
// the transport's own.
func (b *Bus) Publish(ctx context.Context, msgType model.MessageType, payload any) error {
	if b.client == nil {
		return nil
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("broadcast publish %s: marshal payload: %w", msgType, err)
		}
		raw = data
	}

	envelope, err := json.Marshal(model.BroadcastMessage{
		Type:      msgType,
		Payload:   raw,
		OriginID:  b.originID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("broadcast publish %s: marshal envelope: %w", msgType, err)
	}

	if err := b.client.Publish(ctx, b.channel, envelope).Err(); err != nil {
		return fmt.Errorf("broadcast publish %s: %w", msgType, err)
	}
	return nil
}

// Subscribe registers a handler for one message type and returns its
// deregistration func. On a degraded bus both are no-ops. Handlers run on
// the bus's receive goroutine; keep them short or hand off.
func (b *Bus) Subscribe(msgType model.MessageType, handler Handler) func() {
	if b.client == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[msgType] == nil {
		b.handlers[msgType] = make(map[int]Handler)
	}
	id := b.nextSub
	b.nextSub++
	b.handlers[msgType][id] = handler

	b.ensureReceiverLocked()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[msgType], id)
	}
}

// ensureReceiverLocked starts the single receive goroutine on first use.
// Caller holds b.mu.
func (b *Bus) ensureReceiverLocked() {
	if b.pubsub != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	ch := b.pubsub.Channel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				b.dispatch(m.Payload)
			}
		}
	}()
}

func (b *Bus) dispatch(raw string) {
	var msg model.BroadcastMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return
	}
	// Self-suppression: never invoke our own handlers for our own messages.
	if msg.OriginID == b.originID {
		return
	}

	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers[msg.Type]))
	for _, h := range b.handlers[msg.Type] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

// Close tears down the subscription and connection. Safe on a degraded bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.pubsub != nil {
		b.pubsub.Close()
		b.pubsub = nil
	}
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}
