package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/roach88/tillsync/internal/broadcast"
	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/queue"
	"github.com/roach88/tillsync/internal/store"
)

// Engine is the process-wide sync context. Construct once at startup with
// New and inject into collaborators; there is no ambient global state.
type Engine struct {
	store  *store.Store
	queue  *queue.Queue
	bus    *broadcast.Bus
	client queue.Client

	now           func() time.Time
	stabilization time.Duration
	online        atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStabilizationDelay sets the pause between queue replay and the cache
// refresh of a sync pass, letting the network settle after reconnect.
func WithStabilizationDelay(d time.Duration) Option {
	return func(e *Engine) { e.stabilization = d }
}

// New wires an engine from its collaborators. The bus may be degraded and
// the client nil (a nil client makes the engine behave as permanently
// offline: every mutation queues).
func New(st *store.Store, q *queue.Queue, bus *broadcast.Bus, client queue.Client, opts ...Option) *Engine {
	e := &Engine{
		store:         st,
		queue:         q,
		bus:           bus,
		client:        client,
		now:           func() time.Time { return time.Now().UTC() },
		stabilization: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetOnline records the connectivity state reported by the environment.
func (e *Engine) SetOnline(online bool) { e.online.Store(online) }

// Online reports the last known connectivity state.
func (e *Engine) Online() bool { return e.online.Load() && e.client != nil }

// Store exposes the underlying local store for read-side collaborators.
func (e *Engine) Store() *store.Store { return e.store }

// publish broadcasts best-effort; a bus failure never fails the mutation
// that triggered it.
func (e *Engine) publish(ctx context.Context, t model.MessageType, payload any) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(ctx, t, payload)
}
