// Package publisher delivers audit events to a store and optional sinks.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	id "attendly/pkg/domain"
	audit "attendly/pkg/platform/audit"
)

// ErrBufferFull is returned in async mode when the inbox is saturated.
// Audit delivery is best-effort; callers may log and move on.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes events to the store and fans out to sinks. By
// default delivery is synchronous; WithAsyncBuffer switches to a
// buffered background worker that drains on Close.
type Publisher struct {
	store audit.Store
	sinks []audit.Sink

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery through a buffer of
// the given size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithSink adds an external sink alongside the store.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

// NewPublisher builds a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit delivers one event. The timestamp is stamped if unset. In async
// mode a full buffer drops the event and reports ErrBufferFull.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.deliver(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List returns the stored events for a user.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains the async buffer, waits for the worker, and closes the
// sinks. Safe to call multiple times.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
		for _, sink := range p.sinks {
			sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Sink and store failures are swallowed here; audit delivery
		// never takes down the request path.
		_ = p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	err := p.store.Append(ctx, event)
	for _, sink := range p.sinks {
		_ = sink.Publish(ctx, event)
	}
	return err
}
