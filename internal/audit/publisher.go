package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBufferFull is returned by Emit in async mode when the inbox is full and
// the caller chose not to block.
var ErrBufferFull = errors.New("audit buffer full")

// Sink receives a copy of every published event in addition to the store.
// Used to fan events out to an external bus.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher persists audit events through a Store, optionally via a bounded
// async buffer. Emit never fails the operation being audited in async mode.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger

	inbox chan Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with a bounded
// inbox of the given size. Events are dropped with ErrBufferFull when the
// inbox is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// WithSink fans every event out to an external sink after the store append.
// Sink failures are logged, never propagated.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithLogger sets the logger used for sink delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a Publisher. Without options it is synchronous:
// Emit appends directly to the store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. A zero timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Status == "" {
		event.Status = StatusSuccess
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

// List returns stored events newest first, optionally filtered by card.
func (p *Publisher) List(ctx context.Context, limit int, cardID string) ([]Event, error) {
	return p.store.List(ctx, limit, cardID)
}

// Clear removes all stored events.
func (p *Publisher) Clear(ctx context.Context) error {
	return p.store.Clear(ctx)
}

// Close drains any buffered events and stops the background worker. Safe to
// call on a synchronous publisher and safe to call more than once.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.deliver(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Warn("audit sink delivery failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
