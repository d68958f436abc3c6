package datasync

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/logger"
)

const tracerName = "github.com/rileyhilliard/aidash/internal/datasync"

// Status is the load state of one stream.
type Status string

// Stream statuses.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of one stream.
//
// Success means Data is set and Error is nil, or NotFound is set for a
// stream that has no data yet. Error means no good data was ever loaded.
// A failure after a success keeps Data and Status and only sets Error.
type State[T any] struct {
	Status        Status
	Data          *T
	Error         *api.NormalizedError
	NotFound      *api.NotFoundPayload
	LastSuccessAt time.Time
}

// HasData reports whether something displayable has been loaded.
func (s State[T]) HasData() bool {
	return s.Data != nil || s.NotFound != nil
}

// FetchFunc performs one request. It must honor ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (*T, error)

// Listener receives cross-stream signals from an Endpoint. Callbacks run
// after the endpoint has released its lock.
type Listener interface {
	OnAuthError(stream string, err *api.NormalizedError)
	OnSuccess(stream string)
}

// EndpointConfig wires an Endpoint into its parent controller.
type EndpointConfig struct {
	// Key names the stream in the sequencer, logs and metrics.
	Key string
	// Sequencer may be shared between endpoints with distinct keys.
	// A private one is created when nil.
	Sequencer *Sequencer
	// NotFound turns a not_found error into an empty success state when
	// it returns a payload.
	NotFound func(*api.NormalizedError) *api.NotFoundPayload
	Listener Listener
	Logger   logger.Logger
	Metrics  *Metrics
	Now      func() time.Time
}

// Endpoint owns the state machine of one stream.
type Endpoint[T any] struct {
	key      string
	fetch    FetchFunc[T]
	seq      *Sequencer
	notFound func(*api.NormalizedError) *api.NotFoundPayload
	listener Listener
	log      logger.Logger
	metrics  *Metrics
	now      func() time.Time
	tracer   trace.Tracer

	mu       sync.Mutex
	state    State[T]
	onChange []func()
}

// NewEndpoint creates an idle endpoint.
func NewEndpoint[T any](fetch FetchFunc[T], cfg EndpointConfig) *Endpoint[T] {
	e := &Endpoint[T]{
		key:      cfg.Key,
		fetch:    fetch,
		seq:      cfg.Sequencer,
		notFound: cfg.NotFound,
		listener: cfg.Listener,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
		tracer:   otel.Tracer(tracerName),
		state:    State[T]{Status: StatusIdle},
	}
	if e.seq == nil {
		e.seq = NewSequencer(0)
	}
	if e.log == nil {
		e.log = logger.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Key returns the stream key.
func (e *Endpoint[T]) Key() string { return e.key }

// State returns the current snapshot.
func (e *Endpoint[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// OnChange registers fn to run after every state change. Register before
// the first Refresh.
func (e *Endpoint[T]) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = append(e.onChange, fn)
}

// Update applies an optimistic edit to a copy of the current data. fn must
// replace, not mutate, any slices or maps it changes since readers may
// still hold the previous value. It reports false when there is no data.
func (e *Endpoint[T]) Update(fn func(*T)) bool {
	e.mu.Lock()
	if e.state.Data == nil {
		e.mu.Unlock()
		return false
	}
	next := *e.state.Data
	fn(&next)
	e.state.Data = &next
	e.mu.Unlock()

	e.changed()
	return true
}

func (e *Endpoint[T]) changed() {
	e.mu.Lock()
	fns := e.onChange
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Refresh fetches the stream and blocks until the request settles. It
// returns the classified error when that error was applied, and nil on
// success, supersession or cancellation.
//
// A foreground refresh with nothing loaded moves the stream to loading.
// Background refreshes never touch status while in flight.
func (e *Endpoint[T]) Refresh(ctx context.Context, background bool) error {
	tok := e.seq.Begin(ctx, e.key)
	defer tok.Release()

	e.mu.Lock()
	moved := !background && !e.state.HasData() && e.state.Status != StatusLoading
	if !background && !e.state.HasData() {
		e.state.Status = StatusLoading
	}
	e.mu.Unlock()
	if moved {
		e.changed()
	}

	spanCtx, span := e.tracer.Start(tok.Context(), "datasync.refresh",
		trace.WithAttributes(
			attribute.String("stream", e.key),
			attribute.Bool("background", background),
			attribute.Int64("seq", int64(tok.Seq())),
		))
	defer span.End()

	start := e.now()
	data, err := e.fetch(spanCtx)
	elapsed := e.now().Sub(start)

	if err == nil {
		return e.settleSuccess(tok, data, elapsed, span)
	}
	return e.settleFailure(tok, err, elapsed, span)
}

func (e *Endpoint[T]) settleSuccess(tok *Token, data *T, elapsed time.Duration, span trace.Span) error {
	e.mu.Lock()
	if !e.seq.IsCurrent(tok) {
		e.mu.Unlock()
		e.discard(tok, span)
		return nil
	}
	e.state = State[T]{
		Status:        StatusSuccess,
		Data:          data,
		LastSuccessAt: e.now(),
	}
	e.mu.Unlock()

	e.metrics.observe(e.key, OutcomeSuccess, elapsed)
	span.SetStatus(codes.Ok, "")
	if e.listener != nil {
		e.listener.OnSuccess(e.key)
	}
	e.changed()
	return nil
}

func (e *Endpoint[T]) settleFailure(tok *Token, err error, elapsed time.Duration, span trace.Span) error {
	n := api.Classify(err)

	e.mu.Lock()
	if !e.seq.IsCurrent(tok) {
		e.mu.Unlock()
		e.discard(tok, span)
		return nil
	}
	if n == nil {
		// Canceled by the caller rather than superseded: drop a
		// loading state that will never resolve.
		reverted := e.state.Status == StatusLoading && !e.state.HasData()
		if reverted {
			e.state.Status = StatusIdle
		}
		e.mu.Unlock()
		e.metrics.observe(e.key, OutcomeCanceled, elapsed)
		span.SetAttributes(attribute.String("outcome", OutcomeCanceled))
		if reverted {
			e.changed()
		}
		return nil
	}

	var payload *api.NotFoundPayload
	if n.Kind == api.KindNotFound && e.notFound != nil {
		payload = e.notFound(n)
	}
	if payload != nil {
		e.state = State[T]{
			Status:        StatusSuccess,
			NotFound:      payload,
			LastSuccessAt: e.state.LastSuccessAt,
		}
		e.mu.Unlock()

		e.metrics.observe(e.key, OutcomeNotFound, elapsed)
		span.SetAttributes(attribute.String("outcome", OutcomeNotFound))
		e.log.Debug("%s: no data yet: %s", e.key, n.Message)
		if e.listener != nil {
			e.listener.OnSuccess(e.key)
		}
		e.changed()
		return nil
	}

	if !e.state.HasData() {
		e.state.Status = StatusError
	}
	e.state.Error = n
	e.mu.Unlock()

	e.metrics.observe(e.key, OutcomeError, elapsed)
	e.metrics.classified(e.key, n.Kind)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(n.Kind))
	e.log.Debug("%s: %s error: %s", e.key, n.Kind, n.Message)

	if e.listener != nil && (n.Kind == api.KindAuth || n.Kind == api.KindForbidden) {
		e.listener.OnAuthError(e.key, n)
	}
	e.changed()
	return n
}

func (e *Endpoint[T]) discard(tok *Token, span trace.Span) {
	e.metrics.observe(e.key, OutcomeDiscarded, 0)
	span.SetAttributes(attribute.String("outcome", OutcomeDiscarded))
	e.log.Debug("%s: discarded superseded response seq=%d", e.key, tok.Seq())
}
