package datasync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/aidash/internal/api"
)

const waitFor = 2 * time.Second

type result[T any] struct {
	data *T
	err  error
}

// pendingCall is one request held open until the test replies.
type pendingCall[T any] struct {
	ctx  context.Context
	args []any
	resp chan result[T]
}

func (c *pendingCall[T]) reply(data *T) { c.resp <- result[T]{data: data} }
func (c *pendingCall[T]) fail(err error) { c.resp <- result[T]{err: err} }

// gate hands each request to the test. With honorCancel false the fetch
// ignores its context, like a transport that delivers a response after
// the caller gave up on it.
type gate[T any] struct {
	honorCancel bool
	calls       chan *pendingCall[T]
}

func newGate[T any](honorCancel bool) *gate[T] {
	return &gate[T]{honorCancel: honorCancel, calls: make(chan *pendingCall[T], 32)}
}

func (g *gate[T]) do(ctx context.Context, args ...any) (*T, error) {
	c := &pendingCall[T]{ctx: ctx, args: args, resp: make(chan result[T], 1)}
	g.calls <- c
	if !g.honorCancel {
		r := <-c.resp
		return r.data, r.err
	}
	select {
	case r := <-c.resp:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gate[T]) fetch(ctx context.Context) (*T, error) {
	return g.do(ctx)
}

func (g *gate[T]) next(t *testing.T) *pendingCall[T] {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for request")
		return nil
	}
}

func (g *gate[T]) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected request with args %v", c.args)
	case <-time.After(30 * time.Millisecond):
	}
}

// recorder captures every state an endpoint publishes.
type recorder[T any] struct {
	mu     sync.Mutex
	states []State[T]
}

func record[T any](e *Endpoint[T]) *recorder[T] {
	r := &recorder[T]{}
	e.OnChange(func() {
		s := e.State()
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder[T]) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.states))
	for i, s := range r.states {
		out[i] = s.Status
	}
	return out
}

// authEvents records listener callbacks.
type authEvents struct {
	mu        sync.Mutex
	authErrs  []api.ErrorKind
	successes []string
}

func (a *authEvents) OnAuthError(_ string, err *api.NormalizedError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authErrs = append(a.authErrs, err.Kind)
}

func (a *authEvents) OnSuccess(stream string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successes = append(a.successes, stream)
}

func (a *authEvents) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.authErrs), len(a.successes)
}

// runAsync runs fn on its own goroutine and returns a channel carrying its
// error.
func runAsync(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return ch
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for refresh to settle")
		return nil
	}
}

func authErr(loginURL string) *api.NormalizedError {
	return &api.NormalizedError{Kind: api.KindAuth, Message: api.MsgAuthRequired, Status: 401, LoginURL: loginURL}
}

func forbiddenErr() *api.NormalizedError {
	return &api.NormalizedError{Kind: api.KindForbidden, Message: api.MsgAccessDenied, Status: 403}
}

func httpErr(status int) *api.NormalizedError {
	return &api.NormalizedError{Kind: api.KindHTTP, Message: "Request failed", Status: status}
}

func notFoundErr(body string) *api.NormalizedError {
	return &api.NormalizedError{Kind: api.KindNotFound, Message: "No snapshots yet.", Status: 404, Data: []byte(body)}
}
