package datasync

import (
	"context"
	"sync"
	"time"
)

// Sequencer hands out request tokens per stream key. Beginning a request
// cancels the one before it, and only the last issued token is current.
type Sequencer struct {
	mu      sync.Mutex
	streams map[string]*stream
	timeout time.Duration
	closed  bool
}

type stream struct {
	seq    uint64
	cancel context.CancelFunc
}

// Token couples a sequence number with the cancellation signal of one
// request.
type Token struct {
	key    string
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context is canceled when the token is superseded, released, times out
// or the sequencer closes.
func (t *Token) Context() context.Context { return t.ctx }

// Seq returns the token's sequence number. Sequence numbers start at 1.
func (t *Token) Seq() uint64 { return t.seq }

// Key returns the stream key the token was issued for.
func (t *Token) Key() string { return t.key }

// Release frees the token's context. Call it once the request has settled.
func (t *Token) Release() { t.cancel() }

// NewSequencer creates a sequencer. A positive timeout bounds every
// request; zero leaves requests open until superseded.
func NewSequencer(timeout time.Duration) *Sequencer {
	return &Sequencer{
		streams: make(map[string]*stream),
		timeout: timeout,
	}
}

// Begin retires any in-flight request for key and returns a fresh token
// bound to parent.
func (s *Sequencer) Begin(parent context.Context, key string) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[key]
	if !ok {
		st = &stream{}
		s.streams[key] = st
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.seq++

	var ctx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	if s.closed {
		cancel()
	}
	st.cancel = cancel

	return &Token{key: key, seq: st.seq, ctx: ctx, cancel: cancel}
}

// IsCurrent reports whether tok is the most recently issued token for its
// stream and the sequencer is still open.
func (s *Sequencer) IsCurrent(tok *Token) bool {
	if tok == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	st, ok := s.streams[tok.key]
	return ok && st.seq == tok.seq
}

// Cancel retires the in-flight request for key, if any. Its result will
// not be applied.
func (s *Sequencer) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[key]
	if !ok {
		return
	}
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	st.seq++
}

// Close cancels every in-flight request. No token is current afterwards.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, st := range s.streams {
		if st.cancel != nil {
			st.cancel()
			st.cancel = nil
		}
	}
}
