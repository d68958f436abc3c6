package datasync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Poller calls a callback every period while enabled. The callback is read
// on each tick, so SetCallback takes effect without restarting the timer.
//
// A Poller only schedules. It never cancels work a callback started.
type Poller struct {
	fn atomic.Pointer[func(context.Context)]

	mu      sync.Mutex
	period  time.Duration
	enabled bool
	started bool
	parent  context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(period time.Duration, fn func(context.Context)) *Poller {
	p := &Poller{period: period, parent: context.Background()}
	p.SetCallback(fn)
	return p
}

// Start begins ticking under ctx. A non-positive period or enabled=false
// leaves the poller idle until SetPeriod or SetEnabled changes that.
func (p *Poller) Start(ctx context.Context, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parent = ctx
	p.enabled = enabled
	p.started = true
	p.restartLocked()
}

// SetCallback replaces the callback used by subsequent ticks.
func (p *Poller) SetCallback(fn func(context.Context)) {
	if fn == nil {
		fn = func(context.Context) {}
	}
	p.fn.Store(&fn)
}

// SetEnabled turns ticking on or off.
func (p *Poller) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled == enabled {
		return
	}
	p.enabled = enabled
	p.restartLocked()
}

// SetPeriod changes the tick period. The next tick is a full period away.
func (p *Poller) SetPeriod(period time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.period == period {
		return
	}
	p.period = period
	p.restartLocked()
}

// Enabled reports whether the poller is currently ticking.
func (p *Poller) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Stop halts ticking and waits for the tick goroutine to exit. It must not
// be called from inside the callback.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.started = false
	done := p.done
	p.stopLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = nil
	p.done = nil
}

func (p *Poller) restartLocked() {
	p.stopLocked()
	if !p.started || !p.enabled || p.period <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(p.parent)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.loop(ctx, p.parent, p.period, done)
}

// loop ticks until ctx ends. Callbacks get parent, not ctx, so disabling
// the poller leaves their requests running.
func (p *Poller) loop(ctx, parent context.Context, period time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			(*p.fn.Load())(parent)
		}
	}
}
