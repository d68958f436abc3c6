package datasync

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/logger"
)

// Stream keys used by the dashboard.
const (
	StreamLatest        = "latest"
	StreamHistory       = "history"
	StreamNotifications = "notifications"
)

// Default poll periods.
const (
	DefaultLatestPeriod        = 5 * time.Second
	DefaultHistoryPeriod       = 30 * time.Second
	DefaultNotificationsPeriod = 10 * time.Second
)

// Windows lists the history window sizes the backend accepts, in minutes.
var Windows = []int{15, 60, 360, 1440}

// DefaultWindow is used when no or an unknown window is requested.
const DefaultWindow = 60

// NormalizeWindow maps minutes onto an accepted window.
func NormalizeWindow(minutes int) int {
	for _, w := range Windows {
		if w == minutes {
			return minutes
		}
	}
	return DefaultWindow
}

// NextWindow returns the window after minutes, wrapping around.
func NextWindow(minutes int) int {
	for i, w := range Windows {
		if w == minutes {
			return Windows[(i+1)%len(Windows)]
		}
	}
	return DefaultWindow
}

// MetricsAPI is the slice of the backend the dashboard reads.
type MetricsAPI interface {
	MetricsLatest(ctx context.Context, server string) (*api.LatestResponse, error)
	MetricsHistory(ctx context.Context, server string, minutes int) (*api.HistoryResponse, error)
}

// Params selects what the dashboard shows. An empty Server lets the
// backend choose.
type Params struct {
	Server  string
	Minutes int
}

// DashboardConfig configures a Dashboard. Zero periods use the defaults;
// negative periods disable that poll.
type DashboardConfig struct {
	Params        Params
	LatestPeriod  time.Duration
	HistoryPeriod time.Duration
	// Live enables periodic polling. Explicit refreshes always run.
	Live    bool
	Timeout time.Duration
	Logger  logger.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// DashboardState is everything the dashboard view renders.
type DashboardState struct {
	Params  Params
	Latest  State[api.LatestResponse]
	History State[api.HistoryResponse]

	Servers        []api.ServerSummary
	SelectedServer *api.ServerSummary

	AuthRequired bool
	AuthLoginURL string
	AccessDenied bool

	Live           bool
	Polling        bool
	InitialLoading bool
	Refreshing     bool

	LastLatestSuccessAt  time.Time
	LastHistorySuccessAt time.Time
}

// Dashboard keeps the latest snapshot and the history window in sync with
// the backend and derives server selection and auth state from both.
type Dashboard struct {
	seq     *Sequencer
	latest  *Endpoint[api.LatestResponse]
	history *Endpoint[api.HistoryResponse]

	latestPoller  *Poller
	historyPoller *Poller

	log     logger.Logger
	updates chan struct{}

	mu           sync.Mutex
	params       Params
	live         bool
	authRequired bool
	authLoginURL string
	accessDenied bool
	refreshing   int
	ctx          context.Context
	cancel       context.CancelFunc
	started      bool
	closed       bool

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDashboard creates a dashboard reading from client. Call Start to begin
// polling, or drive it with RefreshAll.
func NewDashboard(client MetricsAPI, cfg DashboardConfig) *Dashboard {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		seq:     NewSequencer(cfg.Timeout),
		log:     log,
		updates: make(chan struct{}, 1),
		params:  Params{Server: cfg.Params.Server, Minutes: NormalizeWindow(cfg.Params.Minutes)},
		live:    cfg.Live,
		ctx:     ctx,
		cancel:  cancel,
	}

	listener := dashboardListener{d}
	d.latest = NewEndpoint(func(ctx context.Context) (*api.LatestResponse, error) {
		p := d.Params()
		return client.MetricsLatest(ctx, p.Server)
	}, EndpointConfig{
		Key:       StreamLatest,
		Sequencer: d.seq,
		NotFound:  api.AsNotFoundPayload,
		Listener:  listener,
		Logger:    logger.WithPrefix(log, "[sync]"),
		Metrics:   cfg.Metrics,
		Now:       cfg.Now,
	})
	d.history = NewEndpoint(func(ctx context.Context) (*api.HistoryResponse, error) {
		p := d.Params()
		return client.MetricsHistory(ctx, p.Server, p.Minutes)
	}, EndpointConfig{
		Key:       StreamHistory,
		Sequencer: d.seq,
		Listener:  listener,
		Logger:    logger.WithPrefix(log, "[sync]"),
		Metrics:   cfg.Metrics,
		Now:       cfg.Now,
	})
	d.latest.OnChange(d.notify)
	d.history.OnChange(d.notify)

	d.latestPoller = NewPoller(periodOr(cfg.LatestPeriod, DefaultLatestPeriod), func(ctx context.Context) {
		d.spawn(func() { _ = d.latest.Refresh(ctx, true) })
	})
	d.historyPoller = NewPoller(periodOr(cfg.HistoryPeriod, DefaultHistoryPeriod), func(ctx context.Context) {
		d.spawn(func() { _ = d.history.Refresh(ctx, true) })
	})
	return d
}

func periodOr(p, def time.Duration) time.Duration {
	if p == 0 {
		return def
	}
	return p
}

// Start kicks off a foreground RefreshAll and begins polling. Polling stops
// when ctx ends or Close is called.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	runCtx, runCancel := context.WithCancel(ctx)
	context.AfterFunc(d.ctx, runCancel)
	d.ctx = runCtx
	enabled := d.pollingLocked()
	d.mu.Unlock()

	d.latestPoller.Start(runCtx, enabled)
	d.historyPoller.Start(runCtx, enabled)
	d.spawn(func() { d.RefreshAll(runCtx, false) })
}

// Close stops polling, cancels in-flight requests and waits for spawned
// refreshes to finish. It is safe to call more than once.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.cancel()
		d.mu.Unlock()

		d.latestPoller.Stop()
		d.historyPoller.Stop()
		d.seq.Close()
		d.wg.Wait()
	})
}

// Updates signals after any state change. Signals coalesce: a receiver
// that falls behind sees one pending signal, then reads State.
func (d *Dashboard) Updates() <-chan struct{} {
	return d.updates
}

func (d *Dashboard) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}

func (d *Dashboard) spawn(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// RefreshAll refreshes both streams concurrently and waits for both to
// settle. A failure in one stream never affects the other.
func (d *Dashboard) RefreshAll(ctx context.Context, background bool) {
	d.mu.Lock()
	d.refreshing++
	d.mu.Unlock()
	d.notify()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = d.latest.Refresh(ctx, background)
	}()
	go func() {
		defer wg.Done()
		_ = d.history.Refresh(ctx, background)
	}()
	wg.Wait()

	d.mu.Lock()
	d.refreshing--
	d.mu.Unlock()
	d.notify()
}

// RefreshLatest refreshes the latest snapshot in the foreground.
func (d *Dashboard) RefreshLatest(ctx context.Context) error {
	return d.latest.Refresh(ctx, false)
}

// RefreshHistory refreshes the history window in the foreground.
func (d *Dashboard) RefreshHistory(ctx context.Context) error {
	return d.history.Refresh(ctx, false)
}

// Params returns the current selection.
func (d *Dashboard) Params() Params {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

// SetParams changes the selection. A change triggers a RefreshAll in the
// background goroutine pool; requests already in flight keep the
// parameters they started with and are superseded.
func (d *Dashboard) SetParams(p Params) {
	p.Minutes = NormalizeWindow(p.Minutes)

	d.mu.Lock()
	if p == d.params {
		d.mu.Unlock()
		return
	}
	d.params = p
	ctx := d.ctx
	d.mu.Unlock()

	d.notify()
	d.spawn(func() { d.RefreshAll(ctx, false) })
}

// SetLive toggles periodic polling.
func (d *Dashboard) SetLive(live bool) {
	d.mu.Lock()
	d.live = live
	d.mu.Unlock()
	d.syncPolling()
	d.notify()
}

func (d *Dashboard) pollingLocked() bool {
	return d.live && !d.authRequired && !d.accessDenied
}

func (d *Dashboard) syncPolling() {
	d.mu.Lock()
	enabled := d.pollingLocked()
	d.mu.Unlock()
	d.latestPoller.SetEnabled(enabled)
	d.historyPoller.SetEnabled(enabled)
}

// State returns a consistent snapshot of both streams and derived fields.
func (d *Dashboard) State() DashboardState {
	latest := d.latest.State()
	history := d.history.State()

	d.mu.Lock()
	s := DashboardState{
		Params:               d.params,
		Latest:               latest,
		History:              history,
		AuthRequired:         d.authRequired,
		AuthLoginURL:         d.authLoginURL,
		AccessDenied:         d.accessDenied,
		Live:                 d.live,
		Polling:              d.pollingLocked() && d.started,
		Refreshing:           d.refreshing > 0,
		LastLatestSuccessAt:  latest.LastSuccessAt,
		LastHistorySuccessAt: history.LastSuccessAt,
	}
	d.mu.Unlock()

	s.Servers = deriveServers(latest, history)
	s.SelectedServer = deriveSelected(s.Params.Server, s.Servers, latest, history)
	s.InitialLoading = pending(latest.Status) && pending(history.Status) &&
		!latest.HasData() && !history.HasData()
	return s
}

func pending(s Status) bool {
	return s == StatusIdle || s == StatusLoading
}

// deriveServers takes the first list available from the latest snapshot,
// the latest not-found payload, then history.
func deriveServers(latest State[api.LatestResponse], history State[api.HistoryResponse]) []api.ServerSummary {
	switch {
	case latest.Data != nil && latest.Data.Servers != nil:
		return latest.Data.Servers
	case latest.NotFound != nil && latest.NotFound.Servers != nil:
		return latest.NotFound.Servers
	case history.Data != nil && history.Data.Servers != nil:
		return history.Data.Servers
	}
	return nil
}

// deriveSelected prefers the explicit selection, then the server echoed by
// the streams, then the first listed server.
func deriveSelected(explicit string, servers []api.ServerSummary, latest State[api.LatestResponse], history State[api.HistoryResponse]) *api.ServerSummary {
	if explicit != "" {
		for i := range servers {
			if servers[i].Slug == explicit {
				s := servers[i]
				return &s
			}
		}
	}
	switch {
	case latest.Data != nil && latest.Data.SelectedServer != nil:
		return latest.Data.SelectedServer
	case latest.NotFound != nil && latest.NotFound.SelectedServer != nil:
		return latest.NotFound.SelectedServer
	case history.Data != nil && history.Data.SelectedServer != nil:
		return history.Data.SelectedServer
	}
	if len(servers) > 0 {
		s := servers[0]
		return &s
	}
	return nil
}

type dashboardListener struct{ d *Dashboard }

func (l dashboardListener) OnAuthError(stream string, err *api.NormalizedError) {
	d := l.d
	d.mu.Lock()
	switch err.Kind {
	case api.KindAuth:
		d.authRequired = true
		d.authLoginURL = err.LoginURL
	case api.KindForbidden:
		d.accessDenied = true
	}
	d.mu.Unlock()

	d.log.Warn("[sync] %s: %s, live refresh paused", stream, err.Message)
	d.syncPolling()
	d.notify()
}

func (l dashboardListener) OnSuccess(string) {
	d := l.d
	d.mu.Lock()
	wasBlocked := d.authRequired || d.accessDenied
	d.authRequired = false
	d.authLoginURL = ""
	d.accessDenied = false
	d.mu.Unlock()

	if wasBlocked {
		d.syncPolling()
		d.notify()
	}
}
