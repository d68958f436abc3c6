package datasync

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/logger"
)

// NotificationsAPI is the slice of the backend the notification feed uses.
type NotificationsAPI interface {
	Notifications(ctx context.Context) (*api.NotificationsResponse, error)
	MarkNotificationsRead(ctx context.Context, ids []int64) (*api.MarkReadResponse, error)
}

// NotificationsConfig configures a Notifications controller. A zero Period
// uses DefaultNotificationsPeriod; a negative one disables polling.
type NotificationsConfig struct {
	Period  time.Duration
	Timeout time.Duration
	Logger  logger.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// NotificationsState is what the notification badge and feed render.
type NotificationsState struct {
	Status      Status
	Items       []api.NotificationItem
	UnreadCount int
	Error       *api.NormalizedError
	// Unavailable is set while the last refresh failed. The feed is an
	// optional feature, so the view hides it rather than show an error.
	Unavailable   bool
	LastSuccessAt time.Time
}

// Notifications polls the notification feed and applies mark-read
// optimistically.
type Notifications struct {
	client   NotificationsAPI
	endpoint *Endpoint[api.NotificationsResponse]
	poller   *Poller
	seq      *Sequencer
	log      logger.Logger
	updates  chan struct{}

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	closed    bool
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewNotifications creates a stopped notifications controller.
func NewNotifications(client NotificationsAPI, cfg NotificationsConfig) *Notifications {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	n := &Notifications{
		client:  client,
		seq:     NewSequencer(cfg.Timeout),
		log:     logger.WithPrefix(log, "[notifications]"),
		updates: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	n.endpoint = NewEndpoint(client.Notifications, EndpointConfig{
		Key:       StreamNotifications,
		Sequencer: n.seq,
		Logger:    n.log,
		Metrics:   cfg.Metrics,
		Now:       cfg.Now,
	})
	n.endpoint.OnChange(n.notify)
	n.poller = NewPoller(periodOr(cfg.Period, DefaultNotificationsPeriod), func(ctx context.Context) {
		n.spawn(func() { _ = n.endpoint.Refresh(ctx, true) })
	})
	return n
}

// Start fetches the feed once and then polls it until ctx ends or Close.
func (n *Notifications) Start(ctx context.Context) {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	runCtx, runCancel := context.WithCancel(ctx)
	context.AfterFunc(n.ctx, runCancel)
	n.ctx = runCtx
	n.mu.Unlock()

	n.poller.Start(runCtx, true)
	n.spawn(func() { _ = n.endpoint.Refresh(runCtx, false) })
}

// Close stops polling, cancels in-flight requests and waits for spawned
// work to finish.
func (n *Notifications) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.cancel()
		n.mu.Unlock()

		n.poller.Stop()
		n.seq.Close()
		n.wg.Wait()
	})
}

// Updates signals after any state change. Signals coalesce.
func (n *Notifications) Updates() <-chan struct{} {
	return n.updates
}

func (n *Notifications) notify() {
	select {
	case n.updates <- struct{}{}:
	default:
	}
}

func (n *Notifications) spawn(fn func()) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()
	go func() {
		defer n.wg.Done()
		fn()
	}()
}

// Refresh fetches the feed and waits for it to settle.
func (n *Notifications) Refresh(ctx context.Context) error {
	return n.endpoint.Refresh(ctx, false)
}

// State returns the current feed.
func (n *Notifications) State() NotificationsState {
	es := n.endpoint.State()
	s := NotificationsState{
		Status:        es.Status,
		Error:         es.Error,
		Unavailable:   es.Error != nil,
		LastSuccessAt: es.LastSuccessAt,
	}
	if es.Data != nil {
		s.Items = es.Data.Notifications
		for _, item := range s.Items {
			if !item.IsRead {
				s.UnreadCount++
			}
		}
	}
	return s
}

// MarkAllRead marks every unread notification as read. Local state flips
// first; a failed request is logged and left for the next poll to
// reconcile. It returns the number of notifications flipped and issues no
// request when there is nothing unread.
func (n *Notifications) MarkAllRead(ctx context.Context) int {
	var ids []int64
	if data := n.endpoint.State().Data; data != nil {
		ids = data.UnreadIDs()
	}
	return n.markRead(ctx, ids)
}

// MarkRead marks specific notifications as read. Ids that are unknown or
// already read are skipped.
func (n *Notifications) MarkRead(ctx context.Context, ids ...int64) int {
	data := n.endpoint.State().Data
	if data == nil {
		return 0
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var unread []int64
	for _, id := range data.UnreadIDs() {
		if want[id] {
			unread = append(unread, id)
		}
	}
	return n.markRead(ctx, unread)
}

func (n *Notifications) markRead(ctx context.Context, ids []int64) int {
	if len(ids) == 0 {
		return 0
	}

	flip := make(map[int64]bool, len(ids))
	for _, id := range ids {
		flip[id] = true
	}
	n.endpoint.Update(func(r *api.NotificationsResponse) {
		items := make([]api.NotificationItem, len(r.Notifications))
		copy(items, r.Notifications)
		for i := range items {
			if flip[items[i].ID] {
				items[i].IsRead = true
			}
		}
		r.Notifications = items
	})

	if _, err := n.client.MarkNotificationsRead(ctx, ids); err != nil {
		if ne := api.Classify(err); ne != nil {
			n.log.Warn("mark-read of %d notifications failed: %s", len(ids), ne.Message)
		}
	}
	return len(ids)
}
