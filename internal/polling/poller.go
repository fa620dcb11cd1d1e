package polling

import (
	"context"
	"sync"
	"time"

	"github.com/fsonnyboy/medcare/internal/auth"
	"github.com/fsonnyboy/medcare/pkg/logger"
)

// DefaultInterval is how often a pending user's status is re-checked.
const DefaultInterval = 30 * time.Second

// Refresher is the slice of the auth manager the poller needs: a full
// profile re-fetch that is idempotent and safe to call on a timer, plus
// enough state to tell whether a re-fetch can succeed at all.
type Refresher interface {
	RefreshUserData(ctx context.Context) error
	CurrentUser() *auth.User
	Authenticated() bool
}

type Config struct {
	Interval       time.Duration
	OnStatusChange func(oldStatus, newStatus auth.Status)
	Logger         logger.Logger
}

// Poller re-checks a pending user's approval status in the background.
// It runs only while the status is PENDING; any transition away from
// PENDING stops the loop. There is exactly one authoritative run at a
// time: starting replaces the previous run atomically, so duplicate
// concurrent timers cannot exist.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	onChange  func(oldStatus, newStatus auth.Status)
	log       logger.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	runGen     uint64
	lastStatus auth.Status
	enabled    bool
}

func New(refresher Refresher, cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop{}
	}
	return &Poller{
		refresher: refresher,
		interval:  interval,
		onChange:  cfg.OnStatusChange,
		log:       log,
		enabled:   true,
	}
}

// SetEnabled toggles polling and reconciles the running state.
func (p *Poller) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
	p.Sync()
}

// Sync reconciles the poller against the current user: polling runs iff
// enabled, the status is PENDING, and a session exists to poll with. A
// pending profile cached without a session (OAuth signup, or a restart of
// one) has no authenticated refresh path, so approval can only be observed
// by signing in again. Wire this to the auth manager's user subscription.
func (p *Poller) Sync() {
	user := p.refresher.CurrentUser()
	authed := p.refresher.Authenticated()

	p.mu.Lock()
	shouldPoll := p.enabled && authed && user != nil && user.Status == auth.StatusPending
	running := p.cancel != nil
	p.mu.Unlock()

	switch {
	case shouldPoll && !running:
		p.Start()
	case !shouldPoll && running:
		p.Stop()
	}
}

// Start begins polling, replacing any previous run. The old run's handle
// is cancelled before the new one is installed.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.runGen++
	gen := p.runGen
	if user := p.refresher.CurrentUser(); user != nil {
		p.lastStatus = user.Status
	} else {
		p.lastStatus = auth.StatusUnauthenticated
	}
	p.mu.Unlock()

	go p.run(ctx, gen)
}

// Stop cancels the live run, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
}

// IsPolling reports whether a run is live.
func (p *Poller) IsPolling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(ctx, gen) {
				return
			}
		}
	}
}

// tick performs one poll cycle and reports whether polling should
// continue. Failures are swallowed and the schedule keeps running; there
// is no backoff.
func (p *Poller) tick(ctx context.Context, gen uint64) bool {
	p.mu.Lock()
	previous := p.lastStatus
	p.mu.Unlock()

	if err := p.refresher.RefreshUserData(ctx); err != nil {
		p.log.Warn("status poll failed", logger.Field{Key: "error", Value: err.Error()})
		return true
	}

	user := p.refresher.CurrentUser()
	current := auth.StatusUnauthenticated
	if user != nil {
		current = user.Status
	}

	p.mu.Lock()
	if p.runGen != gen {
		// A newer run owns the status bookkeeping.
		p.mu.Unlock()
		return false
	}
	changed := previous != auth.StatusUnauthenticated && previous != current
	p.lastStatus = current
	stopping := current != auth.StatusPending
	if stopping && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.log.Info("user status changed",
			logger.Field{Key: "from", Value: string(previous)},
			logger.Field{Key: "to", Value: string(current)},
		)
		p.onChange(previous, current)
	}

	return !stopping
}
