package permissions

import (
	"context"
	"sync"
	"time"

	"github.com/fsonnyboy/medcare/internal/auth"
	"github.com/fsonnyboy/medcare/internal/medicine"
	"github.com/fsonnyboy/medcare/pkg/logger"
)

// Request quota ceilings enforced server-side and mirrored here for
// display gating. The monthly and approved ceilings are independent
// checks; a request passes only when it clears both.
const (
	MaxRequestsPerMonth = 5
	MaxApprovedRequests = 3
)

// RequestLimitInfo is the derived quota snapshot for the current user. It
// is never persisted; it is recomputed from the quota endpoint on demand.
type RequestLimitInfo struct {
	CanMakeRequest    bool
	CurrentCount      int
	MaxAllowed        int
	RemainingRequests int
	ResetDate         time.Time
}

// AuthState is the read-only view of the owned auth state.
type AuthState interface {
	CurrentUser() *auth.User
}

// LimitFetcher fetches the raw quota counters.
type LimitFetcher interface {
	CheckRequestLimits(ctx context.Context, userID int64) (*medicine.LimitCounts, error)
}

// Engine derives every UI-facing capability from the cached user status
// plus the quota snapshot. Screens go through these predicates and never
// inspect status directly.
type Engine struct {
	authState AuthState
	fetcher   LimitFetcher
	log       logger.Logger

	mu       sync.RWMutex
	snapshot *RequestLimitInfo
	loading  bool

	// fetchGen increments whenever the user identity changes. A completed
	// fetch commits only if its captured generation still matches, making
	// last-write-wins explicit and keeping one user's quota from leaking
	// into another's view.
	fetchGen   uint64
	lastUserID int64
}

func NewEngine(authState AuthState, fetcher LimitFetcher, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{authState: authState, fetcher: fetcher, log: log}
}

// HandleUserChange is wired to the auth manager's user subscription. A
// user switch clears the snapshot synchronously, before any new fetch is
// issued; an approved user then gets a background quota fetch.
func (e *Engine) HandleUserChange(user *auth.User) {
	var userID int64
	if user != nil {
		userID = user.ID
	}

	e.mu.Lock()
	if userID != e.lastUserID {
		e.fetchGen++
		e.snapshot = nil
		e.lastUserID = userID
	}
	if user == nil || user.Status != auth.StatusApproved {
		e.snapshot = nil
		e.mu.Unlock()
		return
	}
	gen := e.fetchGen
	e.loading = true
	e.mu.Unlock()

	go e.fetchAndCommit(context.Background(), userID, gen)
}

// RefreshRequestLimits re-fetches the quota snapshot. Safe to call
// concurrently; overlapping fetches resolve last-write-wins.
func (e *Engine) RefreshRequestLimits(ctx context.Context) error {
	user := e.authState.CurrentUser()
	if user == nil || user.Status != auth.StatusApproved {
		return nil
	}

	e.mu.Lock()
	gen := e.fetchGen
	e.loading = true
	e.mu.Unlock()

	return e.fetchAndCommit(ctx, user.ID, gen)
}

func (e *Engine) fetchAndCommit(ctx context.Context, userID int64, gen uint64) error {
	counts, err := e.fetcher.CheckRequestLimits(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	if err != nil {
		// Keep the previous snapshot; stale display beats flapping.
		e.log.Error("failed to load request limits", logger.Field{Key: "error", Value: err.Error()})
		return err
	}

	if e.fetchGen != gen {
		// The user changed while the fetch was in flight; discard.
		return nil
	}

	info := DeriveLimits(*counts, time.Now())
	e.snapshot = &info
	return nil
}

// DeriveLimits computes the display snapshot from the raw counters.
func DeriveLimits(counts medicine.LimitCounts, now time.Time) RequestLimitInfo {
	remaining := MaxRequestsPerMonth - counts.CurrentCount
	if remaining < 0 {
		remaining = 0
	}

	return RequestLimitInfo{
		CanMakeRequest: counts.CurrentCount < MaxRequestsPerMonth &&
			counts.ApprovedCount < MaxApprovedRequests,
		CurrentCount:      counts.CurrentCount,
		MaxAllowed:        MaxRequestsPerMonth,
		RemainingRequests: remaining,
		ResetDate:         nextResetDate(now),
	}
}

// nextResetDate is the first day of the following month.
func nextResetDate(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}

// RequestLimits returns the cached snapshot, or nil when none is loaded.
func (e *Engine) RequestLimits() *RequestLimitInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapshot == nil {
		return nil
	}
	copied := *e.snapshot
	return &copied
}

// LoadingLimits reports whether a quota fetch is in flight.
func (e *Engine) LoadingLimits() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// UserStatus returns the current moderation status, UNAUTHENTICATED when
// no user is cached.
func (e *Engine) UserStatus() auth.Status {
	user := e.authState.CurrentUser()
	if user == nil {
		return auth.StatusUnauthenticated
	}
	return user.Status
}

func (e *Engine) IsApprovedUser() bool { return e.UserStatus() == auth.StatusApproved }
func (e *Engine) IsPendingUser() bool  { return e.UserStatus() == auth.StatusPending }
func (e *Engine) IsRejectedUser() bool { return e.UserStatus() == auth.StatusRejected }

// NeedsApproval reports whether the account is still awaiting moderation.
func (e *Engine) NeedsApproval() bool { return e.IsPendingUser() }

// IsFullyApproved mirrors IsApprovedUser for display callers.
func (e *Engine) IsFullyApproved() bool { return e.IsApprovedUser() }

// CanViewScreens: any cached user may browse.
func (e *Engine) CanViewScreens() bool {
	return e.authState.CurrentUser() != nil
}

// CanMakeRequests is the status-only gate for the request flow.
func (e *Engine) CanMakeRequests() bool { return e.IsApprovedUser() }

// CanAddToCart is the status-only gate for the cart flow.
func (e *Engine) CanAddToCart() bool { return e.IsApprovedUser() }

// CanMakeRequestThisMonth folds the quota snapshot in. No snapshot means
// no: the gate fails closed.
func (e *Engine) CanMakeRequestThisMonth() bool {
	if !e.IsApprovedUser() {
		return false
	}
	info := e.RequestLimits()
	return info != nil && info.CanMakeRequest
}

// CanRequestMedicine combines the status gate with the monthly quota gate.
func (e *Engine) CanRequestMedicine() bool {
	return e.CanMakeRequests() && e.CanMakeRequestThisMonth()
}

// HasReachedRequestLimits reports a loaded snapshot that denies requests.
func (e *Engine) HasReachedRequestLimits() bool {
	info := e.RequestLimits()
	return info != nil && !info.CanMakeRequest
}

func (e *Engine) RemainingRequests() int {
	if info := e.RequestLimits(); info != nil {
		return info.RemainingRequests
	}
	return 0
}

func (e *Engine) CurrentRequestCount() int {
	if info := e.RequestLimits(); info != nil {
		return info.CurrentCount
	}
	return 0
}

func (e *Engine) MaxAllowedRequests() int {
	if info := e.RequestLimits(); info != nil {
		return info.MaxAllowed
	}
	return 0
}
