package permissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsonnyboy/medcare/internal/auth"
	"github.com/fsonnyboy/medcare/internal/medicine"
)

// stubAuth holds a swappable current user.
type stubAuth struct {
	mu   sync.Mutex
	user *auth.User
}

func (s *stubAuth) CurrentUser() *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *stubAuth) set(user *auth.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// stubFetcher returns canned counters, optionally blocking until released.
type stubFetcher struct {
	mu      sync.Mutex
	counts  medicine.LimitCounts
	err     error
	release chan struct{}
}

func (s *stubFetcher) CheckRequestLimits(ctx context.Context, userID int64) (*medicine.LimitCounts, error) {
	s.mu.Lock()
	counts, err, release := s.counts, s.err, s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	copied := counts
	return &copied, nil
}

func (s *stubFetcher) setCounts(counts medicine.LimitCounts) {
	s.mu.Lock()
	s.counts = counts
	s.mu.Unlock()
}

func userWithStatus(id int64, status auth.Status) *auth.User {
	return &auth.User{ID: id, Username: "u", Status: status}
}

func TestStatusPredicates(t *testing.T) {
	cases := []struct {
		name        string
		user        *auth.User
		approved    bool
		pending     bool
		rejected    bool
		canView     bool
		canRequest  bool
		canAddCart  bool
	}{
		{name: "signed out", user: nil},
		{name: "pending", user: userWithStatus(1, auth.StatusPending), pending: true, canView: true},
		{name: "rejected", user: userWithStatus(1, auth.StatusRejected), rejected: true, canView: true},
		{
			name: "approved", user: userWithStatus(1, auth.StatusApproved),
			approved: true, canView: true, canRequest: true, canAddCart: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(&stubAuth{user: tc.user}, &stubFetcher{}, nil)

			assert.Equal(t, tc.approved, e.IsApprovedUser())
			assert.Equal(t, tc.approved, e.IsFullyApproved())
			assert.Equal(t, tc.pending, e.IsPendingUser())
			assert.Equal(t, tc.pending, e.NeedsApproval())
			assert.Equal(t, tc.rejected, e.IsRejectedUser())
			assert.Equal(t, tc.canView, e.CanViewScreens())
			assert.Equal(t, tc.canRequest, e.CanMakeRequests())
			assert.Equal(t, tc.canAddCart, e.CanAddToCart())
		})
	}
}

func TestDeriveLimits(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		counts    medicine.LimitCounts
		can       bool
		remaining int
	}{
		{"fresh month", medicine.LimitCounts{CurrentCount: 0, ApprovedCount: 0}, true, 5},
		{"under both ceilings", medicine.LimitCounts{CurrentCount: 4, ApprovedCount: 2}, true, 1},
		{"monthly ceiling hit", medicine.LimitCounts{CurrentCount: 5, ApprovedCount: 0}, false, 0},
		{"approved ceiling hit", medicine.LimitCounts{CurrentCount: 3, ApprovedCount: 3}, false, 2},
		{"both hit", medicine.LimitCounts{CurrentCount: 5, ApprovedCount: 3}, false, 0},
		{"over monthly ceiling", medicine.LimitCounts{CurrentCount: 9, ApprovedCount: 0}, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := DeriveLimits(tc.counts, now)

			assert.Equal(t, tc.can, info.CanMakeRequest)
			assert.Equal(t, tc.remaining, info.RemainingRequests)
			assert.Equal(t, tc.counts.CurrentCount, info.CurrentCount)
			assert.Equal(t, MaxRequestsPerMonth, info.MaxAllowed)
		})
	}
}

func TestDeriveLimits_ResetDate(t *testing.T) {
	march := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), DeriveLimits(medicine.LimitCounts{}, march).ResetDate)

	// year rollover
	december := time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), DeriveLimits(medicine.LimitCounts{}, december).ResetDate)
}

func TestRefreshRequestLimits_PopulatesSnapshot(t *testing.T) {
	authState := &stubAuth{user: userWithStatus(1, auth.StatusApproved)}
	fetcher := &stubFetcher{counts: medicine.LimitCounts{CurrentCount: 2, ApprovedCount: 1}}
	e := NewEngine(authState, fetcher, nil)

	require.NoError(t, e.RefreshRequestLimits(context.Background()))

	info := e.RequestLimits()
	require.NotNil(t, info)
	assert.True(t, info.CanMakeRequest)
	assert.Equal(t, 3, e.RemainingRequests())
	assert.Equal(t, 2, e.CurrentRequestCount())
	assert.Equal(t, 5, e.MaxAllowedRequests())
	assert.True(t, e.CanMakeRequestThisMonth())
	assert.True(t, e.CanRequestMedicine())
}

func TestRefreshRequestLimits_SkipsNonApproved(t *testing.T) {
	authState := &stubAuth{user: userWithStatus(1, auth.StatusPending)}
	fetcher := &stubFetcher{}
	e := NewEngine(authState, fetcher, nil)

	require.NoError(t, e.RefreshRequestLimits(context.Background()))
	assert.Nil(t, e.RequestLimits())
}

func TestQuotaGateFailsClosedWithoutSnapshot(t *testing.T) {
	e := NewEngine(&stubAuth{user: userWithStatus(1, auth.StatusApproved)}, &stubFetcher{}, nil)

	// approved status alone does not open the quota gate
	assert.True(t, e.CanMakeRequests())
	assert.False(t, e.CanMakeRequestThisMonth())
	assert.False(t, e.CanRequestMedicine())
	assert.False(t, e.HasReachedRequestLimits())
	assert.Equal(t, 0, e.RemainingRequests())
}

func TestFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	authState := &stubAuth{user: userWithStatus(1, auth.StatusApproved)}
	fetcher := &stubFetcher{counts: medicine.LimitCounts{CurrentCount: 1}}
	e := NewEngine(authState, fetcher, nil)

	require.NoError(t, e.RefreshRequestLimits(context.Background()))
	require.NotNil(t, e.RequestLimits())

	fetcher.mu.Lock()
	fetcher.err = errors.New("quota endpoint down")
	fetcher.mu.Unlock()

	require.Error(t, e.RefreshRequestLimits(context.Background()))

	info := e.RequestLimits()
	require.NotNil(t, info, "a failed refresh must not blank the display")
	assert.Equal(t, 1, info.CurrentCount)
	assert.False(t, e.LoadingLimits())
}

func TestHandleUserChange_SwitchClearsSnapshotImmediately(t *testing.T) {
	authState := &stubAuth{user: userWithStatus(1, auth.StatusApproved)}
	fetcher := &stubFetcher{counts: medicine.LimitCounts{CurrentCount: 4}}
	e := NewEngine(authState, fetcher, nil)

	require.NoError(t, e.RefreshRequestLimits(context.Background()))
	require.NotNil(t, e.RequestLimits())

	// block the fetch the switch triggers, so we observe the state between
	// the synchronous clear and the eventual commit
	release := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.release = release
	fetcher.mu.Unlock()

	next := userWithStatus(2, auth.StatusApproved)
	authState.set(next)
	e.HandleUserChange(next)

	assert.Nil(t, e.RequestLimits(), "the old user's quota must never show for the new one")
	close(release)
}

func TestHandleUserChange_LogoutClearsSnapshot(t *testing.T) {
	authState := &stubAuth{user: userWithStatus(1, auth.StatusApproved)}
	fetcher := &stubFetcher{}
	e := NewEngine(authState, fetcher, nil)

	require.NoError(t, e.RefreshRequestLimits(context.Background()))
	require.NotNil(t, e.RequestLimits())

	authState.set(nil)
	e.HandleUserChange(nil)

	assert.Nil(t, e.RequestLimits())
	assert.False(t, e.CanRequestMedicine())
}

func TestStaleFetchIsDiscardedAfterUserSwitch(t *testing.T) {
	userA := userWithStatus(1, auth.StatusApproved)
	userB := userWithStatus(2, auth.StatusApproved)

	authState := &stubAuth{user: userA}
	release := make(chan struct{})
	fetcher := &stubFetcher{counts: medicine.LimitCounts{CurrentCount: 5}, release: release}
	e := NewEngine(authState, fetcher, nil)

	// user A's fetch starts and blocks
	done := make(chan error, 1)
	go func() { done <- e.RefreshRequestLimits(context.Background()) }()

	// wait for the fetch to be in flight before switching
	require.Eventually(t, e.LoadingLimits, time.Second, time.Millisecond)

	// switch to user B; B's counters are different
	fetcher.setCounts(medicine.LimitCounts{CurrentCount: 0})
	authState.set(userB)
	e.HandleUserChange(userB)

	// release both fetches and wait for A's to finish
	close(release)
	require.NoError(t, <-done)

	require.Eventually(t, func() bool {
		info := e.RequestLimits()
		return info != nil && info.CurrentCount == 0
	}, time.Second, time.Millisecond, "user B's fetch must win; A's stale result is discarded")
}

func TestUserStatus(t *testing.T) {
	authState := &stubAuth{}
	e := NewEngine(authState, &stubFetcher{}, nil)

	assert.Equal(t, auth.StatusUnauthenticated, e.UserStatus())

	authState.set(userWithStatus(1, auth.StatusPending))
	assert.Equal(t, auth.StatusPending, e.UserStatus())
}
