package polling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsonnyboy/medcare/internal/auth"
)

// scriptedRefresher walks through a sequence of statuses, one per refresh.
type scriptedRefresher struct {
	mu       sync.Mutex
	statuses []auth.Status
	index    int
	current  *auth.User
	authed   bool
	err      error
	calls    int
}

func newScriptedRefresher(initial auth.Status, script ...auth.Status) *scriptedRefresher {
	return &scriptedRefresher{
		statuses: script,
		current:  &auth.User{ID: 1, Username: "u", Status: initial},
		authed:   true,
	}
}

func (r *scriptedRefresher) Authenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authed
}

func (r *scriptedRefresher) RefreshUserData(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	if r.index < len(r.statuses) {
		status := r.statuses[r.index]
		r.index++
		r.current = &auth.User{ID: 1, Username: "u", Status: status}
	}
	return nil
}

func (r *scriptedRefresher) CurrentUser() *auth.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *scriptedRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type changeRecorder struct {
	mu      sync.Mutex
	changes [][2]auth.Status
}

func (c *changeRecorder) record(oldStatus, newStatus auth.Status) {
	c.mu.Lock()
	c.changes = append(c.changes, [2]auth.Status{oldStatus, newStatus})
	c.mu.Unlock()
}

func (c *changeRecorder) snapshot() [][2]auth.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][2]auth.Status, len(c.changes))
	copy(out, c.changes)
	return out
}

func TestPoller_FiresOnceOnApproval(t *testing.T) {
	// PENDING repeats, then the account flips to APPROVED and stays there.
	refresher := newScriptedRefresher(auth.StatusPending,
		auth.StatusPending, auth.StatusPending, auth.StatusApproved, auth.StatusApproved)
	recorder := &changeRecorder{}

	p := New(refresher, Config{
		Interval:       5 * time.Millisecond,
		OnStatusChange: recorder.record,
	})
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(recorder.snapshot()) > 0
	}, time.Second, time.Millisecond)

	// give it a few more intervals to prove no duplicate fires
	time.Sleep(30 * time.Millisecond)

	changes := recorder.snapshot()
	require.Len(t, changes, 1, "a transition fires exactly once")
	assert.Equal(t, auth.StatusPending, changes[0][0])
	assert.Equal(t, auth.StatusApproved, changes[0][1])
}

func TestPoller_StopsAfterLeavingPending(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending, auth.StatusApproved)

	p := New(refresher, Config{Interval: 5 * time.Millisecond})
	p.Start()

	require.Eventually(t, func() bool { return !p.IsPolling() }, time.Second, time.Millisecond)

	calls := refresher.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, refresher.callCount(), "no refreshes after the loop stops")
}

func TestPoller_KeepsPollingThroughErrors(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending)
	refresher.mu.Lock()
	refresher.err = errors.New("network down")
	refresher.mu.Unlock()

	p := New(refresher, Config{Interval: 5 * time.Millisecond})
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return refresher.callCount() >= 3
	}, time.Second, time.Millisecond, "failed polls keep the schedule alive")
	assert.True(t, p.IsPolling())
}

func TestPoller_DoubleStartReplacesRun(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending)
	recorder := &changeRecorder{}

	p := New(refresher, Config{
		Interval:       5 * time.Millisecond,
		OnStatusChange: recorder.record,
	})
	p.Start()
	p.Start()
	defer p.Stop()

	// flip to approved; only the surviving run may report it
	refresher.mu.Lock()
	refresher.statuses = []auth.Status{auth.StatusApproved}
	refresher.index = 0
	refresher.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(recorder.snapshot()) > 0
	}, time.Second, time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, recorder.snapshot(), 1, "duplicate runs must not double-report")
}

func TestPoller_SyncStartsForPendingOnly(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending)
	p := New(refresher, Config{Interval: time.Hour})

	p.Sync()
	assert.True(t, p.IsPolling())

	refresher.mu.Lock()
	refresher.current = &auth.User{ID: 1, Status: auth.StatusApproved}
	refresher.mu.Unlock()

	p.Sync()
	assert.False(t, p.IsPolling())
}

func TestPoller_SyncIgnoresSignedOut(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending)
	refresher.mu.Lock()
	refresher.current = nil
	refresher.mu.Unlock()

	p := New(refresher, Config{Interval: time.Hour})
	p.Sync()
	assert.False(t, p.IsPolling())
}

func TestPoller_SyncRequiresSession(t *testing.T) {
	// a pending profile cached after an OAuth signup has no session; there
	// is nothing to poll with
	refresher := newScriptedRefresher(auth.StatusPending)
	refresher.mu.Lock()
	refresher.authed = false
	refresher.mu.Unlock()

	p := New(refresher, Config{Interval: time.Hour})
	p.Sync()
	assert.False(t, p.IsPolling())
}

func TestPoller_SetEnabledStopsAndResumes(t *testing.T) {
	refresher := newScriptedRefresher(auth.StatusPending)
	p := New(refresher, Config{Interval: time.Hour})

	p.Sync()
	require.True(t, p.IsPolling())

	p.SetEnabled(false)
	assert.False(t, p.IsPolling())

	p.SetEnabled(true)
	assert.True(t, p.IsPolling())
	p.Stop()
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := New(newScriptedRefresher(auth.StatusPending), Config{Interval: time.Hour})
	p.Start()
	p.Stop()
	p.Stop()
	assert.False(t, p.IsPolling())
}
