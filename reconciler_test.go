package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerVerificationHoldRaisesAdvisoryOnly(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{
		Blocked:      true,
		BlockingType: session.BlockingVerification,
		Reason:       "KYC expired",
	}, nil)

	var hardBlocks atomic.Int32
	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {
		hardBlocks.Add(1)
	}, session.WithReconcilerInterval(time.Hour))

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return recon.Advisory().Required
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "KYC expired", recon.Advisory().Reason)
	assert.Equal(t, int32(0), hardBlocks.Load(), "a verification hold never triggers a sign-out")
}

func TestReconcilerClearsAdvisoryWhenUnblocked(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{
		Blocked:      true,
		BlockingType: session.BlockingVerification,
		Reason:       "KYC expired",
	}, nil)

	feed := newStubFeed()
	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {},
		session.WithReconcilerInterval(time.Hour),
		session.WithReconcilerFeed(feed),
	)

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return recon.Advisory().Required
	}, time.Second, 5*time.Millisecond)

	checker.set(session.StatusSnapshot{Blocked: false}, nil)
	feed.push()

	require.Eventually(t, func() bool {
		return !recon.Advisory().Required
	}, time.Second, 5*time.Millisecond, "a fresh unblocked snapshot clears the advisory")
}

func TestReconcilerHardBlockFiresOncePerTransition(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{
		Blocked:      true,
		BlockingType: session.BlockingSuspended,
		Reason:       "risk review",
	}, nil)

	var hardBlocks atomic.Int32
	recon := session.NewReconciler("user-1", checker, func(snap session.StatusSnapshot) {
		hardBlocks.Add(1)
	}, session.WithReconcilerInterval(10*time.Millisecond))

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return hardBlocks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Keep polling while still blocked; the sign-out must not repeat.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), hardBlocks.Load())
}

func TestReconcilerPushTriggersRefetch(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{Blocked: false}, nil)

	feed := newStubFeed()
	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {},
		session.WithReconcilerInterval(time.Hour),
		session.WithReconcilerFeed(feed),
	)

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return checker.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// The push event is only a signal; classification comes from the
	// re-fetched snapshot.
	checker.set(session.StatusSnapshot{
		Blocked:      true,
		BlockingType: session.BlockingVerification,
		Reason:       "document requested",
	}, nil)
	feed.push()

	require.Eventually(t, func() bool {
		return recon.Advisory().Required
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, checker.callCount(), 2)
}

func TestReconcilerTransientFailureKeepsPreviousSnapshot(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{Blocked: false}, nil)

	var hardBlocks atomic.Int32
	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {
		hardBlocks.Add(1)
	}, session.WithReconcilerInterval(10*time.Millisecond))

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return recon.Snapshot() != nil
	}, time.Second, 5*time.Millisecond)

	checker.set(session.StatusSnapshot{}, assert.AnError)

	time.Sleep(80 * time.Millisecond)

	snap := recon.Snapshot()
	require.NotNil(t, snap, "the previous snapshot survives transient failures")
	assert.False(t, snap.Blocked)
	assert.Equal(t, int32(0), hardBlocks.Load())
}

func TestReconcilerStopUnsubscribesFeed(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{Blocked: false}, nil)

	feed := newStubFeed()
	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {},
		session.WithReconcilerInterval(time.Hour),
		session.WithReconcilerFeed(feed),
	)

	recon.Start(context.Background())

	require.Eventually(t, func() bool {
		return checker.callCount() >= 1
	}, time.Second, 5*time.Millisecond)

	recon.Stop()

	require.Eventually(t, func() bool {
		return feed.unsubscribed()
	}, time.Second, 5*time.Millisecond, "teardown releases the push subscription")
}

func TestReconcilerSubscribeFailureDegradesToPolling(t *testing.T) {
	checker := &stubChecker{}
	checker.set(session.StatusSnapshot{Blocked: false}, nil)

	feed := newStubFeed()
	feed.err = assert.AnError

	recon := session.NewReconciler("user-1", checker, func(session.StatusSnapshot) {},
		session.WithReconcilerInterval(10*time.Millisecond),
		session.WithReconcilerFeed(feed),
	)

	recon.Start(context.Background())
	defer recon.Stop()

	require.Eventually(t, func() bool {
		return checker.callCount() >= 3
	}, time.Second, 5*time.Millisecond, "polling continues without the feed")
}
