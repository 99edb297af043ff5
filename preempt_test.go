package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/swarmbit/go-wishlist/notifications"
)

func preemptFixture(t *testing.T, currentSpeed int64, age time.Duration) (*fakeMediator, *clock.Mock, *fakePeer) {
	t.Helper()

	m := newFakeMediator(BlockSpan{10, 12})
	m.sequential = true

	mock := clock.NewMock()
	mock.Add(time.Hour)

	current := &fakePeer{downloadSpeed: currentSpeed}
	m.active[10] = []ActiveRequest{{Peer: current, RequestedAt: mock.Now().Add(-age)}}
	return m, mock, current
}

func TestPreemptionCancelsSlowPeer(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	w := newTestWishlist(m, WithClock(mock))

	// 10000/1000 - (1*10000)/16384 = 10 - 0, well past the threshold.
	spans := w.Next(2, &fakePeer{downloadSpeed: 10000})

	require.Equal(t, []BlockIndex{10}, m.cancelled)
	// the freed block is picked up in the same call
	require.Equal(t, []BlockSpan{{10, 12}}, spans)
}

func TestPreemptionSparesComparablePeer(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	w := newTestWishlist(m, WithClock(mock))

	// 1200/1000 truncates to 1; not past the threshold.
	spans := w.Next(2, &fakePeer{downloadSpeed: 1200})

	require.Empty(t, m.cancelled)
	// outside endgame the contested block stays skipped
	require.Equal(t, []BlockSpan{{11, 12}}, spans)
}

func TestPreemptionDiscountsHeadStart(t *testing.T) {
	// Twice as fast, but the current peer has been fetching long enough
	// to have most of the block: 20000/10000 - (8*20000)/16384 = 2-9 < 0.
	m, mock, _ := preemptFixture(t, 10000, 8*time.Second)
	w := newTestWishlist(m, WithClock(mock))

	w.Next(2, &fakePeer{downloadSpeed: 20000})

	require.Empty(t, m.cancelled)
}

func TestPreemptionSkipsWhenNewPeerSpeedUnknown(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	w := newTestWishlist(m, WithClock(mock))

	w.Next(2, &fakePeer{downloadSpeed: 0})

	require.Empty(t, m.cancelled)
}

func TestPreemptionSkipsStalledCurrentPeer(t *testing.T) {
	// A stalled peer's progress is unknown; no cancellation without
	// positive evidence.
	m, mock, _ := preemptFixture(t, 0, time.Second)
	w := newTestWishlist(m, WithClock(mock))

	w.Next(2, &fakePeer{downloadSpeed: 10000})

	require.Empty(t, m.cancelled)
}

func TestPreemptionIdempotent(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	w := newTestWishlist(m, WithClock(mock))

	fast := &fakePeer{downloadSpeed: 10000}
	w.cancelSlowRequest(10, fast)
	w.cancelSlowRequest(10, fast)

	// second call finds no active request left to cancel
	require.Equal(t, []BlockIndex{10}, m.cancelled)
}

func TestPreemptionCancelsAtMostOnce(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	// a second slow request for the same block
	m.active[10] = append(m.active[10], ActiveRequest{
		Peer:        &fakePeer{downloadSpeed: 900},
		RequestedAt: mock.Now().Add(-time.Second),
	})
	w := newTestWishlist(m, WithClock(mock))

	fast := &fakePeer{downloadSpeed: 10000}
	w.cancelSlowRequest(10, fast)
	require.Len(t, m.cancelled, 1)

	// the second call sees the survivor, which is still slow, and may
	// cancel it too -- but back-to-back calls never double-cancel the
	// same request
	w.cancelSlowRequest(10, fast)
	require.Len(t, m.cancelled, 2)
	require.Empty(t, m.active[10])

	w.cancelSlowRequest(10, fast)
	require.Len(t, m.cancelled, 2)
}

func TestPreemptionOnlyInSequentialMode(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)
	m.sequential = false
	w := newTestWishlist(m, WithClock(mock))

	spans := w.Next(2, &fakePeer{downloadSpeed: 10000})

	require.Empty(t, m.cancelled)
	require.Equal(t, []BlockSpan{{11, 12}}, spans)
}

func TestPreemptionPublishesCancellation(t *testing.T) {
	m, mock, _ := preemptFixture(t, 1000, time.Second)

	notifier := notifications.New()
	defer notifier.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := notifier.Subscribe(ctx)

	w := newTestWishlist(m, WithClock(mock), WithNotifier(notifier))
	w.Next(2, &fakePeer{downloadSpeed: 10000})

	ev, ok := <-events
	require.True(t, ok)
	require.Equal(t, uint32(10), ev.Block)
	require.Equal(t, mock.Now(), ev.At)
}
