package wishlist

import (
	"math/rand"

	"github.com/benbjohnson/clock"

	"github.com/swarmbit/go-wishlist/notifications"
)

// Option configures a Wishlist.
type Option func(*Wishlist)

// WithClock substitutes the wall-clock time source used by the slow-request
// heuristic. Tests pass a mock clock.
func WithClock(clk clock.Clock) Option {
	return func(w *Wishlist) {
		w.clock = clk
	}
}

// WithRandSource substitutes the source behind the tie-breaking salt stream.
// The default is seeded from crypto/rand; tests pass a fixed seed for
// reproducibility.
func WithRandSource(src rand.Source) Option {
	return func(w *Wishlist) {
		w.rand = rand.New(src)
	}
}

// WithNotifier publishes request cancellations to the given notifier.
func WithNotifier(n *notifications.Notifier) Option {
	return func(w *Wishlist) {
		w.notifier = n
	}
}
