// Package notifications fans out scheduler events to interested subscribers,
// so the host's stats or UI layer can observe request churn without polling
// the transfer state.
package notifications

import (
	"context"
	"sync"
	"time"

	pubsub "github.com/cskr/pubsub"
	"github.com/google/uuid"
)

const bufferSize = 16

const topicCancelled = "cancelled"

// CancelledRequest records that a pending block request was cancelled in
// favor of a faster peer.
type CancelledRequest struct {
	// ID uniquely identifies the event so downstream consumers can act
	// on it once.
	ID uuid.UUID
	// Block is the block whose request was cancelled.
	Block uint32
	// At is when the cancellation was issued.
	At time.Time
}

func NewCancelledRequest(block uint32, at time.Time) CancelledRequest {
	return CancelledRequest{
		ID:    uuid.New(),
		Block: block,
		At:    at,
	}
}

// Notifier publishes scheduler events. Publishing never blocks the caller;
// subscribers that fall behind miss events.
type Notifier struct {
	lk      sync.RWMutex
	wrapped *pubsub.PubSub
	closed  bool
}

func New() *Notifier {
	return &Notifier{
		wrapped: pubsub.New(bufferSize),
	}
}

// Publish delivers ev to current subscribers. Events published after
// Shutdown are dropped.
func (n *Notifier) Publish(ev CancelledRequest) {
	n.lk.RLock()
	defer n.lk.RUnlock()
	if n.closed {
		return
	}

	n.wrapped.TryPub(ev, topicCancelled)
}

// Subscribe returns a channel of cancellation events. The channel is closed
// when ctx is done or the notifier shuts down.
func (n *Notifier) Subscribe(ctx context.Context) <-chan CancelledRequest {
	out := make(chan CancelledRequest, bufferSize)

	n.lk.RLock()
	defer n.lk.RUnlock()
	if n.closed {
		close(out)
		return out
	}

	raw := n.wrapped.Sub(topicCancelled)
	go func() {
		defer func() {
			close(out)

			n.lk.RLock()
			defer n.lk.RUnlock()
			if n.closed {
				// Shutdown already unsubscribed everyone.
				return
			}
			n.wrapped.Unsub(raw, topicCancelled)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- v.(CancelledRequest):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Shutdown closes all subscription channels. Calling it again after the
// first time is a no-op.
func (n *Notifier) Shutdown() {
	n.lk.Lock()
	defer n.lk.Unlock()
	if n.closed {
		return
	}
	n.wrapped.Shutdown()
	n.closed = true
}
