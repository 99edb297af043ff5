package wishlist

import (
	"time"

	"go.uber.org/zap"

	"github.com/swarmbit/go-wishlist/internal/defaults"
	"github.com/swarmbit/go-wishlist/notifications"
)

// cancelSlowRequest cancels the in-flight request for block if the new peer
// is estimated to finish the block sooner than the peer currently fetching
// it. At most one request is cancelled per invocation.
//
// The score is computed in integer arithmetic: the speed ratio truncates, so
// a new peer that is slower scores 0 on the first term, and the
// whole score only clears the 1.5 threshold at 2 or above. The new peer must
// be at least twice as fast, net of the head start the current peer already
// has on the block.
func (w *Wishlist) cancelSlowRequest(block BlockIndex, peer Peer) {
	now := w.clock.Now()
	peerSpeed := peer.SpeedBytesPerSecond(now, PeerToClient)
	if peerSpeed == 0 {
		return
	}

	for _, active := range w.mediator.PeersForActiveRequests(block) {
		currentSpeed := active.Peer.SpeedBytesPerSecond(now, PeerToClient)

		// The slow peer's progress is unknown; cancelling needs
		// positive evidence. Also avoids dividing by zero.
		if currentSpeed == 0 {
			continue
		}

		elapsed := int64(now.Sub(active.RequestedAt) / time.Second)
		score := peerSpeed/currentSpeed - (elapsed*peerSpeed)/defaults.BlockSize
		if float64(score) > defaults.SlowScoreThreshold {
			sflog.Debug("cancelling slow request",
				zap.Uint32("block", uint32(block)),
				zap.Int64("currentSpeed", currentSpeed),
				zap.Int64("newSpeed", peerSpeed))
			w.mediator.CancelRequestForBlock(active.Peer, block)
			w.cancellations.Inc()
			if w.notifier != nil {
				w.notifier.Publish(notifications.NewCancelledRequest(uint32(block), now))
			}
			return
		}
	}
}
