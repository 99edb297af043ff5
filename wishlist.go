// Package wishlist implements the block request scheduler of a peer-to-peer
// transfer client. Given a peer ready to receive requests and a batch size,
// it decides which contiguous runs of block indices to ask that peer for
// next, honoring piece selection policy, duplicate-request policy and a
// slow-peer preemption heuristic.
package wishlist

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log"
	"github.com/ipfs/go-metrics-interface"

	"github.com/swarmbit/go-wishlist/internal/blockset"
	"github.com/swarmbit/go-wishlist/internal/defaults"
	"github.com/swarmbit/go-wishlist/notifications"
)

var log = logging.Logger("wishlist")
var sflog = log.Desugar()

var batchBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256}

// Wishlist schedules block requests for one transfer. It keeps no state of
// its own between calls; all durable accounting lives behind the Mediator.
type Wishlist struct {
	mediator Mediator
	clock    clock.Clock
	rand     *rand.Rand
	notifier *notifications.Notifier

	cancellations metrics.Counter
	batchBlocks   metrics.Histogram
}

// New creates a scheduler over the given mediator. The context carries the
// metrics scope.
func New(ctx context.Context, mediator Mediator, opts ...Option) *Wishlist {
	ctx = metrics.CtxSubScope(ctx, "wishlist")
	w := &Wishlist{
		mediator: mediator,
		clock:    clock.New(),
		cancellations: metrics.NewCtx(ctx, "slow_cancels_total",
			"Total in-flight requests cancelled in favor of a faster peer.").Counter(),
		batchBlocks: metrics.NewCtx(ctx, "batch_blocks",
			"Number of blocks handed out per scheduling call.").Histogram(batchBuckets),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rand == nil {
		w.rand = rand.New(rand.NewSource(cryptoSeed()))
	}
	return w
}

func (w *Wishlist) String() string {
	return fmt.Sprintf("wishlist (%d pieces)", w.mediator.CountAllPieces())
}

// Next returns the next batch of block spans to request from peer, covering
// at most nWanted blocks. Returning fewer means no more blocks are eligible
// under current policy.
func (w *Wishlist) Next(nWanted int, peer Peer) []BlockSpan {
	if nWanted <= 0 {
		return nil
	}

	candidates := w.getCandidates()
	isSequential := w.mediator.IsSequentialDownload()

	if !isSequential {
		// Most calls fill their batch long before the candidate tail,
		// so only the head needs to be ordered. The sequential path is
		// already in the order we want.
		partialSort(candidates, defaults.MaxSortedPieces)
	}

	maxPeers := defaults.RegularMaxPeers
	if w.mediator.IsEndgame() {
		maxPeers = defaults.EndgameMaxPeers
	}

	picked := blockset.New()
	for i := range candidates {
		if picked.Len() >= nWanted {
			break
		}

		span := w.mediator.BlockSpan(candidates[i].piece)
		for b := span.Begin; b < span.End && picked.Len() < nWanted; b++ {
			if !w.mediator.ClientCanRequestBlock(b) {
				continue
			}

			if isSequential && w.mediator.CountActiveRequests(b) > 0 {
				// Sequential mode wants blocks as early as
				// possible; a faster peer may take over a
				// contested block.
				w.cancelSlowRequest(b, peer)
			}

			// Re-read: the preemption above may have freed a slot.
			if w.mediator.CountActiveRequests(b) >= maxPeers {
				continue
			}

			picked.Add(uint32(b))
		}
	}

	blocks := picked.Ascending()
	w.batchBlocks.Observe(float64(len(blocks)))
	return makeSpans(blocks)
}

func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// crypto/rand is documented to never fail on supported
		// platforms; losing salt unpredictability is the worst case.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}
