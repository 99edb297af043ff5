package wishlist

import (
	"math/rand"
	"sort"

	"github.com/anacrolix/multiless"
)

// candidate pairs a wanted piece with the keys that rank it for this call.
// Candidates live only for the duration of one Next invocation.
type candidate struct {
	piece    PieceIndex
	nMissing int
	priority Priority
	salt     uint32
}

// less is the mining order: pieces closer to completion first, then higher
// priority, then smaller salt. Finishing nearly-complete pieces raises the
// piece-completion rate and lets the finished piece be shared sooner.
func (c *candidate) less(other *candidate) bool {
	return multiless.New().Int(
		c.nMissing, other.nMissing,
	).Int(
		int(other.priority), int(c.priority),
	).Int64(
		int64(c.salt), int64(other.salt),
	).Less()
}

// saltShaker deals tie-breaking salts for one call. Draws are unpredictable
// to peers as long as the source was seeded unpredictably.
type saltShaker struct {
	rng *rand.Rand
}

func (s *saltShaker) next() uint32 {
	return s.rng.Uint32()
}

type wantedPiece struct {
	piece    PieceIndex
	nMissing int
}

// getCandidates builds this call's candidate list: every piece the client may
// request that still has missing blocks, in piece order, rotated to the
// sequential origin when applicable.
func (w *Wishlist) getCandidates() []candidate {
	nPieces := w.mediator.CountAllPieces()
	wanted := make([]wantedPiece, 0, nPieces)
	for p := PieceIndex(0); p < nPieces; p++ {
		if !w.mediator.ClientCanRequestPiece(p) {
			continue
		}
		nMissing := w.mediator.CountMissingBlocks(p)
		if nMissing == 0 {
			continue
		}
		wanted = append(wanted, wantedPiece{piece: p, nMissing: nMissing})
	}

	isSequential := w.mediator.IsSequentialDownload()

	// In sequential mode the user may ask to start partway through, e.g.
	// the middle of a video. Rotate so that entry leads and the skipped
	// prefix trails.
	if origin := int(w.mediator.SequentialDownloadFromPiece()); isSequential && origin > 0 && origin < len(wanted) {
		log.Infof("rotating wanted pieces to begin at entry %d (piece %d)", origin, wanted[origin].piece)
		rotated := make([]wantedPiece, 0, len(wanted))
		rotated = append(rotated, wanted[origin:]...)
		rotated = append(rotated, wanted[:origin]...)
		wanted = rotated
	}

	shaker := saltShaker{rng: w.rand}
	candidates := make([]candidate, 0, len(wanted))
	for _, wp := range wanted {
		salt := uint32(wp.piece)
		if !isSequential {
			salt = shaker.next()
		}
		candidates = append(candidates, candidate{
			piece:    wp.piece,
			nMissing: wp.nMissing,
			priority: w.mediator.Priority(wp.piece),
			salt:     salt,
		})
	}
	return candidates
}

// partialSort reorders cands so that the first k elements are the k least
// candidates in ascending order. The order of the remainder is unspecified.
func partialSort(cands []candidate, k int) {
	if k >= len(cands) {
		sort.Slice(cands, func(i, j int) bool {
			return cands[i].less(&cands[j])
		})
		return
	}

	// Max-heap over the prefix: the root is the greatest element kept so
	// far, so each smaller element from the tail displaces it.
	for i := k/2 - 1; i >= 0; i-- {
		siftDown(cands, i, k)
	}
	for i := k; i < len(cands); i++ {
		if cands[i].less(&cands[0]) {
			cands[0], cands[i] = cands[i], cands[0]
			siftDown(cands, 0, k)
		}
	}
	sort.Slice(cands[:k], func(i, j int) bool {
		return cands[i].less(&cands[j])
	})
}

func siftDown(cands []candidate, root, n int) {
	for {
		child := 2*root + 1
		if child >= n {
			return
		}
		if right := child + 1; right < n && cands[child].less(&cands[right]) {
			child = right
		}
		if !cands[root].less(&cands[child]) {
			return
		}
		cands[root], cands[child] = cands[child], cands[root]
		root = child
	}
}
