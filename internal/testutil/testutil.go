// Package testutil provides generators shared by the scheduler tests.
package testutil

import (
	"math/rand"
)

// Rand returns a reproducible random source for tests.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// PieceSpan is a half-open block range assigned to a piece by EvenSpans.
type PieceSpan struct {
	Begin, End uint32
}

// EvenSpans lays out nPieces contiguous pieces of blocksPer blocks each.
func EvenSpans(nPieces, blocksPer int) []PieceSpan {
	spans := make([]PieceSpan, nPieces)
	for i := range spans {
		spans[i] = PieceSpan{
			Begin: uint32(i * blocksPer),
			End:   uint32((i + 1) * blocksPer),
		}
	}
	return spans
}

// RandomMissing marks a random non-empty subset of each piece's blocks
// missing, returning held[block] = false for missing blocks.
func RandomMissing(rng *rand.Rand, spans []PieceSpan) map[uint32]bool {
	held := make(map[uint32]bool)
	for _, span := range spans {
		for b := span.Begin; b < span.End; b++ {
			held[b] = rng.Intn(2) == 0
		}
		// keep at least one block missing so the piece stays wanted
		held[span.Begin+uint32(rng.Intn(int(span.End-span.Begin)))] = false
	}
	return held
}
