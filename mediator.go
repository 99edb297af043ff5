package wishlist

import (
	"time"
)

// Peer is the narrow view of a peer connection the scheduler needs: a speed
// estimate. Identity, choking and the wire protocol all stay with the host.
type Peer interface {
	// SpeedBytesPerSecond reports the measured transfer speed with this
	// peer in the given direction, as of now.
	SpeedBytesPerSecond(now time.Time, direction Direction) int64
}

// ActiveRequest pairs a peer holding a pending request for a block with the
// time that request was issued.
type ActiveRequest struct {
	Peer        Peer
	RequestedAt time.Time
}

// Mediator is the capability bundle through which the scheduler observes and
// mutates transfer state. The host owns all durable piece/block accounting;
// the scheduler only queries it, plus the single mutation of cancelling a
// pending request.
//
// All queries must be consistent for the duration of one Next call, with one
// deliberate exception: CountActiveRequests may change as a result of
// CancelRequestForBlock issued within the same call, and the scheduler
// re-reads it to pick up that change.
type Mediator interface {
	// CountAllPieces returns the total piece count for this transfer.
	CountAllPieces() PieceIndex

	// ClientCanRequestPiece reports whether the transfer still wants piece
	// p and policy permits requesting its blocks from the peer.
	ClientCanRequestPiece(p PieceIndex) bool

	// CountMissingBlocks returns how many blocks of piece p have not been
	// fully received yet.
	CountMissingBlocks(p PieceIndex) int

	// Priority returns the user-configured priority for piece p.
	Priority(p PieceIndex) Priority

	// BlockSpan returns the half-open block range owned by piece p.
	BlockSpan(p PieceIndex) BlockSpan

	// ClientCanRequestBlock reports whether block b is eligible to be
	// requested: not already received and not otherwise excluded.
	ClientCanRequestBlock(b BlockIndex) bool

	// CountActiveRequests returns the number of peers currently holding a
	// pending request for block b.
	CountActiveRequests(b BlockIndex) int

	// PeersForActiveRequests returns the peers holding pending requests
	// for block b, each with the time its request was issued.
	PeersForActiveRequests(b BlockIndex) []ActiveRequest

	// CancelRequestForBlock cancels the pending request for block b held
	// by the given peer.
	CancelRequestForBlock(peer Peer, b BlockIndex)

	// IsSequentialDownload reports whether pieces should be fetched in
	// index order instead of by completion bias.
	IsSequentialDownload() bool

	// SequentialDownloadFromPiece returns the origin the sequential order
	// is rotated to begin from. Ignored outside sequential mode or when
	// out of range.
	SequentialDownloadFromPiece() PieceIndex

	// IsEndgame reports whether the transfer is in its endgame, where
	// duplicate outstanding requests for a block are allowed.
	IsEndgame() bool
}
