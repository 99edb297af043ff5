package defaults

const (
	// BlockSize is the fixed size in bytes of a transfer block, the unit
	// of request and cancellation.
	BlockSize = 1 << 14

	// MaxSortedPieces bounds how many candidates are fully ordered per
	// scheduling call. Calls rarely consume more candidates than this
	// before filling their batch, so sorting past it is wasted work.
	// Tuning parameter; not adaptive to endgame or batch size.
	MaxSortedPieces = 30

	// SlowScoreThreshold is the bar the preemption score must clear
	// before an in-flight request is cancelled for a faster peer. Kept
	// above 1 so marginal speed differences don't thrash cancellations.
	SlowScoreThreshold = 1.5

	// EndgameMaxPeers and RegularMaxPeers cap how many peers may hold an
	// outstanding request for the same block.
	EndgameMaxPeers = 2
	RegularMaxPeers = 1
)
