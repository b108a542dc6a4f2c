package vexiter

// Mode identifies the query strategy of a hybrid iterator. Selection
// happens once at construction and is fixed for the iterator's lifetime;
// Rewind does not re-select.
type Mode int

const (
	// ModeStandardKNN runs a single top-k query over the entire vector
	// index and streams its native result list. Used when no filter is
	// supplied.
	ModeStandardKNN Mode = iota

	// ModeAdhocBruteForce would iterate filter matches directly and
	// compute exact distances per candidate via the index's
	// direct-distance capability, bypassing approximate search and
	// feeding the same bounded heap. Its preparation is not
	// implemented: the default mode policy never selects it, and an
	// iterator forced into it via WithModePolicy returns
	// ErrModeNotImplemented from the first Read.
	ModeAdhocBruteForce

	// ModeBatched retrieves top candidates in id-ordered batches upon
	// demand and merge-joins each batch against the filter iterator
	// until k results pass. The default whenever a filter is present.
	ModeBatched
)

// String returns a string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeStandardKNN:
		return "StandardKNN"
	case ModeAdhocBruteForce:
		return "AdhocBruteForce"
	case ModeBatched:
		return "Batched"
	default:
		return "Unknown"
	}
}

// ModePolicy selects the query strategy at construction time.
// hasFilter reports whether a filter iterator was supplied;
// filterEstimate is the filter's result estimate (0 without a filter)
// and indexSize the vector count of the index.
type ModePolicy func(hasFilter bool, filterEstimate, indexSize int) Mode

// DefaultModePolicy chooses StandardKNN without a filter and Batched
// otherwise. A cardinality heuristic that prefers ModeAdhocBruteForce
// for highly selective filters could hook in here; no such heuristic is
// currently enabled.
func DefaultModePolicy(hasFilter bool, _, _ int) Mode {
	if !hasFilter {
		return ModeStandardKNN
	}

	return ModeBatched
}

// BatchSizePolicy determines the size of the next candidate batch
// requested from the vector index during a Batched preparation pass.
type BatchSizePolicy func(k, indexSize, filterEstimate int) int

// FixedBatchSize requests k candidates per batch. This is the default
// sizing policy; a heuristic deriving the size from index size and
// filter selectivity can be injected via WithBatchSizePolicy.
func FixedBatchSize(k, _, _ int) int {
	return k
}
