package vexiter

import (
	"math"
	"time"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
	"github.com/vexiter/vexiter/internal/queue"
	"github.com/vexiter/vexiter/iterator"
	"github.com/vexiter/vexiter/result"
)

// Compile-time check to ensure HybridIterator satisfies the contract.
var _ iterator.SortedIterator = (*HybridIterator)(nil)

// TopKQuery describes a top-k vector query. It is immutable for the
// iterator's lifetime; Rewind reuses the same descriptor.
type TopKQuery struct {
	// Vector is the query vector.
	Vector []float32

	// K is the requested result count (>= 1).
	K int

	// Order is the result ordering requested from the index in
	// StandardKNN mode. Batched mode always emits by distance.
	Order index.Order
}

// HybridIterator is the root iterator of a query plan combining a
// vector similarity clause with an arbitrary filter. It emits up to K
// results in distance order (worst accepted first in Batched mode) and
// does not support SkipTo, since emission is not id-ordered.
//
// The iterator owns its heap, its live result list, every node it has
// returned and the supplied filter iterator; Free releases all of them.
// Nodes obtained from Read stay valid until the next Rewind or Free and
// must not be released by the caller; Clone a node to retain it beyond
// the iterator's lifetime.
type HybridIterator struct {
	idx        index.Index
	scoreField string
	query      TopKQuery
	params     index.QueryParams
	child      iterator.SortedIterator
	mode       Mode

	resultsPrepared bool
	valid           bool
	freed           bool
	lastDocID       core.DocID

	// Live result stream of a StandardKNN preparation.
	list   index.ResultList
	cursor *index.ResultIterator

	// Batched-mode state.
	topResults *queue.Bounded[*result.Node]
	returned   []*result.Node

	// Scratch result: a distance leaf in StandardKNN mode, a reused
	// aggregate in filtered modes.
	current *result.Node

	opts options
}

// worseFirst orders the heap so that Peek exposes the accepted result
// with the largest vector distance.
func worseFirst(a, b *result.Node) bool {
	return a.VectorLeaf().Distance > b.VectorLeaf().Distance
}

// NewHybridIterator builds the root iterator for a top-k vector query,
// optionally constrained by a filter iterator.
//
// Without a filter the iterator runs in StandardKNN mode; with one it
// runs in Batched mode unless WithModePolicy selects otherwise. The
// iterator takes ownership of the filter iterator.
func NewHybridIterator(idx index.Index, scoreField string, query TopKQuery, params index.QueryParams, filter iterator.SortedIterator, optFns ...Option) (*HybridIterator, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}
	if query.K < 1 {
		return nil, ErrInvalidK
	}
	if len(query.Vector) == 0 {
		return nil, ErrEmptyVector
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	mode := ModeStandardKNN
	if filter != nil {
		mode = opts.modePolicy(true, filter.NumEstimated(), idx.Size())
	}

	h := &HybridIterator{
		idx:        idx,
		scoreField: scoreField,
		query:      query,
		params:     params,
		child:      filter,
		mode:       mode,
		valid:      true,
		opts:       opts,
	}

	if mode == ModeStandardKNN {
		h.current = result.NewDistance(scoreField)
	} else {
		h.topResults = queue.NewBounded(query.K, worseFirst)
		h.returned = make([]*result.Node, 0, query.K)
		h.current = result.NewHybrid()
	}

	return h, nil
}

// Mode returns the query strategy fixed at construction.
func (h *HybridIterator) Mode() Mode {
	return h.mode
}

// HasNext reports whether more results may exist.
func (h *HybridIterator) HasNext() bool {
	return h.valid
}

// Read returns the next result, preparing results on the first call.
//
// In StandardKNN mode the returned node is a scratch buffer overwritten
// by the next Read. In Batched mode each Read returns a distinct node
// that stays valid until Rewind or Free. Either way the iterator keeps
// ownership; retain a node via Clone.
func (h *HybridIterator) Read() (*result.Node, error) {
	if !h.valid {
		return nil, iterator.ErrEOF
	}

	if !h.resultsPrepared {
		start := time.Now()
		batches, err := h.prepare()
		h.resultsPrepared = true

		collected := 0
		if h.topResults != nil {
			collected = h.topResults.Len()
		} else {
			collected = len(h.list)
		}
		h.opts.metrics.RecordPrepare(h.mode, batches, collected, time.Since(start), err)
		h.opts.logger.LogPrepare(h.mode, h.query.K, batches, collected, err)

		if err != nil {
			h.valid = false
			return nil, err
		}
	}

	if h.mode == ModeStandardKNN {
		res, ok := h.cursor.Next()
		if !ok {
			h.valid = false
			return nil, iterator.ErrEOF
		}

		h.current.DocID = res.ID
		h.current.Distance = res.Distance
		h.lastDocID = res.ID
		h.opts.metrics.RecordRead()

		return h.current, nil
	}

	node, ok := h.topResults.Poll()
	if !ok {
		h.valid = false
		return nil, iterator.ErrEOF
	}

	// The node stays owned by the iterator until Rewind or Free.
	h.returned = append(h.returned, node)
	h.lastDocID = node.DocID
	h.opts.metrics.RecordRead()

	return node, nil
}

// SkipTo is not supported: results are emitted in distance order, so
// id-based skipping has no defined meaning at this level.
func (h *HybridIterator) SkipTo(core.DocID) (*result.Node, error) {
	return nil, iterator.ErrNotSupported
}

// prepare runs the active strategy's preparation and returns the number
// of candidate batches retrieved.
func (h *HybridIterator) prepare() (int, error) {
	switch h.mode {
	case ModeStandardKNN:
		list, err := h.idx.TopKQuery(h.query.Vector, h.query.K, h.params, h.query.Order)
		if err != nil {
			return 0, err
		}

		h.list = list
		h.cursor = list.Iterator()

		return 0, nil

	case ModeAdhocBruteForce:
		// Contract: scan filter matches, compute exact distances via
		// idx.DistanceTo, feed the same bounded heap. Not implemented;
		// DefaultModePolicy never selects this mode.
		return 0, ErrModeNotImplemented

	default:
		return h.prepareBatched()
	}
}

// prepareBatched drives the iterative batch fetch + merge-join loop.
func (h *HybridIterator) prepareBatched() (int, error) {
	batchIt, err := h.idx.NewBatchIterator(h.query.Vector, h.params)
	if err != nil {
		return 0, err
	}
	defer batchIt.Free()

	upperBound := float32(math.Inf(1))
	batches := 0

	for batchIt.HasNext() {
		batchSize := h.opts.batchSizePolicy(h.query.K, h.idx.Size(), h.child.NumEstimated())
		if batchSize < 1 {
			batchSize = h.query.K
		}

		batch, err := batchIt.Next(batchSize, index.OrderByID)
		if err != nil {
			return batches, err
		}
		batches++

		// Each batch is matched from the filter's start: the filter
		// cursor cannot be assumed aligned with the new batch's id
		// range.
		h.child.Rewind()

		matched, err := h.mergeBatch(newBatchCursor(batch, h.scoreField), &upperBound)
		if err != nil {
			return batches, err
		}

		h.opts.metrics.RecordBatch(len(batch), matched)
		h.opts.logger.LogBatch(len(batch), matched, h.topResults.Len())

		if h.topResults.Len() == h.query.K {
			break
		}
	}

	return batches, nil
}

// Rewind discards the current preparation and restores the iterator to
// its initial state. Results previously handed to the caller are
// released and must no longer be used.
func (h *HybridIterator) Rewind() {
	h.resultsPrepared = false
	h.list = nil
	h.cursor = nil

	released := 0
	if h.topResults != nil {
		for h.topResults.Len() > 0 {
			node, _ := h.topResults.Poll()
			node.Release()
			released++
		}
	}
	for _, node := range h.returned {
		node.Release()
		released++
	}
	h.returned = h.returned[:0]

	if h.child != nil {
		h.child.Rewind()
	}

	h.lastDocID = 0
	h.valid = true

	h.opts.metrics.RecordRewind()
	h.opts.logger.LogRewind(released)
}

// Abort clears validity; observed on the next HasNext/Read, with no
// mid-operation preemption.
func (h *HybridIterator) Abort() {
	h.valid = false
}

// Free releases the heap, the returned-results registry, the live
// result stream, the scratch result and the owned filter iterator.
func (h *HybridIterator) Free() {
	if h.freed {
		return
	}
	h.freed = true

	if h.topResults != nil {
		for h.topResults.Len() > 0 {
			node, _ := h.topResults.Poll()
			node.Release()
		}
	}
	for _, node := range h.returned {
		node.Release()
	}
	h.returned = nil

	if h.current != nil {
		h.current.Reset()
		h.current.Release()
		h.current = nil
	}

	h.list = nil
	h.cursor = nil

	if h.child != nil {
		h.child.Free()
		h.child = nil
	}

	h.valid = false
}

// LastDocID returns the id of the most recently returned result.
func (h *HybridIterator) LastDocID() core.DocID {
	return h.lastDocID
}

// NumEstimated returns an upper bound on the number of results:
// min(k, index size), further capped by the filter's own estimate.
func (h *HybridIterator) NumEstimated() int {
	est := h.query.K
	if size := h.idx.Size(); size < est {
		est = size
	}
	if h.child != nil {
		if ce := h.child.NumEstimated(); ce < est {
			est = ce
		}
	}

	return est
}
