package vexiter

import (
	"errors"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/iterator"
	"github.com/vexiter/vexiter/result"
)

// mergeBatch advances the candidate batch and the filter iterator in
// lock-step by id, feeding id matches through the acceptance test into
// the bounded heap. upperBound is the worst distance currently accepted
// by a full heap; it only ever shrinks within a preparation pass.
//
// Returns the number of accepted matches.
func (h *HybridIterator) mergeBatch(cursor *batchCursor, upperBound *float32) (int, error) {
	vecRes := result.NewDistance(h.scoreField)
	defer vecRes.Release()

	matched := 0

	childRes, childErr := h.child.Read()
	vecOK := cursor.read(vecRes)

	for childErr == nil {
		switch {
		case vecOK && vecRes.DocID == childRes.DocID:
			// A match. Accept unconditionally below capacity, and
			// past it only when strictly better than the current
			// worst.
			if h.topResults.Len() < h.query.K || vecRes.Distance < *upperBound {
				h.accept(vecRes, childRes, upperBound)
				matched++
			}
			childRes, childErr = h.child.Read()
			vecOK = cursor.read(vecRes)

		case vecOK && vecRes.DocID > childRes.DocID:
			// The filter lags; skip it to the candidate id.
			childRes, childErr = h.skipChild(vecRes.DocID)

		case !vecOK:
			// Batch exhausted; the remaining filter matches can
			// only pair with candidates of a later batch.
			return matched, nil

		default:
			// The candidate lags; skip it within the batch.
			vecOK = cursor.skipTo(childRes.DocID, vecRes)
			if !vecOK {
				return matched, nil
			}
		}
	}

	if !errors.Is(childErr, iterator.ErrEOF) {
		return matched, childErr
	}

	return matched, nil
}

// skipChild advances the filter iterator to id, falling back to a plain
// read when no exact match exists there.
func (h *HybridIterator) skipChild(id core.DocID) (*result.Node, error) {
	n, err := h.child.SkipTo(id)
	if errors.Is(err, iterator.ErrNotFound) {
		return h.child.Read()
	}

	return n, err
}

// accept builds the aggregate for a match and stores an owned deep copy
// in the heap, evicting the current worst entry at capacity. Both leaves
// are scratch buffers, so the copy is mandatory.
func (h *HybridIterator) accept(vecRes, childRes *result.Node, upperBound *float32) {
	agg := h.current
	agg.Reset()
	agg.AddChild(vecRes)
	agg.AddChild(childRes)

	hit := agg.Clone()
	agg.Reset()

	if h.topResults.Full() {
		worst, _ := h.topResults.Poll()
		worst.Release()
		h.opts.metrics.RecordEviction()
	}
	_ = h.topResults.Offer(hit)

	if top, ok := h.topResults.Peek(); ok {
		*upperBound = top.VectorLeaf().Distance
	}
}
