package vexiter

import (
	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
	"github.com/vexiter/vexiter/result"
)

// batchCursor adapts one id-ordered candidate batch to the scratch-node
// reading discipline of the merge-join: read and skip-within-batch fill
// a reused vector-distance leaf. Skipping is bounded by the batch; there
// is no unbounded skip across batches.
type batchCursor struct {
	it         *index.ResultIterator
	scoreField string
}

func newBatchCursor(list index.ResultList, scoreField string) *batchCursor {
	return &batchCursor{it: list.Iterator(), scoreField: scoreField}
}

// read fills dst with the next candidate of the batch.
// Reports false once the batch is exhausted.
func (c *batchCursor) read(dst *result.Node) bool {
	res, ok := c.it.Next()
	if !ok {
		return false
	}

	dst.DocID = res.ID
	dst.Distance = res.Distance
	dst.ScoreField = c.scoreField

	return true
}

// skipTo advances to the first candidate with id >= target within the
// batch, filling dst. Reports false once the batch is exhausted.
func (c *batchCursor) skipTo(target core.DocID, dst *result.Node) bool {
	for {
		res, ok := c.it.Next()
		if !ok {
			return false
		}
		if res.ID < target {
			continue
		}

		dst.DocID = res.ID
		dst.Distance = res.Distance
		dst.ScoreField = c.scoreField

		return true
	}
}
