package flat

import (
	"fmt"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
)

// Compile-time check to ensure batchIterator satisfies the interface.
var _ index.BatchIterator = (*batchIterator)(nil)

// batchIterator serves successive candidate batches from a flat index.
//
// The full distance-sorted candidate order is materialized once on the
// first call to Next; successive calls slice it into batches. This
// mirrors the exact-scan nature of the index: there is no cheaper way to
// produce "the next closest batch" than completing the scan.
type batchIterator struct {
	f            *Flat
	query        []float32
	sorted       index.ResultList
	materialized bool
	pos          int
	freed        bool
}

// NewBatchIterator starts a batched candidate scan for the query vector.
func (f *Flat) NewBatchIterator(q []float32, _ index.QueryParams) (index.BatchIterator, error) {
	if len(q) != f.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(q)}
	}

	owned := make([]float32, len(q))
	copy(owned, q)

	return &batchIterator{f: f, query: owned}, nil
}

// HasNext reports whether another non-empty batch may be produced.
func (b *batchIterator) HasNext() bool {
	if b.freed {
		return false
	}
	if !b.materialized {
		return b.f.Size() > 0
	}

	return b.pos < len(b.sorted)
}

// Next produces the next batch of up to batchSize candidates.
func (b *batchIterator) Next(batchSize int, order index.Order) (index.ResultList, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if b.freed {
		return nil, nil
	}

	if !b.materialized {
		if err := b.materialize(); err != nil {
			return nil, err
		}
	}

	end := b.pos + batchSize
	if end > len(b.sorted) {
		end = len(b.sorted)
	}

	batch := make(index.ResultList, end-b.pos)
	copy(batch, b.sorted[b.pos:end])
	b.pos = end

	batch.Sort(order)

	return batch, nil
}

// Free releases the materialized candidate order.
func (b *batchIterator) Free() {
	b.sorted = nil
	b.freed = true
}

func (b *batchIterator) materialize() error {
	f := b.f

	f.mu.RLock()
	vectors := f.vectors
	f.mu.RUnlock()

	list := make(index.ResultList, 0, len(vectors))
	for i, v := range vectors {
		dist, err := f.distanceFunc(v, b.query)
		if err != nil {
			return err
		}
		list = append(list, index.SearchResult{ID: core.DocID(i) + 1, Distance: dist})
	}

	list.Sort(index.OrderByScore)

	b.sorted = list
	b.materialized = true

	return nil
}
