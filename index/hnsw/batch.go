package hnsw

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vexiter/vexiter/index"
)

// Compile-time check to ensure batchIterator satisfies the interface.
var _ index.BatchIterator = (*batchIterator)(nil)

// batchIterator yields successive candidate batches by re-querying the
// graph with an expanding window. Ids already returned are masked with a
// roaring bitmap so every batch contains fresh candidates.
//
// Termination: once the search window reaches the index size, or a
// search yields no unseen candidate, the iterator is depleted. The graph
// search is approximate, so depletion can occur before every stored id
// was returned.
type batchIterator struct {
	h        *HNSW
	query    []float32
	ef       int
	seen     *roaring.Bitmap
	depleted bool
	freed    bool
}

// NewBatchIterator starts a batched candidate scan for the query vector.
func (h *HNSW) NewBatchIterator(q []float32, params index.QueryParams) (index.BatchIterator, error) {
	if len(q) != h.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.opts.Dimension, Actual: len(q)}
	}

	owned := make([]float32, len(q))
	copy(owned, q)

	return &batchIterator{
		h:     h,
		query: owned,
		ef:    params.EF,
		seen:  roaring.New(),
	}, nil
}

// HasNext reports whether another non-empty batch may be produced.
func (b *batchIterator) HasNext() bool {
	if b.freed || b.depleted {
		return false
	}

	return int(b.seen.GetCardinality()) < b.h.Size()
}

// Next produces the next batch of up to batchSize candidates.
func (b *batchIterator) Next(batchSize int, order index.Order) (index.ResultList, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if !b.HasNext() {
		return nil, nil
	}

	size := b.h.Size()

	// Search a window covering everything handed out so far plus one
	// fresh batch, widened by EF for recall.
	searchK := int(b.seen.GetCardinality()) + batchSize
	if b.ef > batchSize {
		searchK = int(b.seen.GetCardinality()) + b.ef
	}
	if searchK > size {
		searchK = size
	}

	b.h.mu.RLock()
	nodes := b.h.graph.Search(b.query, searchK)
	b.h.mu.RUnlock()

	batch := make(index.ResultList, 0, batchSize)
	for _, node := range nodes {
		if len(batch) == batchSize {
			break
		}
		if b.seen.Contains(uint32(node.Key)) {
			continue
		}

		dist, err := b.h.distanceFunc(node.Value, b.query)
		if err != nil {
			return nil, err
		}

		b.seen.Add(uint32(node.Key))
		batch = append(batch, index.SearchResult{ID: node.Key, Distance: dist})
	}

	// A full-size window that still could not fill the batch has seen
	// every reachable node; an empty batch means no fresh candidate at
	// all. Either way there is nothing left to produce.
	if len(batch) == 0 || (len(batch) < batchSize && searchK >= size) {
		b.depleted = true
	}

	batch.Sort(order)

	return batch, nil
}

// Free releases the seen-id mask.
func (b *batchIterator) Free() {
	b.seen = nil
	b.freed = true
}
