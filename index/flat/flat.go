// Package flat provides an exact (brute-force) vector index.
//
// The flat index scans every stored vector on each query. It is the
// reference implementation of the index capability consumed by the hybrid
// iterator: exact top-k queries, batched candidate iteration in ascending
// distance order, and direct distance computation per id.
package flat

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
	"github.com/vexiter/vexiter/internal/queue"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int

	// DistanceType selects the distance function.
	DistanceType index.DistanceType

	// Parallelism caps the number of goroutines used for a scan.
	// Zero means GOMAXPROCS.
	Parallelism int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension:    0,
	DistanceType: index.DistanceTypeSquaredL2,
}

// Flat represents a flat index for vector storage and exact search.
type Flat struct {
	mu           sync.RWMutex
	vectors      [][]float32
	distanceFunc index.DistanceFunc
	opts         Options
}

// New creates a new instance of the flat index.
// Dimension is required and must be set at creation time.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: opts.Dimension}
	}

	distanceFunc := index.NewDistanceFunc(opts.DistanceType)
	if distanceFunc == nil {
		return nil, fmt.Errorf("unsupported distance type: %d", opts.DistanceType)
	}

	return &Flat{
		distanceFunc: distanceFunc,
		opts:         opts,
	}, nil
}

// Insert adds a vector to the index and returns its assigned id.
// Ids are assigned densely starting at 1.
func (f *Flat) Insert(v []float32) (core.DocID, error) {
	if len(v) != f.opts.Dimension {
		return 0, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(v)}
	}

	owned := make([]float32, len(v))
	copy(owned, v)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.vectors = append(f.vectors, owned)

	return core.DocID(len(f.vectors)), nil
}

// Size returns the number of vectors in the index.
func (f *Flat) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.vectors)
}

// DistanceTo computes the exact distance between the stored vector with
// the given id and q.
func (f *Flat) DistanceTo(id core.DocID, q []float32) (float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if id < 1 || int(id) > len(f.vectors) {
		return 0, &index.ErrNodeNotFound{ID: id}
	}

	return f.distanceFunc(f.vectors[id-1], q)
}

// TopKQuery performs an exact top-k nearest neighbor query.
func (f *Flat) TopKQuery(q []float32, k int, _ index.QueryParams, order index.Order) (index.ResultList, error) {
	if err := index.ValidateK(k); err != nil {
		return nil, err
	}
	if len(q) != f.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(q)}
	}

	f.mu.RLock()
	vectors := f.vectors
	f.mu.RUnlock()

	top, err := f.scan(q, k, vectors)
	if err != nil {
		return nil, err
	}

	list := drainAscending(top)
	list.Sort(order)

	return list, nil
}

// worstFirst orders bounded heaps so that Peek exposes the current worst
// (largest distance) candidate.
func worstFirst(a, b index.SearchResult) bool { return a.Distance > b.Distance }

// scan computes the k nearest candidates among vectors, splitting the work
// across goroutines for large collections.
func (f *Flat) scan(q []float32, k int, vectors [][]float32) (*queue.Bounded[index.SearchResult], error) {
	workers := f.opts.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Below this size the goroutine fan-out costs more than the scan.
	const parallelThreshold = 2048
	if len(vectors) < parallelThreshold || workers == 1 {
		return f.scanRange(q, k, vectors, 0)
	}

	chunk := (len(vectors) + workers - 1) / workers

	partials := make([]*queue.Bounded[index.SearchResult], workers)
	var g errgroup.Group

	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(vectors) {
			break
		}
		end := start + chunk
		if end > len(vectors) {
			end = len(vectors)
		}

		w := w
		g.Go(func() error {
			top, err := f.scanRange(q, k, vectors[start:end], core.DocID(start))
			if err != nil {
				return err
			}
			partials[w] = top
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := queue.NewBounded(k, worstFirst)
	for _, partial := range partials {
		if partial == nil {
			continue
		}
		for partial.Len() > 0 {
			res, _ := partial.Poll()
			offerBounded(merged, res)
		}
	}

	return merged, nil
}

// scanRange scans a contiguous id range; base is the id offset of the
// first vector in the slice.
func (f *Flat) scanRange(q []float32, k int, vectors [][]float32, base core.DocID) (*queue.Bounded[index.SearchResult], error) {
	top := queue.NewBounded(k, worstFirst)

	for i, v := range vectors {
		dist, err := f.distanceFunc(v, q)
		if err != nil {
			return nil, err
		}
		offerBounded(top, index.SearchResult{ID: base + core.DocID(i) + 1, Distance: dist})
	}

	return top, nil
}

// offerBounded inserts res, evicting the current worst when at capacity
// and res improves on it.
func offerBounded(top *queue.Bounded[index.SearchResult], res index.SearchResult) {
	if !top.Full() {
		_ = top.Offer(res)
		return
	}

	worst, _ := top.Peek()
	if res.Distance < worst.Distance {
		top.Poll()
		_ = top.Offer(res)
	}
}

// drainAscending empties a worst-first heap into an ascending-distance list.
func drainAscending(top *queue.Bounded[index.SearchResult]) index.ResultList {
	list := make(index.ResultList, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		res, _ := top.Poll()
		list[i] = res
	}

	return list
}
