// Package hnsw provides an approximate vector index backed by an HNSW
// graph (github.com/coder/hnsw).
//
// Batched candidate retrieval is implemented by re-querying the graph
// with an expanding result window and masking ids already handed out, so
// successive batches cover the candidate space in roughly ascending
// distance order.
package hnsw

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
)

// Compile-time check to ensure HNSW satisfies the index interface.
var _ index.Index = (*HNSW)(nil)

// Options contains configuration options for the HNSW index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int

	// DistanceType selects the distance function used for reported
	// scores. Graph navigation uses the matching built-in kernel.
	DistanceType index.DistanceType
}

// DefaultOptions contains the default configuration options for the HNSW index.
var DefaultOptions = Options{
	Dimension:    0,
	DistanceType: index.DistanceTypeSquaredL2,
}

// HNSW is an approximate nearest neighbor index over an HNSW graph.
type HNSW struct {
	mu           sync.RWMutex
	graph        *hnsw.Graph[core.DocID]
	nextID       core.DocID
	distanceFunc index.DistanceFunc
	opts         Options
}

// New creates a new instance of the HNSW index.
func New(optFns ...func(o *Options)) (*HNSW, error) {
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

	return &HNSW{
		graph:        newGraph(opts.DistanceType),
		distanceFunc: distanceFunc,
		opts:         opts,
	}, nil
}

func newGraph(dt index.DistanceType) *hnsw.Graph[core.DocID] {
	g := hnsw.NewGraph[core.DocID]()
	switch dt {
	case index.DistanceTypeCosineDistance:
		g.Distance = hnsw.CosineDistance
	default:
		g.Distance = hnsw.EuclideanDistance
	}

	return g
}

// Insert adds a vector to the index and returns its assigned id.
// Ids are assigned densely starting at 1.
func (h *HNSW) Insert(v []float32) (core.DocID, error) {
	if len(v) != h.opts.Dimension {
		return 0, &index.ErrDimensionMismatch{Expected: h.opts.Dimension, Actual: len(v)}
	}

	owned := make([]float32, len(v))
	copy(owned, v)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.graph.Add(hnsw.MakeNode(id, owned))

	return id, nil
}

// Size returns the number of vectors in the index.
func (h *HNSW) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.graph.Len()
}

// DistanceTo computes the exact distance between the stored vector with
// the given id and q.
func (h *HNSW) DistanceTo(id core.DocID, q []float32) (float32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	vec, ok := h.graph.Lookup(id)
	if !ok {
		return 0, &index.ErrNodeNotFound{ID: id}
	}

	return h.distanceFunc(vec, q)
}

// TopKQuery performs an approximate top-k nearest neighbor query.
//
// params.EF widens the internal candidate window: the graph is searched
// for max(k, EF) neighbors and the best k are returned.
func (h *HNSW) TopKQuery(q []float32, k int, params index.QueryParams, order index.Order) (index.ResultList, error) {
	if err := index.ValidateK(k); err != nil {
		return nil, err
	}
	if len(q) != h.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.opts.Dimension, Actual: len(q)}
	}

	searchK := k
	if params.EF > searchK {
		searchK = params.EF
	}

	h.mu.RLock()
	nodes := h.graph.Search(q, searchK)
	h.mu.RUnlock()

	list := make(index.ResultList, 0, len(nodes))
	for _, node := range nodes {
		dist, err := h.distanceFunc(node.Value, q)
		if err != nil {
			return nil, err
		}
		list = append(list, index.SearchResult{ID: node.Key, Distance: dist})
	}

	list.Sort(index.OrderByScore)
	if len(list) > k {
		list = list[:k]
	}

	list.Sort(order)

	return list, nil
}
