// Package index provides interfaces and types for vector search indexes.
package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"sort"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/metric"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrNodeNotFound indicates that no vector is stored under the given id.
type ErrNodeNotFound struct {
	ID core.DocID
}

// Error returns the error message for a missing node.
func (e *ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node not found: %d", e.ID)
}

// DistanceFunc represents a function for calculating the distance between two vectors
type DistanceFunc func(v1, v2 []float32) (float32, error)

// DistanceType represents the type of distance function used for calculating distances between vectors.
type DistanceType int

// Constants representing different types of distance functions.
const (
	DistanceTypeSquaredL2 DistanceType = iota
	DistanceTypeCosineDistance
)

// NewDistanceFunc returns a distance function based on the specified distance type.
func NewDistanceFunc(distanceType DistanceType) DistanceFunc {
	switch distanceType {
	case DistanceTypeSquaredL2:
		return metric.SquaredL2
	case DistanceTypeCosineDistance:
		return metric.CosineDistance
	default:
		return nil
	}
}

// String returns a string representation of the DistanceType.
func (dt DistanceType) String() string {
	switch dt {
	case DistanceTypeSquaredL2:
		return "SquaredL2"
	case DistanceTypeCosineDistance:
		return "CosineDistance"
	default:
		return "Unknown"
	}
}

// Order selects the ordering of a produced result list.
type Order int

const (
	// OrderByScore orders results by ascending distance.
	OrderByScore Order = iota

	// OrderByID orders results by ascending DocID, as required by
	// merge-join consumers.
	OrderByID
)

// QueryParams carries index-specific runtime parameters evaluated for a
// single query.
type QueryParams struct {
	// EF overrides the search exploration factor for graph indexes.
	// Zero means the index default.
	EF int
}

// SearchResult represents a search result.
type SearchResult struct {
	// ID is the identifier of the search result.
	ID core.DocID

	// Distance is the distance between the query vector and the result vector.
	Distance float32
}

// ResultList is a produced list of search results.
type ResultList []SearchResult

// Sort orders the list according to the given Order.
func (l ResultList) Sort(order Order) {
	if order == OrderByID {
		sort.Slice(l, func(i, j int) bool { return l[i].ID < l[j].ID })
		return
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Distance < l[j].Distance })
}

// Iterator returns a cursor over the list.
func (l ResultList) Iterator() *ResultIterator {
	return &ResultIterator{list: l}
}

// ResultIterator is a forward-only cursor over a ResultList.
type ResultIterator struct {
	list ResultList
	pos  int
}

// HasNext reports whether more results remain.
func (it *ResultIterator) HasNext() bool {
	return it.pos < len(it.list)
}

// Next returns the next result. ok is false once the list is exhausted.
func (it *ResultIterator) Next() (res SearchResult, ok bool) {
	if it.pos >= len(it.list) {
		return SearchResult{}, false
	}

	res = it.list[it.pos]
	it.pos++

	return res, true
}

// BatchIterator yields successive batches of nearest-neighbor candidates
// on demand. Batches cover the candidate space in roughly ascending
// distance; within a batch the requested Order applies.
type BatchIterator interface {
	// HasNext reports whether another batch may be produced.
	HasNext() bool

	// Next produces the next batch of up to batchSize candidates.
	Next(batchSize int, order Order) (ResultList, error)

	// Free releases resources owned by the iterator.
	Free()
}

// Index represents an index for vector search.
type Index interface {
	gob.GobEncoder
	gob.GobDecoder

	// Insert adds a vector to the index and returns its assigned id.
	// Ids are assigned starting at 1; 0 is never used.
	Insert(v []float32) (core.DocID, error)

	// TopKQuery performs a top-k nearest neighbor query.
	TopKQuery(q []float32, k int, params QueryParams, order Order) (ResultList, error)

	// NewBatchIterator starts a batched candidate scan for the query vector.
	NewBatchIterator(q []float32, params QueryParams) (BatchIterator, error)

	// DistanceTo computes the exact distance between the stored vector
	// with the given id and q. This is the direct-distance capability
	// consumed by ad-hoc brute-force query strategies.
	DistanceTo(id core.DocID, q []float32) (float32, error)

	// Size returns the number of vectors in the index.
	Size() int
}

// ValidateK validates a requested result count.
func ValidateK(k int) error {
	if k < 1 {
		return ErrInvalidK
	}

	return nil
}
