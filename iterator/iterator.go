// Package iterator defines the pull-based sorted iterator contract shared
// by filter iterators and the hybrid vector iterator, together with a
// roaring-bitmap-backed filter iterator implementation.
package iterator

import (
	"errors"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/result"
)

var (
	// ErrEOF is returned by Read and SkipTo once the iterator is
	// exhausted or aborted. It is sticky until Rewind.
	ErrEOF = errors.New("iterator: eof")

	// ErrNotFound is returned by SkipTo when no result exists at the
	// requested id. The cursor is positioned so that the next Read
	// returns the first result past the target.
	ErrNotFound = errors.New("iterator: not found")

	// ErrNotSupported is returned by operations an iterator does not
	// implement, e.g. SkipTo on iterators that emit in score order.
	ErrNotSupported = errors.New("iterator: operation not supported")
)

// SortedIterator is the common pull-based capability of result producers.
//
// Implementations are single-consumer and synchronous: one execution
// context drives the iterator and exclusively owns its state. Unless an
// implementation documents otherwise, the node returned by Read and
// SkipTo is a scratch buffer overwritten by the next advancement; callers
// retain it via result.Node.Clone.
type SortedIterator interface {
	// HasNext reports whether more results may exist.
	HasNext() bool

	// Read advances and returns the next result, or ErrEOF when
	// exhausted. EOF is sticky until Rewind.
	Read() (*result.Node, error)

	// SkipTo advances to the first result with id >= the target.
	// It returns the result when an exact match exists, ErrNotFound
	// when the cursor moved past the target without a match, and
	// ErrEOF when no result at or past the target exists.
	SkipTo(id core.DocID) (*result.Node, error)

	// Rewind resets the iterator to its initial state for reuse.
	Rewind()

	// Abort cooperatively cancels the iterator: validity is cleared
	// and observed on the next HasNext/Read, with no mid-operation
	// preemption.
	Abort()

	// Free releases all resources owned by the iterator. The iterator
	// must not be used afterwards.
	Free()

	// LastDocID returns the id of the most recently returned result,
	// or 0 before the first read.
	LastDocID() core.DocID

	// NumEstimated returns an upper bound on the number of results.
	NumEstimated() int
}
