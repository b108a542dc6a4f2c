package iterator

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/result"
)

// Compile-time check to ensure BitmapIterator satisfies the contract.
var _ SortedIterator = (*BitmapIterator)(nil)

// BitmapIterator is a SortedIterator over the set bits of a roaring
// bitmap, emitting filter leaves in ascending DocID order.
//
// The returned node is a reused scratch buffer; see SortedIterator.
type BitmapIterator struct {
	bm        *roaring.Bitmap
	it        roaring.IntPeekable
	current   *result.Node
	lastDocID core.DocID
	valid     bool
}

// NewBitmapIterator creates an iterator over bm. The bitmap must not be
// mutated while the iterator is live.
func NewBitmapIterator(bm *roaring.Bitmap) *BitmapIterator {
	return &BitmapIterator{
		bm:      bm,
		it:      bm.Iterator(),
		current: result.NewFilter(),
		valid:   true,
	}
}

// HasNext reports whether more results may exist.
func (b *BitmapIterator) HasNext() bool {
	return b.valid && b.it.HasNext()
}

// Read advances and returns the next filter leaf.
func (b *BitmapIterator) Read() (*result.Node, error) {
	if !b.valid || !b.it.HasNext() {
		b.valid = false
		return nil, ErrEOF
	}

	id := core.DocID(b.it.Next())
	b.current.DocID = id
	b.lastDocID = id

	return b.current, nil
}

// SkipTo advances to the first set bit >= id.
func (b *BitmapIterator) SkipTo(id core.DocID) (*result.Node, error) {
	if !b.valid {
		return nil, ErrEOF
	}

	b.it.AdvanceIfNeeded(uint32(id))
	if !b.it.HasNext() {
		b.valid = false
		return nil, ErrEOF
	}

	if core.DocID(b.it.PeekNext()) != id {
		return nil, ErrNotFound
	}

	b.it.Next()
	b.current.DocID = id
	b.lastDocID = id

	return b.current, nil
}

// Rewind resets the cursor to the first set bit.
func (b *BitmapIterator) Rewind() {
	b.it = b.bm.Iterator()
	b.lastDocID = 0
	b.valid = true
}

// Abort clears validity; observed on the next HasNext/Read.
func (b *BitmapIterator) Abort() {
	b.valid = false
}

// Free releases the scratch node. The iterator must not be used afterwards.
func (b *BitmapIterator) Free() {
	if b.current != nil {
		b.current.Release()
		b.current = nil
	}
	b.valid = false
}

// LastDocID returns the id of the most recently returned result.
func (b *BitmapIterator) LastDocID() core.DocID {
	return b.lastDocID
}

// NumEstimated returns the cardinality of the backing bitmap.
func (b *BitmapIterator) NumEstimated() int {
	return int(b.bm.GetCardinality())
}
