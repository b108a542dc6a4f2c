// Package core defines shared identifier types used across the query
// execution packages.
package core

// DocID is the stable identifier of a document in the corpus.
// It is strictly 32-bit so it can back roaring bitmaps and heaps directly.
// DocID 0 is reserved and never assigned; iterators report 0 from
// LastDocID before the first read.
type DocID uint32

// MaxDocID is the maximum possible value for a DocID.
const MaxDocID = ^DocID(0)
