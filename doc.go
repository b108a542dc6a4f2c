// Package vexiter implements hybrid query execution for vector search:
// top-k nearest-neighbor retrieval combined with an arbitrary filter.
//
// The entry point is NewHybridIterator, which builds the root iterator
// of a query plan from a vector index and an optional filter iterator:
//
//	idx, _ := flat.New(func(o *flat.Options) { o.Dimension = 128 })
//	// ... insert vectors ...
//
//	filter := iterator.NewBitmapIterator(matches)
//	it, err := vexiter.NewHybridIterator(idx, "vec_score", vexiter.TopKQuery{
//	    Vector: query,
//	    K:      10,
//	}, index.QueryParams{}, filter)
//	if err != nil {
//	    return err
//	}
//	defer it.Free()
//
//	for it.HasNext() {
//	    node, err := it.Read()
//	    if errors.Is(err, iterator.ErrEOF) {
//	        break
//	    }
//	    // node.DocID passed the filter; node.VectorLeaf().Distance
//	    // is its vector distance.
//	}
//
// # Query strategies
//
// Without a filter the iterator streams the index's own top-k result
// list (StandardKNN). With a filter it retrieves candidates in batches
// and merge-joins each id-ordered batch against the filter iterator,
// keeping the k best matches in a bounded heap (Batched). An ad-hoc
// brute-force strategy, which would scan filter matches and compute
// exact distances directly, is defined but not implemented; see Mode.
//
// The iterator is single-consumer and synchronous: one execution context
// drives it via repeated Read calls, and cancellation via Abort is
// cooperative.
package vexiter
