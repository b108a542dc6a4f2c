package vexiter_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vexiter/vexiter"
	"github.com/vexiter/vexiter/index"
	"github.com/vexiter/vexiter/index/flat"
	"github.com/vexiter/vexiter/iterator"
)

// Example_filtered demonstrates a top-k query constrained by a filter.
func Example_filtered() {
	idx, err := flat.New(func(o *flat.Options) {
		o.Dimension = 1
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, v := range []float32{0.4, 0.1, 0.3, 0.2} {
		if _, err := idx.Insert([]float32{v}); err != nil {
			log.Fatal(err)
		}
	}

	// Only docs 1, 3 and 4 are eligible.
	matches := roaring.New()
	matches.AddMany([]uint32{1, 3, 4})

	it, err := vexiter.NewHybridIterator(idx, "vec_score", vexiter.TopKQuery{
		Vector: []float32{0},
		K:      2,
	}, index.QueryParams{}, iterator.NewBitmapIterator(matches))
	if err != nil {
		log.Fatal(err)
	}
	defer it.Free()

	for it.HasNext() {
		node, err := it.Read()
		if errors.Is(err, iterator.ErrEOF) {
			break
		}
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("doc %d distance %.2f\n", node.DocID, node.VectorLeaf().Distance)
	}
	// Output:
	// doc 3 distance 0.09
	// doc 4 distance 0.04
}

// Example_standardKNN demonstrates an unfiltered top-k query.
func Example_standardKNN() {
	idx, err := flat.New(func(o *flat.Options) {
		o.Dimension = 1
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, v := range []float32{0.4, 0.1, 0.3, 0.2} {
		if _, err := idx.Insert([]float32{v}); err != nil {
			log.Fatal(err)
		}
	}

	it, err := vexiter.NewHybridIterator(idx, "vec_score", vexiter.TopKQuery{
		Vector: []float32{0},
		K:      2,
	}, index.QueryParams{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer it.Free()

	for it.HasNext() {
		node, err := it.Read()
		if errors.Is(err, iterator.ErrEOF) {
			break
		}
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("doc %d distance %.2f\n", node.DocID, node.Distance)
	}
	// Output:
	// doc 2 distance 0.01
	// doc 4 distance 0.04
}
