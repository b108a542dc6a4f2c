package vexiter

import (
	"sort"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
	"github.com/vexiter/vexiter/index/flat"
	"github.com/vexiter/vexiter/iterator"
	"github.com/vexiter/vexiter/result"
)

// scriptedIndex serves predetermined candidate batches, so tests can
// control exactly which candidates arrive in which order.
type scriptedIndex struct {
	entries index.ResultList
	batches []index.ResultList

	lastBatchIt *scriptedBatchIterator
}

var _ index.Index = (*scriptedIndex)(nil)

func (s *scriptedIndex) GobEncode() ([]byte, error) { return nil, nil }
func (s *scriptedIndex) GobDecode([]byte) error     { return nil }

func (s *scriptedIndex) Insert([]float32) (core.DocID, error) {
	return 0, nil
}

func (s *scriptedIndex) TopKQuery(_ []float32, k int, _ index.QueryParams, order index.Order) (index.ResultList, error) {
	list := make(index.ResultList, len(s.entries))
	copy(list, s.entries)
	list.Sort(index.OrderByScore)

	if k < len(list) {
		list = list[:k]
	}
	list.Sort(order)

	return list, nil
}

func (s *scriptedIndex) NewBatchIterator([]float32, index.QueryParams) (index.BatchIterator, error) {
	s.lastBatchIt = &scriptedBatchIterator{batches: s.batches}
	return s.lastBatchIt, nil
}

func (s *scriptedIndex) DistanceTo(id core.DocID, _ []float32) (float32, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e.Distance, nil
		}
	}

	return 0, &index.ErrNodeNotFound{ID: id}
}

func (s *scriptedIndex) Size() int {
	return len(s.entries)
}

type scriptedBatchIterator struct {
	batches []index.ResultList
	pos     int
	sizes   []int
	freed   bool
}

func (it *scriptedBatchIterator) HasNext() bool {
	return it.pos < len(it.batches)
}

func (it *scriptedBatchIterator) Next(batchSize int, order index.Order) (index.ResultList, error) {
	it.sizes = append(it.sizes, batchSize)

	batch := make(index.ResultList, len(it.batches[it.pos]))
	copy(batch, it.batches[it.pos])
	batch.Sort(order)
	it.pos++

	return batch, nil
}

func (it *scriptedBatchIterator) Free() {
	it.freed = true
}

func newScriptedIndex(batches ...index.ResultList) *scriptedIndex {
	var entries index.ResultList
	for _, b := range batches {
		entries = append(entries, b...)
	}

	return &scriptedIndex{entries: entries, batches: batches}
}

func newBitmap(ids ...uint32) *roaring.Bitmap {
	bm := roaring.New()
	bm.AddMany(ids)

	return bm
}

// drain reads the iterator to exhaustion, cloning each result so the
// collected nodes survive subsequent reads, and returns the clones.
func drain(t *testing.T, h *HybridIterator) []*result.Node {
	t.Helper()

	var out []*result.Node
	for {
		res, err := h.Read()
		if err != nil {
			require.ErrorIs(t, err, iterator.ErrEOF)
			break
		}
		out = append(out, res.Clone())
	}

	return out
}

func releaseAll(nodes []*result.Node) {
	for _, n := range nodes {
		n.Release()
	}
}

func TestNewHybridIterator(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{{ID: 1, Distance: 0.1}})
	query := TopKQuery{Vector: []float32{1}, K: 1}

	t.Run("NilIndex", func(t *testing.T) {
		_, err := NewHybridIterator(nil, "vec", query, index.QueryParams{}, nil)
		assert.ErrorIs(t, err, ErrNilIndex)
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: 0}, index.QueryParams{}, nil)
		assert.ErrorIs(t, err, ErrInvalidK)

		_, err = NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: -3}, index.QueryParams{}, nil)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("EmptyVector", func(t *testing.T) {
		_, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: nil, K: 1}, index.QueryParams{}, nil)
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("DefaultModeWithoutFilter", func(t *testing.T) {
		h, err := NewHybridIterator(idx, "vec", query, index.QueryParams{}, nil)
		require.NoError(t, err)
		defer h.Free()

		assert.Equal(t, ModeStandardKNN, h.Mode())
	})

	t.Run("DefaultModeWithFilter", func(t *testing.T) {
		h, err := NewHybridIterator(idx, "vec", query, index.QueryParams{}, iterator.NewBitmapIterator(newBitmap(1)))
		require.NoError(t, err)
		defer h.Free()

		assert.Equal(t, ModeBatched, h.Mode())
	})
}

func TestHybridIteratorStandardKNN(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.4},
		{ID: 2, Distance: 0.1},
		{ID: 3, Distance: 0.3},
		{ID: 4, Distance: 0.2},
	})

	h, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: 3}, index.QueryParams{}, nil)
	require.NoError(t, err)
	defer h.Free()

	var ids []core.DocID
	var dists []float32
	for h.HasNext() {
		res, err := h.Read()
		if err != nil {
			require.ErrorIs(t, err, iterator.ErrEOF)
			break
		}
		assert.Equal(t, result.KindDistance, res.Kind)
		assert.Equal(t, "vec", res.ScoreField)
		assert.Equal(t, res.DocID, h.LastDocID())
		ids = append(ids, res.DocID)
		dists = append(dists, res.Distance)
	}

	assert.Equal(t, []core.DocID{2, 4, 3}, ids)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, dists)
	assert.False(t, h.HasNext())

	_, err = h.Read()
	assert.ErrorIs(t, err, iterator.ErrEOF)
}

func TestHybridIteratorBatched(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.1},
		{ID: 2, Distance: 0.2},
		{ID: 3, Distance: 0.3},
		{ID: 4, Distance: 0.4},
		{ID: 5, Distance: 0.5},
	})

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 3},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(2, 4, 5)),
	)
	require.NoError(t, err)
	defer h.Free()

	results := drain(t, h)
	defer releaseAll(results)
	require.Len(t, results, 3)

	// The heap emits the worst accepted result first.
	assert.Equal(t, core.DocID(5), results[0].DocID)
	assert.Equal(t, core.DocID(4), results[1].DocID)
	assert.Equal(t, core.DocID(2), results[2].DocID)

	for _, res := range results {
		assert.Equal(t, result.KindHybrid, res.Kind)
		require.Len(t, res.Children, 2)
		assert.Equal(t, result.KindDistance, res.Children[0].Kind)
		assert.Equal(t, result.KindFilter, res.Children[1].Kind)
		assert.Equal(t, res.DocID, res.Children[0].DocID)
		assert.Equal(t, res.DocID, res.Children[1].DocID)
	}

	assert.InDelta(t, 0.5, results[0].VectorLeaf().Distance, 1e-6)
	assert.InDelta(t, 0.4, results[1].VectorLeaf().Distance, 1e-6)
	assert.InDelta(t, 0.2, results[2].VectorLeaf().Distance, 1e-6)

	require.NotNil(t, idx.lastBatchIt)
	assert.True(t, idx.lastBatchIt.freed)
}

func TestHybridIteratorEviction(t *testing.T) {
	// A later candidate of the same batch is strictly better than the
	// current worst heap entry; it must evict it.
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.9},
		{ID: 2, Distance: 0.8},
		{ID: 3, Distance: 0.5},
	})

	metrics := &BasicMetricsCollector{}

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 2},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(1, 2, 3)),
		WithMetrics(metrics),
	)
	require.NoError(t, err)
	defer h.Free()

	results := drain(t, h)
	defer releaseAll(results)
	require.Len(t, results, 2)

	assert.Equal(t, core.DocID(2), results[0].DocID)
	assert.Equal(t, core.DocID(3), results[1].DocID)
	assert.InDelta(t, 0.8, results[0].VectorLeaf().Distance, 1e-6)
	assert.InDelta(t, 0.5, results[1].VectorLeaf().Distance, 1e-6)

	assert.Equal(t, int64(1), metrics.Evictions.Load())
	assert.Equal(t, int64(1), metrics.BatchCount.Load())
	assert.Equal(t, int64(2), metrics.Reads.Load())
}

func TestHybridIteratorEmptyFilter(t *testing.T) {
	idx := newScriptedIndex(
		index.ResultList{{ID: 1, Distance: 0.1}, {ID: 2, Distance: 0.2}},
		index.ResultList{{ID: 3, Distance: 0.3}},
	)

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 2},
		index.QueryParams{},
		iterator.NewBitmapIterator(roaring.New()),
	)
	require.NoError(t, err)
	defer h.Free()

	_, err = h.Read()
	assert.ErrorIs(t, err, iterator.ErrEOF)
	assert.False(t, h.HasNext())
	assert.GreaterOrEqual(t, h.NumEstimated(), 0)

	// All batches were consumed before giving up.
	require.NotNil(t, idx.lastBatchIt)
	assert.False(t, idx.lastBatchIt.HasNext())
}

func TestHybridIteratorRewind(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.1},
		{ID: 2, Distance: 0.2},
		{ID: 3, Distance: 0.3},
	})

	metrics := &BasicMetricsCollector{}

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 2},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(1, 3)),
		WithMetrics(metrics),
	)
	require.NoError(t, err)
	defer h.Free()

	first := drain(t, h)
	firstIDs := docIDs(first)
	releaseAll(first)

	h.Rewind()
	assert.True(t, h.HasNext())
	assert.Equal(t, core.DocID(0), h.LastDocID())

	second := drain(t, h)
	defer releaseAll(second)

	assert.Equal(t, firstIDs, docIDs(second))
	assert.Equal(t, []core.DocID{3, 1}, firstIDs)
	assert.Equal(t, int64(1), metrics.Rewinds.Load())
	assert.Equal(t, int64(2), metrics.PrepareCount.Load())
}

func docIDs(nodes []*result.Node) []core.DocID {
	ids := make([]core.DocID, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.DocID)
	}

	return ids
}

func TestHybridIteratorAbort(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.1},
		{ID: 2, Distance: 0.2},
	})

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 2},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(1, 2)),
	)
	require.NoError(t, err)
	defer h.Free()

	res, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, res.DocID, h.LastDocID())

	h.Abort()
	assert.False(t, h.HasNext())

	_, err = h.Read()
	assert.ErrorIs(t, err, iterator.ErrEOF)
}

func TestHybridIteratorFree(t *testing.T) {
	t.Run("BeforeFirstRead", func(t *testing.T) {
		idx := newScriptedIndex(index.ResultList{{ID: 1, Distance: 0.1}})

		h, err := NewHybridIterator(idx, "vec",
			TopKQuery{Vector: []float32{1}, K: 1},
			index.QueryParams{},
			iterator.NewBitmapIterator(newBitmap(1)),
		)
		require.NoError(t, err)

		h.Free()
		h.Free()

		_, err = h.Read()
		assert.ErrorIs(t, err, iterator.ErrEOF)
	})

	t.Run("WithUnreadResults", func(t *testing.T) {
		idx := newScriptedIndex(index.ResultList{
			{ID: 1, Distance: 0.1},
			{ID: 2, Distance: 0.2},
		})

		h, err := NewHybridIterator(idx, "vec",
			TopKQuery{Vector: []float32{1}, K: 2},
			index.QueryParams{},
			iterator.NewBitmapIterator(newBitmap(1, 2)),
		)
		require.NoError(t, err)

		// One result handed out, one still on the heap. Free releases
		// both.
		_, err = h.Read()
		require.NoError(t, err)

		h.Free()
	})
}

func TestHybridIteratorSkipTo(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{{ID: 1, Distance: 0.1}})

	h, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: 1}, index.QueryParams{}, nil)
	require.NoError(t, err)
	defer h.Free()

	_, err = h.SkipTo(1)
	assert.ErrorIs(t, err, iterator.ErrNotSupported)
}

func TestHybridIteratorNumEstimated(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{
		{ID: 1, Distance: 0.1},
		{ID: 2, Distance: 0.2},
		{ID: 3, Distance: 0.3},
		{ID: 4, Distance: 0.4},
		{ID: 5, Distance: 0.5},
	})

	t.Run("CappedByK", func(t *testing.T) {
		h, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: 2}, index.QueryParams{}, nil)
		require.NoError(t, err)
		defer h.Free()

		assert.Equal(t, 2, h.NumEstimated())
	})

	t.Run("CappedByIndexSize", func(t *testing.T) {
		h, err := NewHybridIterator(idx, "vec", TopKQuery{Vector: []float32{1}, K: 10}, index.QueryParams{}, nil)
		require.NoError(t, err)
		defer h.Free()

		assert.Equal(t, 5, h.NumEstimated())
	})

	t.Run("CappedByFilter", func(t *testing.T) {
		h, err := NewHybridIterator(idx, "vec",
			TopKQuery{Vector: []float32{1}, K: 10},
			index.QueryParams{},
			iterator.NewBitmapIterator(newBitmap(2, 4)),
		)
		require.NoError(t, err)
		defer h.Free()

		assert.Equal(t, 2, h.NumEstimated())
	})
}

func TestHybridIteratorAdhocBruteForce(t *testing.T) {
	idx := newScriptedIndex(index.ResultList{{ID: 1, Distance: 0.1}})

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 1},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(1)),
		WithModePolicy(func(bool, int, int) Mode { return ModeAdhocBruteForce }),
	)
	require.NoError(t, err)
	defer h.Free()

	assert.Equal(t, ModeAdhocBruteForce, h.Mode())

	_, err = h.Read()
	assert.ErrorIs(t, err, ErrModeNotImplemented)
	assert.False(t, h.HasNext())
}

func TestHybridIteratorBatchSizePolicy(t *testing.T) {
	idx := newScriptedIndex(
		index.ResultList{{ID: 1, Distance: 0.1}},
		index.ResultList{{ID: 2, Distance: 0.2}},
	)

	h, err := NewHybridIterator(idx, "vec",
		TopKQuery{Vector: []float32{1}, K: 2},
		index.QueryParams{},
		iterator.NewBitmapIterator(newBitmap(1, 2)),
		WithBatchSizePolicy(func(k, indexSize, filterEstimate int) int { return k * 4 }),
	)
	require.NoError(t, err)
	defer h.Free()

	results := drain(t, h)
	releaseAll(results)

	require.NotNil(t, idx.lastBatchIt)
	assert.Equal(t, []int{8, 8}, idx.lastBatchIt.sizes)
}

func TestHybridIteratorFlatIndex(t *testing.T) {
	f, err := flat.New(func(o *flat.Options) {
		o.Dimension = 1
	})
	require.NoError(t, err)

	vectors := []float32{0.7, 0.1, 0.9, 0.3, 0.5, 0.2, 0.8}
	for _, v := range vectors {
		_, err := f.Insert([]float32{v})
		require.NoError(t, err)
	}

	filter := newBitmap(1, 3, 4, 6)
	const k = 3

	h, err := NewHybridIterator(f, "vec",
		TopKQuery{Vector: []float32{0}, K: k},
		index.QueryParams{},
		iterator.NewBitmapIterator(filter),
	)
	require.NoError(t, err)
	defer h.Free()

	results := drain(t, h)
	defer releaseAll(results)
	require.Len(t, results, k)

	// Brute-force expectation: squared distances of the filtered docs,
	// k smallest.
	type pair struct {
		id   core.DocID
		dist float32
	}
	var expected []pair
	for _, id := range filter.ToArray() {
		v := vectors[id-1]
		expected = append(expected, pair{core.DocID(id), v * v})
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i].dist < expected[j].dist })
	expected = expected[:k]

	got := map[core.DocID]float32{}
	for _, res := range results {
		got[res.DocID] = res.VectorLeaf().Distance
	}

	require.Len(t, got, k)
	for _, e := range expected {
		dist, ok := got[e.id]
		require.True(t, ok, "missing doc %d", e.id)
		assert.InDelta(t, e.dist, dist, 1e-6)
	}

	// Worst accepted result comes out first.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t,
			results[i-1].VectorLeaf().Distance,
			results[i].VectorLeaf().Distance,
		)
	}
}
