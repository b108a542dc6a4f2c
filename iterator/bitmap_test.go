package iterator

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexiter/vexiter/core"
)

func TestBitmapIterator(t *testing.T) {
	t.Run("ReadInOrder", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(5, 2, 9))
		defer it.Free()

		var ids []core.DocID
		for it.HasNext() {
			n, err := it.Read()
			require.NoError(t, err)
			ids = append(ids, n.DocID)
		}
		assert.Equal(t, []core.DocID{2, 5, 9}, ids)

		_, err := it.Read()
		assert.ErrorIs(t, err, ErrEOF)
		assert.False(t, it.HasNext())
		assert.Equal(t, core.DocID(9), it.LastDocID())
	})

	t.Run("SkipToExact", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(2, 5, 9))
		defer it.Free()

		n, err := it.SkipTo(5)
		require.NoError(t, err)
		assert.Equal(t, core.DocID(5), n.DocID)

		// Next read continues past the match.
		n, err = it.Read()
		require.NoError(t, err)
		assert.Equal(t, core.DocID(9), n.DocID)
	})

	t.Run("SkipToNotFoundFallsBackToRead", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(2, 5, 9))
		defer it.Free()

		_, err := it.SkipTo(3)
		require.ErrorIs(t, err, ErrNotFound)

		// The cursor sits on the next id past the target.
		n, err := it.Read()
		require.NoError(t, err)
		assert.Equal(t, core.DocID(5), n.DocID)
	})

	t.Run("SkipToPastEnd", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(2, 5))
		defer it.Free()

		_, err := it.SkipTo(100)
		assert.ErrorIs(t, err, ErrEOF)
		assert.False(t, it.HasNext())
	})

	t.Run("Rewind", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(1, 2))
		defer it.Free()

		for it.HasNext() {
			_, err := it.Read()
			require.NoError(t, err)
		}
		it.Rewind()

		assert.Equal(t, core.DocID(0), it.LastDocID())
		n, err := it.Read()
		require.NoError(t, err)
		assert.Equal(t, core.DocID(1), n.DocID)
	})

	t.Run("Abort", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(1, 2, 3))
		defer it.Free()

		_, err := it.Read()
		require.NoError(t, err)

		it.Abort()
		assert.False(t, it.HasNext())
		_, err = it.Read()
		assert.ErrorIs(t, err, ErrEOF)

		// Rewind restores validity.
		it.Rewind()
		assert.True(t, it.HasNext())
	})

	t.Run("NumEstimated", func(t *testing.T) {
		it := NewBitmapIterator(roaring.BitmapOf(1, 2, 3))
		defer it.Free()
		assert.Equal(t, 3, it.NumEstimated())

		empty := NewBitmapIterator(roaring.New())
		defer empty.Free()
		assert.Equal(t, 0, empty.NumEstimated())
		assert.False(t, empty.HasNext())
	})
}
