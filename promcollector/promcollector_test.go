package promcollector

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexiter/vexiter"
)

func TestCollector(t *testing.T) {
	t.Run("Counters", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		c, err := New(reg)
		require.NoError(t, err)

		c.RecordEviction()
		c.RecordRead()
		c.RecordRead()
		c.RecordRewind()

		assert.Equal(t, float64(1), testutil.ToFloat64(c.evictions))
		assert.Equal(t, float64(2), testutil.ToFloat64(c.reads))
		assert.Equal(t, float64(1), testutil.ToFloat64(c.rewinds))
	})

	t.Run("PrepareStatusLabels", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		c, err := New(reg)
		require.NoError(t, err)

		c.RecordPrepare(vexiter.ModeBatched, 2, 5, time.Millisecond, nil)
		c.RecordPrepare(vexiter.ModeBatched, 0, 0, time.Millisecond, errors.New("boom"))

		assert.Equal(t, 1, testutil.CollectAndCount(c.prepareLatency.WithLabelValues("Batched", "ok").(prometheus.Collector)))
		assert.Equal(t, 1, testutil.CollectAndCount(c.prepareLatency.WithLabelValues("Batched", "error").(prometheus.Collector)))
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		_, err := New(reg)
		require.NoError(t, err)

		_, err = New(reg)
		assert.Error(t, err)
	})
}
