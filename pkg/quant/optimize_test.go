package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizePaletteRequiresPalette(t *testing.T) {
	q := fedQuantizer(t, rgba(red))
	assert.ErrorIs(t, q.OptimizePalette(1), ErrNoPalette)
}

func TestOptimizePaletteNeverIncreasesError(t *testing.T) {
	q := fedQuantizer(t, noisyImage(5, 6000))
	require.NoError(t, q.Quantize(24))

	prev := q.TotalError()
	for pass := range 10 {
		require.NoError(t, q.OptimizePalette(1))
		e := q.TotalError()
		assert.LessOrEqual(t, e, prev+1e-9, "pass %d", pass)
		assert.Equal(t, q.PixelCount(), sum(q.ClusterSizes()))
		prev = e
	}
}

func TestOptimizePalettePartitionsHistogram(t *testing.T) {
	q := fedQuantizer(t, gradientImage(16, 16))
	require.NoError(t, q.Quantize(6))
	require.NoError(t, q.OptimizePalette(3))
	require.True(t, q.optimized)

	// Membership is a partition of the histogram.
	owner := make(map[int32]int)
	for i := range q.NumColors() {
		for _, m := range q.nodes[i].members {
			_, dup := owner[m]
			require.False(t, dup)
			owner[m] = i
		}
	}
	assert.Len(t, owner, q.UniqueColors())
}

func TestFeedAfterQuantizeRebuildsMembership(t *testing.T) {
	q := fedQuantizer(t, noisyImage(6, 1000))
	require.NoError(t, q.Quantize(8))
	require.NoError(t, q.Feed(noisyImage(7, 500)))
	assert.True(t, q.stale)
	assert.False(t, q.optimized)

	_, err := q.GetPalette(8)
	require.NoError(t, err)
	assert.False(t, q.stale)
	assert.Equal(t, 1500, sum(q.ClusterSizes()))

	require.NoError(t, q.Quantize(16))
	assert.Equal(t, 1500, sum(q.ClusterSizes()))
}

func TestImplicitPassesCanBeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImplicitPasses = 0
	q, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, q.Feed(noisyImage(8, 2000)))
	require.NoError(t, q.Quantize(8))

	before := q.Colors()
	_, err = q.GetPalette(8)
	require.NoError(t, err)
	assert.Equal(t, before, q.Colors())
}

func TestFeedAfterQuantizeRebuildsMembershipWithoutImplicitPasses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImplicitPasses = 0
	q, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, q.Feed(noisyImage(13, 800)))
	require.NoError(t, q.Quantize(6))
	require.NoError(t, q.Feed(noisyImage(14, 400)))

	_, err = q.GetPalette(6)
	require.NoError(t, err)
	assert.False(t, q.stale)
	assert.Equal(t, q.PixelCount(), sum(q.ClusterSizes()))
}
