package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeRequiresPixels(t *testing.T) {
	q := NewDefault()
	assert.ErrorIs(t, q.Quantize(4), ErrEmptyHistogram)
	assert.Equal(t, 0, q.NumColors())
}

func TestQuantizeClampsColorCount(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero becomes one", 0, 1},
		{"negative becomes one", -3, 1},
		{"within range", 17, 17},
		{"above maximum", 1000, MaxColors},
	}
	pixels := noisyImage(1, 4096)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fedQuantizer(t, pixels)
			require.NoError(t, q.Quantize(tt.n))
			assert.Equal(t, tt.want, q.NumColors())
		})
	}
}

func TestQuantizeConservesPixelCount(t *testing.T) {
	pixels := noisyImage(2, 5000)

	for _, k := range []int{1, 2, 3, 8, 64, 256} {
		q := fedQuantizer(t, pixels)
		require.NoError(t, q.Quantize(k))
		assert.Equal(t, q.PixelCount(), sum(q.ClusterSizes()), "k=%d", k)

		// Every entry sits in exactly one active node.
		seen := make(map[int32]int)
		for i := range q.NumColors() {
			for _, m := range q.nodes[i].members {
				seen[m]++
			}
		}
		assert.Len(t, seen, q.UniqueColors(), "k=%d", k)
		for m, c := range seen {
			assert.Equal(t, 1, c, "entry %d, k=%d", m, k)
		}
	}
}

func TestQuantizeIsIncremental(t *testing.T) {
	pixels := gradientImage(32, 32)

	a := fedQuantizer(t, pixels)
	require.NoError(t, a.Quantize(16))

	b := fedQuantizer(t, pixels)
	require.NoError(t, b.Quantize(8))
	require.NoError(t, b.Quantize(16))

	assert.Equal(t, a.Colors(), b.Colors())
}

func TestQuantizeHQConservesPixelCount(t *testing.T) {
	q := fedQuantizer(t, noisyImage(3, 3000))
	require.NoError(t, q.QuantizeHQ(12))
	assert.Equal(t, 12, q.NumColors())
	assert.Equal(t, q.PixelCount(), sum(q.ClusterSizes()))
}

func TestQuantizeSeparatesDistinctGroups(t *testing.T) {
	var pixels []byte
	for i := range 5 {
		pixels = append(pixels, rgba([4]byte{byte(200 + i*10), byte(i), 0, 255})...)
		pixels = append(pixels, rgba([4]byte{0, byte(i), byte(200 + i*10), 255})...)
	}
	q := fedQuantizer(t, pixels)
	require.NoError(t, q.Quantize(2))

	idx, err := q.MapImage(10, pixels)
	require.NoError(t, err)
	for i := 2; i < 10; i += 2 {
		assert.Equal(t, idx[0], idx[i], "reds share a colour")
		assert.Equal(t, idx[1], idx[i+1], "blues share a colour")
	}
	assert.NotEqual(t, idx[0], idx[1])
}

func TestSumNodeStatistics(t *testing.T) {
	q := fedQuantizer(t, rgba(black, black, black, white))
	require.NoError(t, q.Quantize(1))

	nd := q.nodes[0]
	assert.Equal(t, 4, nd.num)
	assert.InDelta(t, 0.25, nd.avg.R, 1e-12)
	assert.InDelta(t, 0.30, nd.avg.G, 1e-12)
	assert.InDelta(t, 0.20, nd.avg.B, 1e-12)
	assert.InDelta(t, 1.00, nd.avg.A, 1e-12)

	// Per channel variance sum is w^2 * 3/4; splitting black from white
	// removes all of it.
	wantErr := (1.0 + 1.44 + 0.64) * 0.75
	assert.InDelta(t, wantErr, nd.err, 1e-9)
	assert.InDelta(t, wantErr, nd.vdif, 1e-9)
	assert.Equal(t, 1, nd.split)

	l := nd.dir.dot(nd.dir)
	assert.InDelta(t, 1.0, l, 1e-9)
}

func TestSumNodeSingleColor(t *testing.T) {
	q := fedQuantizer(t, repeat([4]byte{10, 20, 30, 255}, 50))
	require.NoError(t, q.Quantize(1))

	nd := q.nodes[0]
	assert.Equal(t, 50, nd.num)
	assert.InDelta(t, 0, nd.err, 1e-9)
	assert.Equal(t, 0.0, nd.vdif)
}

func TestQuantizeUnsplittableNodes(t *testing.T) {
	// Two colours cannot fill four clusters; growth stops at two distinct
	// palette entries and the pixel count is still conserved.
	for _, hq := range []bool{false, true} {
		q := fedQuantizer(t, rgba(red, blue, red, blue, red))
		require.NoError(t, q.QuantizeEx(4, hq))
		assert.Equal(t, 2, q.NumColors(), "hq=%v", hq)
		assert.Equal(t, 5, sum(q.ClusterSizes()), "hq=%v", hq)

		pal, err := q.GetPalette(16)
		require.NoError(t, err)
		require.Len(t, pal, 8, "hq=%v", hq)
		assert.NotEqual(t, pal[0:4], pal[4:8], "hq=%v", hq)

		// A later request for more colours is still a no-op.
		require.NoError(t, q.Quantize(8))
		assert.Equal(t, 2, q.NumColors(), "hq=%v", hq)
	}
}

func TestBestSplitKeepsLastOfEqualGains(t *testing.T) {
	q := NewDefault()
	q.nodes[0].vdif = 0.5
	q.nodes[1].vdif = 2
	q.nodes[2].vdif = 2
	q.nodes[3].vdif = 1
	assert.Equal(t, 2, q.bestSplit(4))
	assert.Equal(t, 1, q.bestSplit(2))

	// With nothing to gain the scan lands on a node that cannot be split.
	var empty Quantizer
	assert.Equal(t, 0.0, empty.nodes[empty.bestSplit(3)].vdif)
}

func TestMeanError(t *testing.T) {
	q := NewDefault()
	assert.Equal(t, 0.0, q.MeanError())

	require.NoError(t, q.Feed(rgba(black, white)))
	require.NoError(t, q.Quantize(1))
	assert.Greater(t, q.MeanError(), 0.0)

	require.NoError(t, q.Quantize(2))
	assert.InDelta(t, 0.0, q.MeanError(), 1e-6)
}

func TestMeanErrorDecreasesWithColors(t *testing.T) {
	q := fedQuantizer(t, noisyImage(4, 8000))

	prev := -1.0
	for _, k := range []int{1, 2, 4, 8, 16, 32, 64} {
		require.NoError(t, q.Quantize(k))
		_, err := q.GetPalette(k)
		require.NoError(t, err)
		e := q.MeanError()
		if prev >= 0 {
			assert.LessOrEqual(t, e, prev+1e-9, "k=%d", k)
		}
		prev = e
	}
}
