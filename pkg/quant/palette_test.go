package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// near reports whether a palette entry is within tol of c on every channel.
func near(entry []byte, c [4]byte, tol int) bool {
	for i := range 4 {
		d := int(entry[i]) - int(c[i])
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

func TestGetPaletteRequiresPalette(t *testing.T) {
	q := NewDefault()
	_, err := q.GetPalette(4)
	assert.ErrorIs(t, err, ErrNoPalette)

	require.NoError(t, q.Feed(rgba(red)))
	_, err = q.GetPalette(4)
	assert.ErrorIs(t, err, ErrNoPalette)
}

func TestPrimaryColorsScenario(t *testing.T) {
	pixels := rgba(red, green, blue, white)

	t.Run("four colours", func(t *testing.T) {
		q := fedQuantizer(t, pixels)
		require.NoError(t, q.Quantize(4))
		pal, err := q.GetPalette(4)
		require.NoError(t, err)
		require.Len(t, pal, 16)

		for _, c := range [][4]byte{red, green, blue, white} {
			found := 0
			for i := range 4 {
				if near(pal[i*4:i*4+4], c, 1) {
					found++
				}
			}
			assert.Equal(t, 1, found, "colour %v", c)
		}
	})

	t.Run("one colour", func(t *testing.T) {
		q := fedQuantizer(t, pixels)
		require.NoError(t, q.Quantize(1))
		pal, err := q.GetPalette(4)
		require.NoError(t, err)
		require.Len(t, pal, 4)

		assert.InDelta(t, 127.5, float64(pal[0]), 1)
		assert.InDelta(t, 127.5, float64(pal[1]), 1)
		assert.InDelta(t, 127.5, float64(pal[2]), 1)
		assert.Equal(t, byte(255), pal[3])
	})
}

func TestSingleColorScenario(t *testing.T) {
	c := [4]byte{10, 20, 30, 255}
	pixels := repeat(c, 37)
	q := fedQuantizer(t, pixels)
	require.NoError(t, q.Quantize(1))

	pal, err := q.GetPalette(1)
	require.NoError(t, err)
	assert.True(t, near(pal, c, 1), "palette %v", pal)

	idx, err := q.MapImage(37, pixels)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 37), idx)
}

func TestGetPaletteLength(t *testing.T) {
	q := fedQuantizer(t, noisyImage(9, 2000))
	require.NoError(t, q.Quantize(10))

	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: 0},
		{n: 4, want: 4},
		{n: 10, want: 10},
		{n: 300, want: 10},
	}
	for _, tt := range tests {
		pal, err := q.GetPalette(tt.n)
		require.NoError(t, err)
		assert.Len(t, pal, tt.want*4, "n=%d", tt.n)
	}
}

func TestGetPaletteIsStable(t *testing.T) {
	q := fedQuantizer(t, noisyImage(10, 3000))
	require.NoError(t, q.Quantize(16))

	first, err := q.GetPalette(16)
	require.NoError(t, err)
	for range 3 {
		again, err := q.GetPalette(16)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGetPaletteRoundsToBitDepth(t *testing.T) {
	tests := []struct {
		name  string
		bits  int
		pixel [4]byte
		want  [4]byte
	}{
		{"eight bits", 8, [4]byte{201, 77, 3, 255}, [4]byte{201, 77, 3, 255}},
		{"four bits", 4, [4]byte{200, 23, 0, 255}, [4]byte{192, 16, 0, 255}},
		{"four bits white stays bright", 4, white, [4]byte{240, 240, 240, 255}},
		{"one bit", 1, [4]byte{255, 100, 0, 255}, [4]byte{128, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BitsPerChannel = tt.bits
			q, err := New(cfg)
			require.NoError(t, err)
			require.NoError(t, q.Feed(rgba(tt.pixel)))
			require.NoError(t, q.Quantize(1))

			pal, err := q.GetPalette(1)
			require.NoError(t, err)
			assert.Equal(t, tt.want[:], pal)
		})
	}
}

func TestGetPaletteUnpremultiplies(t *testing.T) {
	q := fedQuantizer(t, rgba([4]byte{200, 100, 50, 128}))
	require.NoError(t, q.Quantize(1))

	pal, err := q.GetPalette(1)
	require.NoError(t, err)
	assert.True(t, near(pal, [4]byte{200, 100, 50, 128}, 1), "palette %v", pal)
}

func TestSetPaletteRoundTrip(t *testing.T) {
	src := fedQuantizer(t, noisyImage(11, 4000))
	require.NoError(t, src.Quantize(12))
	pal, err := src.GetPalette(12)
	require.NoError(t, err)

	dst := NewDefault()
	require.NoError(t, dst.SetPalette(pal, 12))
	assert.Equal(t, 12, dst.NumColors())

	back, err := dst.GetPalette(12)
	require.NoError(t, err)
	require.Len(t, back, len(pal))
	for i := range pal {
		assert.InDelta(t, float64(pal[i]), float64(back[i]), 1, "byte %d", i)
	}
}

func TestSetPaletteValidation(t *testing.T) {
	q := NewDefault()
	assert.ErrorIs(t, q.SetPalette(rgba(red), 0), ErrInvalidBuffer)
	assert.ErrorIs(t, q.SetPalette(rgba(red), 2), ErrInvalidBuffer)

	big := repeat(red, 300)
	require.NoError(t, q.SetPalette(big, 300))
	assert.Equal(t, MaxColors, q.NumColors())
}

func TestSetPaletteKeepsMeans(t *testing.T) {
	q := fedQuantizer(t, noisyImage(12, 1000))
	require.NoError(t, q.SetPalette(rgba(black, white), 2))

	// The palette counts as optimized, so reading it does not move it.
	pal, err := q.GetPalette(2)
	require.NoError(t, err)
	assert.True(t, near(pal[0:4], black, 1))
	assert.True(t, near(pal[4:8], white, 1))

	// Quantizing further starts from the fixed palette.
	require.NoError(t, q.Quantize(4))
	assert.Equal(t, 1000, sum(q.ClusterSizes()))
}
