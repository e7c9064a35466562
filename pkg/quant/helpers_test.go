package quant

import (
	"bytes"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// rgba packs colours into an RGBA pixel buffer.
func rgba(colors ...[4]byte) []byte {
	out := make([]byte, 0, len(colors)*4)
	for _, c := range colors {
		out = append(out, c[0], c[1], c[2], c[3])
	}
	return out
}

// repeat returns a buffer holding c n times.
func repeat(c [4]byte, n int) []byte {
	out := make([]byte, 0, n*4)
	for range n {
		out = append(out, c[0], c[1], c[2], c[3])
	}
	return out
}

// noisyImage returns n opaque pixels drawn from a seeded source.
func noisyImage(seed uint64, n int) []byte {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]byte, n*4)
	for i := range n {
		out[i*4+0] = byte(r.IntN(256))
		out[i*4+1] = byte(r.IntN(256))
		out[i*4+2] = byte(r.IntN(256))
		out[i*4+3] = 255
	}
	return out
}

// gradientImage returns a w x h opaque gradient.
func gradientImage(w, h int) []byte {
	out := make([]byte, 0, w*h*4)
	for y := range h {
		for x := range w {
			out = append(out, byte(x*255/max(1, w-1)), byte(y*255/max(1, h-1)), byte((x+y)*255/max(1, w+h-2)), 255)
		}
	}
	return out
}

func fedQuantizer(t *testing.T, pixels []byte) *Quantizer {
	t.Helper()
	q := NewDefault()
	require.NoError(t, q.Feed(pixels))
	return q
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

var (
	red   = [4]byte{255, 0, 0, 255}
	green = [4]byte{0, 255, 0, 255}
	blue  = [4]byte{0, 0, 255, 255}
	white = [4]byte{255, 255, 255, 255}
	black = [4]byte{0, 0, 0, 255}
)

// syncBuffer collects log output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
