package quant

import "fmt"

// GetPalette returns the first min(n, NumColors) palette colours as RGBA
// bytes, running the implicit relaxation first if the palette changed since
// the last one. Colour channels are rounded to the configured bit depth.
func (q *Quantizer) GetPalette(n int) ([]byte, error) {
	if q.numColors == 0 {
		return nil, ErrNoPalette
	}
	n = max(0, min(n, q.numColors))
	q.ensureOptimized()

	w := q.cfg.Weights
	mask := q.cfg.channelMask()
	half := (1 << (8 - q.cfg.BitsPerChannel)) >> 1

	pal := make([]byte, n*4)
	for i := range n {
		avg := q.nodes[i].avg
		r, g, b, a := avg.R, avg.G, avg.B, avg.A
		if q.cfg.Transparency && a != 0 {
			r /= a
			g /= a
			b /= a
		}

		p := pal[i*4 : i*4+4 : i*4+4]
		p[0] = toByte(r / w.R * 255.9)
		p[1] = toByte(g / w.G * 255.9)
		p[2] = toByte(b / w.B * 255.9)
		p[3] = toByte(a / w.A * 255.9)

		for j := range 3 {
			p[j] = uint8(min(int(p[j])+half, 255)) & mask
		}
	}
	return pal, nil
}

// SetPalette replaces the palette with n colours read from an RGBA buffer.
// The colours are used as cluster means as given, without premultiplying,
// and the palette counts as optimized. n is clamped to MaxColors.
func (q *Quantizer) SetPalette(pal []byte, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: palette must hold at least one colour, got %d", ErrInvalidBuffer, n)
	}
	n = min(n, MaxColors)
	if len(pal) < n*4 {
		return fmt.Errorf("%w: palette buffer holds %d bytes, need %d for %d colours", ErrInvalidBuffer, len(pal), n*4, n)
	}

	w := q.cfg.Weights
	for i := range n {
		nd := &q.nodes[i]
		nd.clear()
		nd.avg = Color{
			R: float64(pal[i*4+0]) * w.R / 255.9,
			G: float64(pal[i*4+1]) * w.G / 255.9,
			B: float64(pal[i*4+2]) * w.B / 255.9,
			A: float64(pal[i*4+3]) * w.A / 255.9,
		}
	}
	q.numColors = n
	q.optimized = true
	q.stale = q.hist.len() > 0
	q.hist.resetCaches()
	q.log.Debug("palette set", "colors", n)
	return nil
}

// toByte truncates a channel value to a byte, clamping to [0, 255].
func toByte(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
