package quant

// Color is a colour in weighted, [0,1]-normalised space. When transparency is
// enabled the R, G and B channels are premultiplied by A.
type Color struct {
	R, G, B, A float64
}

// Weights are the per-channel emphasis factors applied after normalisation.
// Larger weights make a channel count for more in distance comparisons.
type Weights struct {
	R, G, B, A float64
}

// DefaultWeights favour green and discount blue, roughly following the eye's
// sensitivity.
func DefaultWeights() Weights {
	return Weights{R: 1.0, G: 1.2, B: 0.8, A: 1.0}
}

// Max returns the largest channel weight.
func (w Weights) Max() float64 {
	m := w.R
	for _, v := range [...]float64{w.G, w.B, w.A} {
		if v > m {
			m = v
		}
	}
	return m
}

func (c Color) add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

func (c Color) sub(o Color) Color {
	return Color{c.R - o.R, c.G - o.G, c.B - o.B, c.A - o.A}
}

func (c Color) scale(f float64) Color {
	return Color{c.R * f, c.G * f, c.B * f, c.A * f}
}

func (c Color) dot(o Color) float64 {
	return c.R*o.R + c.G*o.G + c.B*o.B + c.A*o.A
}

func (c Color) abs() Color {
	if c.R < 0 {
		c.R = -c.R
	}
	if c.G < 0 {
		c.G = -c.G
	}
	if c.B < 0 {
		c.B = -c.B
	}
	if c.A < 0 {
		c.A = -c.A
	}
	return c
}

// distSq is the squared Euclidean distance across all four channels.
func (c Color) distSq(o Color) float64 {
	dr := c.R - o.R
	dg := c.G - o.G
	db := c.B - o.B
	da := c.A - o.A
	return dr*dr + dg*dg + db*db + da*da
}

// weigh converts 8-bit channel values into weighted, normalised space.
func (w Weights) weigh(r, g, b, a uint8) Color {
	return Color{
		R: float64(r) / 255.0 * w.R,
		G: float64(g) / 255.0 * w.G,
		B: float64(b) / 255.0 * w.B,
		A: float64(a) / 255.0 * w.A,
	}
}

func (c Color) premultiply() Color {
	c.R *= c.A
	c.G *= c.A
	c.B *= c.A
	return c
}

// searchBound returns a squared distance larger than any distance the engine
// can observe between a query and a cluster mean. Means stay inside the
// weighted gamut and queries stay within 3*wmax of it per channel (dither
// extrapolation), so each channel difference is below 4*wmax.
func searchBound(w Weights) float64 {
	m := 4 * w.Max()
	return 4*m*m + 1
}
