package quant

import "fmt"

// ditherOffsets are the per-phase offsets, in units of a colour's dither
// scale, for the four cells of a 2x2 tile. They sum to zero.
var ditherOffsets = [4]float64{-0.375, 0.125, 0.375, -0.125}

// MapImageOrdered maps a width x height RGBA image to palette indices with a
// 2x2 ordered dither.
func (q *Quantizer) MapImageOrdered(width, height int, pixels []byte) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative image size %dx%d", ErrInvalidBuffer, width, height)
	}
	if err := checkPixels(pixels, width*height); err != nil {
		return nil, err
	}
	out := make([]byte, width*height)
	if err := q.MapImageOrderedInto(out, width, pixels[:width*height*4]); err != nil {
		return nil, err
	}
	return out, nil
}

// MapImageOrderedInto is MapImageOrdered writing into dst. Rows are width
// pixels long.
func (q *Quantizer) MapImageOrderedInto(dst []byte, width int, pixels []byte) error {
	if width <= 0 {
		if len(pixels) == 0 {
			return nil
		}
		return fmt.Errorf("%w: image width must be positive, got %d", ErrInvalidBuffer, width)
	}
	return q.mapDither(dst, pixels, width, func(x, y int) int {
		return (x & 1) + (y&1)*2
	})
}

// MapImageRandom maps the first n pixels of an RGBA buffer to palette indices,
// choosing a dither phase uniformly at random for every pixel.
func (q *Quantizer) MapImageRandom(n int, pixels []byte) ([]byte, error) {
	if err := checkPixels(pixels, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := q.MapImageRandomInto(out, pixels[:n*4]); err != nil {
		return nil, err
	}
	return out, nil
}

// MapImageRandomInto is MapImageRandom writing into dst.
func (q *Quantizer) MapImageRandomInto(dst, pixels []byte) error {
	return q.mapDither(dst, pixels, max(1, len(pixels)/4), func(int, int) int {
		return q.rng.IntN(4)
	})
}

func (q *Quantizer) mapDither(dst, pixels []byte, width int, phase func(x, y int) int) error {
	n, err := q.prepareMap(dst, pixels)
	if err != nil {
		return err
	}

	for i := range n {
		x, y := i%width, i/width
		d := phase(x, y)

		e := q.hist.find(pixels, i)
		p := q.pixelColor(pixels, i)

		var scale Color
		if e != nil && e.hasScale {
			scale = e.ditherScale
		} else {
			scale = q.ditherScale(p)
			if e != nil {
				e.ditherScale = scale
				e.hasScale = true
			}
		}

		if e != nil && e.ditherIndex[d] != unresolved {
			dst[i] = byte(e.ditherIndex[d])
			continue
		}
		idx := q.FindNearestColor(p.add(scale.scale(ditherOffsets[d])))
		if e != nil {
			e.ditherIndex[d] = idx
		}
		dst[i] = byte(idx)
	}
	return nil
}

// ditherScale derives how far a colour may be pushed during dithering: the
// distance between its nearest palette colour and the next one found by
// stepping away from the nearest, scaled by 0.8. Colours with no distinct
// neighbour get a zero scale.
func (q *Quantizer) ditherScale(p Color) Color {
	i := q.FindNearestColor(p)
	avgI := q.nodes[i].avg
	e := avgI.sub(p)

	probe := Color{p.R - e.R/3, p.G - e.G/3, p.B - e.B/3, p.A - e.A/3}
	j := q.FindNearestColor(probe)
	if i == j {
		j = q.FindNearestColor(p.sub(e.scale(3)))
	}
	if i == j {
		return Color{}
	}
	return q.nodes[j].avg.sub(avgI).scale(0.8).abs()
}
