package quant

import "fmt"

// MapImage maps the first n pixels of an RGBA buffer to palette indices
// without dithering.
func (q *Quantizer) MapImage(n int, pixels []byte) ([]byte, error) {
	if err := checkPixels(pixels, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := q.MapImageInto(out, pixels[:n*4]); err != nil {
		return nil, err
	}
	return out, nil
}

// MapImageInto writes the palette index of every pixel of an RGBA buffer
// into dst, which must hold at least one byte per pixel.
func (q *Quantizer) MapImageInto(dst, pixels []byte) error {
	n, err := q.prepareMap(dst, pixels)
	if err != nil {
		return err
	}
	for i := range n {
		e := q.hist.find(pixels, i)
		if e != nil && e.palIndex != unresolved {
			dst[i] = byte(e.palIndex)
			continue
		}
		idx := q.FindNearestColor(q.pixelColor(pixels, i))
		if e != nil {
			e.palIndex = idx
		}
		dst[i] = byte(idx)
	}
	return nil
}

// prepareMap validates a mapping request, runs the implicit relaxation and
// returns the pixel count.
func (q *Quantizer) prepareMap(dst, pixels []byte) (int, error) {
	if len(pixels)%4 != 0 {
		return 0, fmt.Errorf("%w: pixel buffer length %d is not a multiple of 4", ErrInvalidBuffer, len(pixels))
	}
	n := len(pixels) / 4
	if len(dst) < n {
		return 0, fmt.Errorf("%w: index buffer holds %d bytes, need %d", ErrInvalidBuffer, len(dst), n)
	}
	if q.numColors == 0 {
		return 0, ErrNoPalette
	}
	q.ensureOptimized()
	return n, nil
}

// pixelColor converts pixel i of an RGBA buffer to weighted space without
// bit-depth truncation.
func (q *Quantizer) pixelColor(pixels []byte, i int) Color {
	p := pixels[i*4 : i*4+4 : i*4+4]
	c := q.cfg.Weights.weigh(p[0], p[1], p[2], p[3])
	if q.cfg.Transparency {
		c = c.premultiply()
	}
	return c
}

func checkPixels(pixels []byte, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative pixel count %d", ErrInvalidBuffer, n)
	}
	if len(pixels)%4 != 0 {
		return fmt.Errorf("%w: pixel buffer length %d is not a multiple of 4", ErrInvalidBuffer, len(pixels))
	}
	if len(pixels)/4 < n {
		return fmt.Errorf("%w: pixel buffer holds %d pixels, need %d", ErrInvalidBuffer, len(pixels)/4, n)
	}
	return nil
}
