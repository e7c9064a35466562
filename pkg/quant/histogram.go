package quant

import "math/bits"

const (
	hashBits = 16
	hashSize = 1 << hashBits

	// unresolved marks a cached palette index that has not been computed.
	unresolved = -1
)

// entry is one unique colour observed by Feed.
type entry struct {
	// r, g, b and a are the untruncated input channels; they key the entry.
	r, g, b, a uint8

	color Color
	num   int

	palIndex    int
	hasScale    bool
	ditherScale Color
	ditherIndex [4]int

	nextInHash int32
}

func (e *entry) resetCache() {
	e.palIndex = unresolved
	e.hasScale = false
	e.ditherScale = Color{}
	e.ditherIndex = [4]int{unresolved, unresolved, unresolved, unresolved}
}

// histogram deduplicates pixel colours. Entries live in an arena and are
// chained per hash bucket, newest first.
type histogram struct {
	buckets [hashSize]int32
	entries []entry
	pixels  int

	// order caches the traversal order; nil after an insert.
	order []int32
}

func newHistogram() *histogram {
	h := &histogram{}
	for i := range h.buckets {
		h.buckets[i] = -1
	}
	return h
}

func packRGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// makeHash mixes a packed RGBA value into a bucket index.
func makeHash(rgba uint32) uint32 {
	for range 5 {
		rgba -= bits.RotateLeft32(rgba, -13)
	}
	return rgba & (hashSize - 1)
}

// lookup returns the arena index of the entry keyed by the untruncated tuple,
// or -1.
func (h *histogram) lookup(r, g, b, a uint8) int32 {
	idx := h.buckets[makeHash(packRGBA(r, g, b, a))]
	for idx >= 0 {
		e := &h.entries[idx]
		if e.r == r && e.g == g && e.b == b && e.a == a {
			return idx
		}
		idx = e.nextInHash
	}
	return -1
}

// find returns the entry for pixel i of an RGBA buffer, or nil when that
// colour was never fed.
func (h *histogram) find(pixels []byte, i int) *entry {
	p := pixels[i*4 : i*4+4 : i*4+4]
	idx := h.lookup(p[0], p[1], p[2], p[3])
	if idx < 0 {
		return nil
	}
	return &h.entries[idx]
}

// feed adds every pixel of an RGBA buffer. Colour values are truncated with
// mask (alpha is kept whole), weighted and optionally premultiplied. It
// returns the number of entries created.
func (h *histogram) feed(pixels []byte, w Weights, mask uint8, transparency bool) int {
	added := 0
	for i := 0; i+4 <= len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		hash := makeHash(packRGBA(r, g, b, a))

		idx := h.buckets[hash]
		for idx >= 0 {
			e := &h.entries[idx]
			if e.r == r && e.g == g && e.b == b && e.a == a {
				break
			}
			idx = e.nextInHash
		}
		if idx >= 0 {
			h.entries[idx].num++
			continue
		}

		c := w.weigh(r&mask, g&mask, b&mask, a)
		if transparency {
			c = c.premultiply()
		}
		e := entry{
			r: r, g: g, b: b, a: a,
			color:      c,
			num:        1,
			nextInHash: h.buckets[hash],
		}
		e.resetCache()
		h.entries = append(h.entries, e)
		h.buckets[hash] = int32(len(h.entries) - 1)
		added++
	}
	h.pixels += len(pixels) / 4
	if added > 0 {
		h.order = nil
	}
	return added
}

// traversal returns the arena indices in bucket order, newest first within a
// bucket. The slice is shared; callers must not modify it.
func (h *histogram) traversal() []int32 {
	if h.order != nil {
		return h.order
	}
	order := make([]int32, 0, len(h.entries))
	for _, head := range h.buckets {
		for idx := head; idx >= 0; idx = h.entries[idx].nextInHash {
			order = append(order, idx)
		}
	}
	h.order = order
	return order
}

func (h *histogram) resetCaches() {
	for i := range h.entries {
		h.entries[i].resetCache()
	}
}

func (h *histogram) len() int {
	return len(h.entries)
}
