// Package quant reduces RGBA images to palettes of at most 256 colours and
// maps pixels onto them.
//
// A Quantizer is used once per image: Feed the pixels, Quantize to the
// desired colour count, then read the palette with GetPalette and map pixels
// with MapImage, MapImageOrdered or MapImageRandom. Pixel and palette buffers
// are flat R, G, B, A byte sequences.
//
// Clustering works in a weighted, [0,1]-normalised colour space in which green
// counts more than red and blue counts less. With transparency enabled colours
// are premultiplied by alpha so that fully transparent pixels collapse
// together regardless of their colour channels.
//
// A Quantizer is not safe for concurrent use. Separate instances share no
// state and may run in parallel.
package quant

import (
	"fmt"
	"math/rand/v2"

	"github.com/hashicorp/go-hclog"
)

// Quantizer holds the histogram and cluster state for one image.
type Quantizer struct {
	cfg Config
	log hclog.Logger

	hist      *histogram
	nodes     [MaxColors]node
	numColors int

	// optimized is set once relaxation has run since the last split.
	optimized bool
	// stale is set when node membership no longer covers the histogram,
	// after SetPalette or a Feed following Quantize.
	stale bool

	bound float64
	rng   *rand.Rand
	tmp   []int32
}

// New creates a Quantizer with the given configuration.
func New(cfg Config) (*Quantizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Quantizer{
		cfg:   cfg,
		log:   logger.Named("quant"),
		hist:  newHistogram(),
		bound: searchBound(cfg.Weights),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// NewDefault creates a Quantizer with DefaultConfig.
func NewDefault() *Quantizer {
	q, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return q
}

// NoTransparency disables alpha premultiplication. It must be called before
// the first Feed.
func (q *Quantizer) NoTransparency() {
	q.cfg.Transparency = false
}

// Config returns the quantizer's configuration.
func (q *Quantizer) Config() Config {
	return q.cfg
}

// Feed adds the pixels of an RGBA buffer to the histogram. It may be called
// several times. Feeding after Quantize invalidates the cluster membership,
// which is rebuilt by the next relaxation.
func (q *Quantizer) Feed(pixels []byte) error {
	if len(pixels)%4 != 0 {
		return fmt.Errorf("%w: pixel buffer length %d is not a multiple of 4", ErrInvalidBuffer, len(pixels))
	}
	added := q.hist.feed(pixels, q.cfg.Weights, q.cfg.channelMask(), q.cfg.Transparency)
	if q.numColors > 0 {
		q.stale = q.stale || added > 0
		q.optimized = false
	}
	q.log.Trace("fed pixels", "pixels", len(pixels)/4, "new_colors", added, "unique_colors", q.hist.len())
	return nil
}

// NumColors returns the number of active palette colours.
func (q *Quantizer) NumColors() int {
	return q.numColors
}

// UniqueColors returns the number of distinct colours fed so far.
func (q *Quantizer) UniqueColors() int {
	return q.hist.len()
}

// PixelCount returns the number of pixels fed so far.
func (q *Quantizer) PixelCount() int {
	return q.hist.pixels
}

// Lookup reports how often the exact colour r, g, b, a was fed.
func (q *Quantizer) Lookup(r, g, b, a uint8) (count int, ok bool) {
	idx := q.hist.lookup(r, g, b, a)
	if idx < 0 {
		return 0, false
	}
	return q.hist.entries[idx].num, true
}

// Colors returns the means of the active clusters in weighted space.
func (q *Quantizer) Colors() []Color {
	out := make([]Color, q.numColors)
	for i := range out {
		out[i] = q.nodes[i].avg
	}
	return out
}

// ensureOptimized runs the implicit relaxation passes when the palette has
// changed since the last relaxation. Stale membership always gets at least
// one pass so that the clusters cover the histogram again.
func (q *Quantizer) ensureOptimized() {
	if q.optimized {
		return
	}
	passes := q.cfg.ImplicitPasses
	if q.stale {
		passes = max(passes, 1)
	}
	q.optimize(passes)
}
