package colour

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/exoquant/pkg/quant"
)

// Extractor defines the interface for colour extraction algorithms.
type Extractor interface {
	// Extract extracts a colour palette from an image.
	// The count parameter specifies the number of colours to extract.
	Extract(img image.Image, count int) (*Palette, error)
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmVariance splits the cluster with the largest variance until
	// the requested number of colours is reached.
	AlgorithmVariance Algorithm = "variance"

	// AlgorithmVarianceHQ is AlgorithmVariance with a relaxation pass after
	// every split. Slower, lower error.
	AlgorithmVarianceHQ Algorithm = "variance-hq"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmVariance,
		AlgorithmVarianceHQ,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// ExtractorConfig holds configuration for colour extraction.
type ExtractorConfig struct {
	Algorithm  Algorithm
	ColorCount int

	// BitsPerChannel and Transparency are passed to the quantizer.
	BitsPerChannel int
	Transparency   bool

	// MaxDimension downsamples images larger than this on either side before
	// extraction. Zero keeps the full image.
	MaxDimension int

	Logger hclog.Logger
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm:      AlgorithmVariance,
		ColorCount:     16,
		BitsPerChannel: 8,
		Transparency:   true,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if !IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("invalid algorithm: %s (valid algorithms: %v)", c.Algorithm, ValidAlgorithms())
	}
	if c.ColorCount < 1 {
		return fmt.Errorf("color count must be at least 1, got %d", c.ColorCount)
	}
	if c.ColorCount > quant.MaxColors {
		return fmt.Errorf("color count too large: %d (maximum: %d)", c.ColorCount, quant.MaxColors)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max dimension must not be negative, got %d", c.MaxDimension)
	}
	return c.quantConfig().Validate()
}

func (c ExtractorConfig) quantConfig() quant.Config {
	qc := quant.DefaultConfig()
	qc.BitsPerChannel = c.BitsPerChannel
	qc.Transparency = c.Transparency
	if c.Logger != nil {
		qc.Logger = c.Logger
	}
	return qc
}

// NewExtractor creates a new Extractor from the configuration.
func NewExtractor(cfg ExtractorConfig) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VarianceExtractor{cfg: cfg}, nil
}

// VarianceExtractor extracts palettes with the variance-split quantizer.
type VarianceExtractor struct {
	cfg ExtractorConfig
}

// Extract builds a palette of at most count colours from img. Fewer colours
// are returned when the image has fewer distinct colours.
func (e *VarianceExtractor) Extract(img image.Image, count int) (*Palette, error) {
	if count < 1 || count > quant.MaxColors {
		return nil, fmt.Errorf("color count out of range: %d (1..%d)", count, quant.MaxColors)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	if m := e.cfg.MaxDimension; m > 0 && (b.Dx() > m || b.Dy() > m) {
		img = imaging.Fit(img, m, m, imaging.Box)
	}

	q, err := quant.New(e.cfg.quantConfig())
	if err != nil {
		return nil, err
	}
	if err := q.Feed(quant.Pixels(img)); err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	if e.cfg.Algorithm == AlgorithmVarianceHQ {
		err = q.QuantizeHQ(count)
	} else {
		err = q.Quantize(count)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to quantize: %w", err)
	}
	pal, err := q.GetPalette(count)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}
	return FromRGBA(pal), nil
}
