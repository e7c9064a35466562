package quant

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// MaxColors is the largest palette the engine produces.
const MaxColors = 256

// DefaultImplicitPasses is the number of relaxation passes run before the
// first palette read or image mapping when the palette is not yet optimized.
const DefaultImplicitPasses = 4

// Config holds the settings for a Quantizer.
type Config struct {
	// BitsPerChannel truncates r, g and b to this many bits when building the
	// histogram and rounds exported palette entries to the same depth (1-8).
	BitsPerChannel int

	// Transparency premultiplies colours by alpha before clustering.
	Transparency bool

	// Weights scales each channel after normalisation.
	Weights Weights

	// ImplicitPasses is the relaxation pass count used when a palette read or
	// mapping finds the palette unoptimized. Zero disables implicit passes.
	ImplicitPasses int

	// Seed seeds the phase source used by MapImageRandom.
	Seed uint64

	// Logger receives trace and debug output. Nil means no logging.
	Logger hclog.Logger
}

// DefaultConfig returns the default quantizer configuration.
func DefaultConfig() Config {
	return Config{
		BitsPerChannel: 8,
		Transparency:   true,
		Weights:        DefaultWeights(),
		ImplicitPasses: DefaultImplicitPasses,
	}
}

// Validate validates the quantizer configuration.
func (c Config) Validate() error {
	if c.BitsPerChannel < 1 || c.BitsPerChannel > 8 {
		return fmt.Errorf("%w: bits per channel must be between 1 and 8, got %d", ErrInvalidConfig, c.BitsPerChannel)
	}
	w := c.Weights
	if w.R <= 0 || w.G <= 0 || w.B <= 0 || w.A <= 0 {
		return fmt.Errorf("%w: channel weights must be positive, got %+v", ErrInvalidConfig, w)
	}
	if c.ImplicitPasses < 0 {
		return fmt.Errorf("%w: implicit passes cannot be negative, got %d", ErrInvalidConfig, c.ImplicitPasses)
	}
	return nil
}

// channelMask keeps the top BitsPerChannel bits of an 8-bit value.
func (c Config) channelMask() uint8 {
	return uint8(uint16(0xFF00) >> c.BitsPerChannel)
}
