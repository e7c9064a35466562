package quant

import "errors"

var (
	// ErrEmptyHistogram is returned by Quantize when no pixel has been fed.
	ErrEmptyHistogram = errors.New("histogram is empty: feed pixels before quantizing")

	// ErrNoPalette is returned when an operation needs at least one active
	// palette colour and none exists yet.
	ErrNoPalette = errors.New("no palette: quantize or set a palette first")

	// ErrInvalidBuffer is returned for malformed pixel, palette or index buffers.
	ErrInvalidBuffer = errors.New("invalid buffer")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)
