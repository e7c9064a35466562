// Package colour provides palette extraction on top of the quantizer engine.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// Palette represents a collection of colours extracted from an image.
type Palette struct {
	Colors []color.NRGBA
}

// NewPalette creates a new Palette with the given colours.
func NewPalette(colors []color.NRGBA) *Palette {
	return &Palette{
		Colors: colors,
	}
}

// FromRGBA builds a palette from a packed RGBA buffer, 4 bytes per entry.
// Trailing bytes that do not form a whole entry are ignored.
func FromRGBA(buf []byte) *Palette {
	colors := make([]color.NRGBA, len(buf)/4)
	for i := range colors {
		colors[i] = color.NRGBA{R: buf[i*4], G: buf[i*4+1], B: buf[i*4+2], A: buf[i*4+3]}
	}
	return NewPalette(colors)
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colors)
}

// RGBA represents a colour in straight (non-premultiplied) RGBA format.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// String returns the colour as "rgb(r, g, b)" when opaque and
// "rgba(r, g, b, a)" otherwise.
func (c RGBA) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

// Hex returns the colour as "#rrggbb", or "#rrggbbaa" if it is not opaque.
func (c RGBA) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ToRGBA converts any colour.Color to straight RGBA.
func ToRGBA(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

// ToHex converts the palette colours to hex strings.
func (p *Palette) ToHex() []string {
	hexColors := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		hexColors[i] = ToRGBA(c).Hex()
	}
	return hexColors
}

// ToRGBASlice converts the palette colours to RGBA structs.
func (p *Palette) ToRGBASlice() []RGBA {
	out := make([]RGBA, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = ToRGBA(c)
	}
	return out
}

// ColorJSON represents a colour in JSON output format.
type ColorJSON struct {
	Hex  string `json:"hex"`
	RGBA RGBA   `json:"rgba"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count  int         `json:"count"`
	Colors []ColorJSON `json:"colors"`
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	colors := make([]ColorJSON, len(p.Colors))
	for i, c := range p.Colors {
		rgba := ToRGBA(c)
		colors[i] = ColorJSON{
			Hex:  rgba.Hex(),
			RGBA: rgba,
		}
	}

	return json.MarshalIndent(PaletteJSON{
		Count:  len(p.Colors),
		Colors: colors,
	}, "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colors) == 0 {
		return "Empty palette"
	}

	result := fmt.Sprintf("Palette with %d colors:\n", len(p.Colors))
	for i, c := range p.Colors {
		rgba := ToRGBA(c)
		result += fmt.Sprintf("  %3d: %s (%s)\n", i, rgba.Hex(), rgba.String())
	}
	return result
}

// Get returns the colour at the specified index.
func (p *Palette) Get(index int) (color.NRGBA, error) {
	if index < 0 || index >= len(p.Colors) {
		return color.NRGBA{}, fmt.Errorf("index out of bounds: %d (palette has %d colors)", index, len(p.Colors))
	}
	return p.Colors[index], nil
}

// All returns an iterator over all colours in the palette.
func (p *Palette) All() func(func(int, color.NRGBA) bool) {
	return func(yield func(int, color.NRGBA) bool) {
		for i, c := range p.Colors {
			if !yield(i, c) {
				return
			}
		}
	}
}

// ColorPalette returns the palette as a color.Palette, suitable for
// image.Paletted.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = c
	}
	return out
}
