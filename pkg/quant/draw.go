package quant

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Pixels returns the non-premultiplied RGBA bytes of img, row by row, in the
// layout Feed and the Map functions expect.
func Pixels(img image.Image) []byte {
	if n, ok := img.(*image.NRGBA); ok && n.Stride == n.Rect.Dx()*4 && n.Rect.Min == (image.Point{}) {
		return n.Pix[:n.Rect.Dx()*n.Rect.Dy()*4]
	}
	return imaging.Clone(img).Pix
}

// PaletteColors converts an RGBA palette buffer into a color.Palette.
func PaletteColors(pal []byte) color.Palette {
	p := make(color.Palette, 0, len(pal)/4)
	for i := 0; i+4 <= len(pal); i += 4 {
		p = append(p, color.NRGBA{R: pal[i], G: pal[i+1], B: pal[i+2], A: pal[i+3]})
	}
	return p
}

// PaletteBytes converts a color.Palette into an RGBA palette buffer.
func PaletteBytes(p color.Palette) []byte {
	out := make([]byte, 0, len(p)*4)
	for _, c := range p {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		out = append(out, n.R, n.G, n.B, n.A)
	}
	return out
}

// DrawQuantizer implements draw.Quantizer, so it can be handed to image/gif
// encoders through gif.Options.
type DrawQuantizer struct {
	// Config configures the quantizer built for every image. A zero Config
	// means DefaultConfig.
	Config Config
	// HighQuality relaxes the palette after every split.
	HighQuality bool
}

var _ draw.Quantizer = DrawQuantizer{}

// Quantize appends up to cap(p)-len(p) colours for m to p. When p has no
// spare capacity, or m is empty, p is returned unchanged.
func (dq DrawQuantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	n := min(cap(p)-len(p), MaxColors)
	if n <= 0 || m.Bounds().Empty() {
		return p
	}
	q, err := New(dq.config())
	if err != nil {
		return p
	}
	if err := q.Feed(Pixels(m)); err != nil {
		return p
	}
	if err := q.QuantizeEx(n, dq.HighQuality); err != nil {
		return p
	}
	pal, err := q.GetPalette(n)
	if err != nil {
		return p
	}
	return append(p, PaletteColors(pal)...)
}

func (dq DrawQuantizer) config() Config {
	if dq.Config == (Config{}) {
		return DefaultConfig()
	}
	return dq.Config
}

// Drawer implements draw.Drawer with 2x2 ordered dithering onto paletted
// destinations. Other destinations are drawn with draw.Src.
type Drawer struct {
	// Config configures the matching. A zero Config means DefaultConfig.
	Config Config
}

var _ draw.Drawer = Drawer{}

// Draw maps the r-sized region of src starting at sp onto dst's palette.
func (dr Drawer) Draw(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	pm, ok := dst.(*image.Paletted)
	if !ok || len(pm.Palette) == 0 || len(pm.Palette) > MaxColors {
		draw.Draw(dst, r, src, sp, draw.Src)
		return
	}

	r = r.Intersect(pm.Rect)
	r, sp = clip(r, src.Bounds(), sp)
	if r.Empty() {
		return
	}

	cfg := DrawQuantizer{Config: dr.Config}.config()
	q, err := New(cfg)
	if err != nil {
		draw.Draw(dst, r, src, sp, draw.Src)
		return
	}

	sub := image.Rectangle{Min: sp, Max: sp.Add(r.Size())}
	pixels := Pixels(imaging.Crop(src, sub))
	if err := q.Feed(pixels); err != nil {
		return
	}
	if err := q.SetPalette(PaletteBytes(pm.Palette), len(pm.Palette)); err != nil {
		return
	}

	w, h := r.Dx(), r.Dy()
	idx, err := q.MapImageOrdered(w, h, pixels)
	if err != nil {
		return
	}
	for y := range h {
		row := pm.PixOffset(r.Min.X, r.Min.Y+y)
		copy(pm.Pix[row:row+w], idx[y*w:(y+1)*w])
	}
}

// clip shrinks r so that the matching source rectangle stays inside sb.
func clip(r, sb image.Rectangle, sp image.Point) (image.Rectangle, image.Point) {
	orig := r.Min
	r = r.Intersect(sb.Add(orig.Sub(sp)))
	sp = sp.Add(r.Min.Sub(orig))
	return r, sp
}
