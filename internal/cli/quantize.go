package cli

import (
	"encoding/json"
	"fmt"
	stdimage "image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/exoquant/internal/colour"
	"github.com/jmylchreest/exoquant/internal/image"
	"github.com/jmylchreest/exoquant/pkg/quant"
)

// Dither modes accepted by --dither.
const (
	ditherNone    = "none"
	ditherOrdered = "ordered"
	ditherRandom  = "random"
)

type quantizeOptions struct {
	colours        int
	bits           int
	noTransparency bool
	dither         string
	hq             bool
	passes         int
	seed           uint64
	output         string
	jobs           int
	palette        string
	raw            rawFlags
}

type quantizeResult struct {
	input, output string
	width, height int
	unique        int
	colours       int
	meanError     float64
	fixed         bool
}

func newQuantizeCmd() *cobra.Command {
	opts := &quantizeOptions{}

	cmd := &cobra.Command{
		Use:     "quantize <image|directory>...",
		Aliases: []string{"quantise"},
		Short:   "Reduce images to an indexed palette",
		Long: `Reduce one or more images to an indexed palette of up to 256 colours.

Each image gets its own palette. Directories are expanded to the images they
contain. Output format follows the output extension: .png and .gif write an
indexed image, .rgba and .rgba.xz write the remapped pixels as a raw dump.

Examples:
  # Quantize to 256 colours, writing photo.quant.png
  exoquant quantize photo.jpg

  # 16 colours with ordered dithering
  exoquant quantize -c 16 -d ordered -o out.png photo.jpg

  # Process a directory, four images at a time
  exoquant quantize -j 4 -o out/ wallpapers/

  # Map onto a fixed palette produced by 'exoquant palette -f json'
  exoquant quantize --palette palette.json photo.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuantize(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.colours, "colours", "c", quant.MaxColors, "number of palette colours (1-256)")
	f.IntVarP(&opts.bits, "bits", "b", 8, "bits per channel (1-8)")
	f.BoolVar(&opts.noTransparency, "no-transparency", false, "ignore alpha when clustering")
	f.StringVarP(&opts.dither, "dither", "d", ditherNone, "dithering (none, ordered, random)")
	f.BoolVar(&opts.hq, "hq", false, "relax the palette after every split (slower, lower error)")
	f.IntVar(&opts.passes, "passes", quant.DefaultImplicitPasses, "relaxation passes before the palette is read")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for random dithering")
	f.StringVarP(&opts.output, "output", "o", "", "output file, or directory when several images are given")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "images processed concurrently")
	f.StringVarP(&opts.palette, "palette", "p", "", "map onto a fixed palette file (JSON or one hex colour per line)")
	opts.raw.register(f)

	return cmd
}

func (o *quantizeOptions) validate() error {
	if o.colours < 1 || o.colours > quant.MaxColors {
		return fmt.Errorf("colours must be between 1 and %d, got %d", quant.MaxColors, o.colours)
	}
	switch o.dither {
	case ditherNone, ditherOrdered, ditherRandom:
	default:
		return fmt.Errorf("invalid dither mode: %s (valid: none, ordered, random)", o.dither)
	}
	if o.jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", o.jobs)
	}
	return o.quantConfig().Validate()
}

func (o *quantizeOptions) quantConfig() quant.Config {
	cfg := quant.DefaultConfig()
	cfg.BitsPerChannel = o.bits
	cfg.Transparency = !o.noTransparency
	cfg.ImplicitPasses = o.passes
	cfg.Seed = o.seed
	return cfg
}

// runQuantize executes the quantize command.
func runQuantize(cmd *cobra.Command, opts *quantizeOptions, args []string) error {
	logger := newLogger(cmd)

	if err := opts.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	inputs, err := image.ExpandPaths(args)
	if err != nil {
		return err
	}
	outputs, err := outputPaths(inputs, opts.output)
	if err != nil {
		return err
	}

	var fixed []byte
	if opts.palette != "" {
		if fixed, err = readPaletteFile(opts.palette); err != nil {
			return fmt.Errorf("failed to read palette: %w", err)
		}
		logger.Debug("using fixed palette", "path", opts.palette, "colors", len(fixed)/4)
	}

	loader := image.NewSmartLoader(opts.raw.width, opts.raw.height)
	results := make([]quantizeResult, len(inputs))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := quantizeFile(loader, opts, fixed, in, outputs[i], logger.With("file", in))
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		fmt.Fprint(cmd.OutOrStdout(), summaryTable(results).Render())
	}
	return nil
}

// quantizeFile quantizes a single image and writes the result.
func quantizeFile(loader image.Loader, opts *quantizeOptions, fixed []byte, in, out string, logger hclog.Logger) (quantizeResult, error) {
	img, err := loader.Load(in)
	if err != nil {
		return quantizeResult{}, fmt.Errorf("failed to load image: %w", err)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return quantizeResult{}, fmt.Errorf("image has no pixels")
	}
	pixels := quant.Pixels(img)

	cfg := opts.quantConfig()
	cfg.Logger = logger
	q, err := quant.New(cfg)
	if err != nil {
		return quantizeResult{}, err
	}
	if err := q.Feed(pixels); err != nil {
		return quantizeResult{}, err
	}

	n := opts.colours
	if fixed != nil {
		n = len(fixed) / 4
		err = q.SetPalette(fixed, n)
	} else {
		err = q.QuantizeEx(n, opts.hq)
	}
	if err != nil {
		return quantizeResult{}, err
	}

	pal, err := q.GetPalette(n)
	if err != nil {
		return quantizeResult{}, err
	}
	indices, err := mapPixels(q, opts.dither, width, height, pixels)
	if err != nil {
		return quantizeResult{}, err
	}
	if err := writeIndexed(out, width, height, pal, indices); err != nil {
		return quantizeResult{}, err
	}
	logger.Debug("wrote output", "path", out, "colors", len(pal)/4)

	return quantizeResult{
		input:     in,
		output:    out,
		width:     width,
		height:    height,
		unique:    q.UniqueColors(),
		colours:   len(pal) / 4,
		meanError: q.MeanError(),
		fixed:     fixed != nil,
	}, nil
}

func mapPixels(q *quant.Quantizer, dither string, width, height int, pixels []byte) ([]byte, error) {
	switch dither {
	case ditherOrdered:
		return q.MapImageOrdered(width, height, pixels)
	case ditherRandom:
		return q.MapImageRandom(width*height, pixels)
	default:
		return q.MapImage(width*height, pixels)
	}
}

// writeIndexed writes palette indices to path in the format its extension
// names.
func writeIndexed(path string, width, height int, pal, indices []byte) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	switch {
	case image.IsRawFile(path):
		pix := make([]byte, len(indices)*4)
		for i, idx := range indices {
			copy(pix[i*4:i*4+4], pal[int(idx)*4:])
		}
		err = image.EncodeRaw(f, pix, strings.EqualFold(filepath.Ext(path), ".xz"))
	default:
		p := &stdimage.Paletted{
			Pix:     indices,
			Stride:  width,
			Rect:    stdimage.Rect(0, 0, width, height),
			Palette: quant.PaletteColors(pal),
		}
		if strings.EqualFold(filepath.Ext(path), ".gif") {
			err = gif.Encode(f, p, &gif.Options{NumColors: len(p.Palette)})
		} else {
			err = png.Encode(f, p)
		}
	}

	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return nil
}

// outputPaths picks an output path per input. A single input may name its
// output file directly; with several inputs output must be a directory.
// Without output, results are written next to the inputs.
func outputPaths(inputs []string, output string) ([]string, error) {
	outs := make([]string, len(inputs))
	if output != "" && len(inputs) == 1 && !isDir(output) {
		outs[0] = output
		return outs, nil
	}
	if output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		name := stripImageExt(filepath.Base(in)) + ".quant.png"
		dir := filepath.Dir(in)
		if output != "" {
			dir = output
		}
		outs[i] = filepath.Join(dir, name)
		if prev, ok := seen[outs[i]]; ok {
			return nil, fmt.Errorf("inputs %s and %s would both write %s", prev, in, outs[i])
		}
		seen[outs[i]] = in
	}
	return outs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func stripImageExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".rgba.xz") {
		return name[:len(name)-len(".rgba.xz")]
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// readPaletteFile reads a palette written by the palette command: JSON, or
// one hex colour per line.
func readPaletteFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified palette path
	if err != nil {
		return nil, err
	}

	var hexes []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var pj colour.PaletteJSON
		if err := json.Unmarshal(data, &pj); err != nil {
			return nil, fmt.Errorf("invalid palette JSON: %w", err)
		}
		for _, c := range pj.Colors {
			hexes = append(hexes, c.Hex)
		}
	} else {
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				hexes = append(hexes, line)
			}
		}
	}

	if len(hexes) == 0 {
		return nil, fmt.Errorf("palette %s has no colours", path)
	}
	if len(hexes) > quant.MaxColors {
		return nil, fmt.Errorf("palette %s has %d colours (maximum: %d)", path, len(hexes), quant.MaxColors)
	}

	pal := make([]byte, 0, len(hexes)*4)
	for _, h := range hexes {
		c, err := parseHexColour(h)
		if err != nil {
			return nil, err
		}
		pal = append(pal, c.R, c.G, c.B, c.A)
	}
	return pal, nil
}

// parseHexColour parses "#rrggbb" or "#rrggbbaa"; the '#' is optional.
func parseHexColour(s string) (colour.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return colour.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return colour.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return colour.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func summaryTable(results []quantizeResult) *Table {
	table := NewTable("FILE", "SIZE", "UNIQUE", "COLOURS", "ERROR", "OUTPUT").
		AlignRight(2).AlignRight(3).AlignRight(4)
	for _, r := range results {
		meanError := "-"
		if !r.fixed {
			meanError = strconv.FormatFloat(r.meanError, 'f', 2, 64)
		}
		table.AddRow(
			r.input,
			fmt.Sprintf("%dx%d", r.width, r.height),
			strconv.Itoa(r.unique),
			strconv.Itoa(r.colours),
			meanError,
			r.output,
		)
	}
	return table
}
