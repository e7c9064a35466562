package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/exoquant/internal/colour"
	"github.com/jmylchreest/exoquant/internal/image"
)

type paletteOptions struct {
	colours        int
	algorithm      string
	format         string
	output         string
	preview        bool
	bits           int
	noTransparency bool
	maxDimension   int
	raw            rawFlags
}

func newPaletteCmd() *cobra.Command {
	opts := &paletteOptions{}

	cmd := &cobra.Command{
		Use:   "palette <image>",
		Short: "Extract a colour palette from an image",
		Long: `Extract a colour palette from an image without writing a remapped copy.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF and raw RGBA dumps
(.rgba, .rgba.xz; pass --raw-width).

Examples:
  # Extract 16 colours (default) from an image
  exoquant palette photo.jpg

  # Extract 8 colours with terminal swatches
  exoquant palette --preview -c 8 photo.png

  # Save a palette as JSON for 'exoquant quantize --palette'
  exoquant palette -f json -o palette.json photo.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.colours, "colours", "c", 16, "number of colours to extract (1-256)")
	f.StringVarP(&opts.algorithm, "algorithm", "a", string(colour.AlgorithmVariance), "extraction algorithm (variance, variance-hq)")
	f.StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, json)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&opts.preview, "preview", false, "show colour swatches when writing to a terminal")
	f.IntVarP(&opts.bits, "bits", "b", 8, "bits per channel (1-8)")
	f.BoolVar(&opts.noTransparency, "no-transparency", false, "ignore alpha when clustering")
	f.IntVar(&opts.maxDimension, "max-dimension", 512, "downsample larger images before extraction (0 keeps full size)")
	opts.raw.register(f)

	return cmd
}

// runPalette executes the palette command.
func runPalette(cmd *cobra.Command, opts *paletteOptions, imagePath string) error {
	logger := newLogger(cmd)

	if err := image.ValidateImagePath(imagePath); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	config := colour.ExtractorConfig{
		Algorithm:      colour.Algorithm(opts.algorithm),
		ColorCount:     opts.colours,
		BitsPerChannel: opts.bits,
		Transparency:   !opts.noTransparency,
		MaxDimension:   opts.maxDimension,
		Logger:         logger,
	}
	extractor, err := colour.NewExtractor(config)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("loading image", "path", imagePath)
	img, err := image.NewSmartLoader(opts.raw.width, opts.raw.height).Load(imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	palette, err := extractor.Extract(img, opts.colours)
	if err != nil {
		return fmt.Errorf("failed to extract colours: %w", err)
	}
	logger.Debug("extracted palette", "colors", palette.Len(), "algorithm", opts.algorithm)

	out := cmd.OutOrStdout()
	preview := opts.preview && opts.output == "" && isTerminal(out)
	if opts.preview && !preview {
		logger.Debug("preview disabled, output is not a terminal")
	}

	output, err := formatPalette(palette, opts.format, preview)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(output), 0o644); err != nil { // #nosec G306 - palette files are not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Debug("wrote palette", "path", opts.output)
		return nil
	}

	_, err = io.WriteString(out, output)
	return err
}

// formatPalette formats the palette according to the specified format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatLines(palette, showPreview, colour.RGBA.Hex), nil
	case "rgb":
		return formatLines(palette, showPreview, colour.RGBA.String), nil
	case "json":
		jsonBytes, err := palette.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, rgb, json)", format)
	}
}

func formatLines(palette *colour.Palette, showPreview bool, text func(colour.RGBA) string) string {
	var b strings.Builder
	for _, c := range palette.ToRGBASlice() {
		if showPreview {
			b.WriteString(swatch(c, 8))
			b.WriteString("  ")
		}
		b.WriteString(text(c))
		b.WriteByte('\n')
	}
	return b.String()
}

// swatch renders a block of width cells in the colour using a truecolour
// background escape.
func swatch(c colour.RGBA, width int) string {
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", c.R, c.G, c.B, strings.Repeat(" ", width))
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
