// Package image provides utilities for loading images and raw pixel dumps.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/ulikunitz/xz"
)

// MaxRawBytes caps the decompressed size of a raw pixel dump.
const MaxRawBytes = 1 << 30

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(path string) (image.Image, error)
}

// FileLoader loads encoded images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, BMP, TIFF.
func (l *FileLoader) Load(path string) (image.Image, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// RawLoader loads headerless RGBA dumps, 4 bytes per pixel row by row, as
// written by tools that hand pixel buffers around directly. Files ending in
// .xz are decompressed first.
type RawLoader struct {
	// Width is the image width in pixels and is required.
	Width int
	// Height is derived from the data length when zero.
	Height int
}

// NewRawLoader creates a RawLoader for dumps of the given width.
func NewRawLoader(width, height int) *RawLoader {
	return &RawLoader{Width: width, Height: height}
}

// Load reads a raw RGBA dump into an *image.NRGBA.
func (l *RawLoader) Load(path string) (image.Image, error) {
	if l.Width <= 0 {
		return nil, fmt.Errorf("raw image width must be positive, got %d", l.Width)
	}
	if l.Height < 0 {
		return nil, fmt.Errorf("raw image height cannot be negative, got %d", l.Height)
	}

	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.EqualFold(filepath.Ext(path), ".xz") {
		xzr, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxRawBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}
	if len(data) > MaxRawBytes {
		return nil, fmt.Errorf("raw image exceeds %d bytes", MaxRawBytes)
	}

	return l.decode(data)
}

func (l *RawLoader) decode(data []byte) (*image.NRGBA, error) {
	stride := l.Width * 4
	height := l.Height
	if height == 0 {
		if len(data)%stride != 0 {
			return nil, fmt.Errorf("raw image size %d is not a multiple of the row size %d", len(data), stride)
		}
		height = len(data) / stride
	}
	if height == 0 || len(data) != stride*height {
		return nil, fmt.Errorf("raw image size %d does not match %dx%d RGBA", len(data), l.Width, height)
	}

	return &image.NRGBA{
		Pix:    data,
		Stride: stride,
		Rect:   image.Rect(0, 0, l.Width, height),
	}, nil
}

// SmartLoader picks the raw loader for .rgba dumps and the file loader for
// everything else.
type SmartLoader struct {
	fileLoader *FileLoader
	rawLoader  *RawLoader
}

// NewSmartLoader creates a new SmartLoader. rawWidth and rawHeight apply to
// raw dumps only.
func NewSmartLoader(rawWidth, rawHeight int) *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		rawLoader:  NewRawLoader(rawWidth, rawHeight),
	}
}

// Load loads an image from a local file path.
func (l *SmartLoader) Load(path string) (image.Image, error) {
	if IsRawFile(path) {
		return l.rawLoader.Load(path)
	}
	return l.fileLoader.Load(path)
}

// IsRawFile reports whether path names a raw RGBA dump (.rgba or .rgba.xz).
func IsRawFile(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".rgba") || strings.HasSuffix(p, ".rgba.xz")
}

func openFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return file, nil
}

// ValidateImagePath checks that path is a readable file or directory. Encoded
// images must decode their header; raw dumps are only checked for existence.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}
	if info.IsDir() || IsRawFile(path) {
		return nil
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".rgba"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	if IsRawFile(path) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files.
// It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}

// ExpandPaths replaces every directory in paths with the images it contains.
// File paths are kept in order.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ScanDirectoryForImages(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// EncodeRaw writes RGBA pixels as a raw dump, xz-compressed when compress is
// set.
func EncodeRaw(w io.Writer, pix []byte, compress bool) error {
	if !compress {
		_, err := w.Write(pix)
		return err
	}
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := io.Copy(xzw, bytes.NewReader(pix)); err != nil {
		return fmt.Errorf("failed to compress raw image: %w", err)
	}
	return xzw.Close()
}
