// Package images - Source image formats accepted for export.
package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
)

// FormatFromName derives the image format from a file name extension.
//
// Arguments:
//   - name: File name or path, e.g. "frame_001.JPG".
//
// Returns:
//   - ImageFormat: The detected format.
//   - bool: False when the extension is not a supported image type.
func FormatFromName(name string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".webp":
		return FormatWebP, true
	case ".bmp":
		return FormatBMP, true
	}
	return "", false
}
