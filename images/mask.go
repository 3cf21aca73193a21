// Package images - Raster buffers for exported ground truth.
//
// A Mask wraps a zero-initialized OpenCV Mat sized to the annotated image:
//
//   - color masks are 3-channel (BGR in memory, RGB once encoded),
//   - label masks are single-channel and hold one class ID per pixel.
//
// A Mask owns native memory. Always call Close() when finished.
package images

import (
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MaskKind distinguishes color masks from label-ID masks.
type MaskKind int

const (
	// MaskColor holds one display color per pixel.
	MaskColor MaskKind = iota
	// MaskLabel holds one class ID per pixel.
	MaskLabel
)

func (k MaskKind) String() string {
	if k == MaskLabel {
		return "label"
	}
	return "color"
}

// Mask is a height x width raster produced for a single image.
type Mask struct {
	kind MaskKind
	mat  gocv.Mat
}

// NewColorMask allocates an all-black 3-channel mask.
//
// Arguments:
//   - height: Image height in pixels.
//   - width: Image width in pixels.
//
// Returns:
//   - *Mask: A zeroed color mask.
//   - error: If the dimensions are not positive.
func NewColorMask(height, width int) (*Mask, error) {
	return newMask(MaskColor, height, width, gocv.MatTypeCV8UC3)
}

// NewLabelMask allocates an all-zero single-channel mask.
func NewLabelMask(height, width int) (*Mask, error) {
	return newMask(MaskLabel, height, width, gocv.MatTypeCV8UC1)
}

func newMask(kind MaskKind, height, width int, mt gocv.MatType) (*Mask, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.Errorf("invalid %s mask dimensions: %dx%d", kind, width, height)
	}
	return &Mask{
		kind: kind,
		mat:  gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, mt),
	}, nil
}

// Kind returns the mask kind.
func (m *Mask) Kind() MaskKind { return m.kind }

// Height returns the number of rows.
func (m *Mask) Height() int { return m.mat.Rows() }

// Width returns the number of columns.
func (m *Mask) Width() int { return m.mat.Cols() }

// Mat exposes the underlying Mat for drawing. The Mask keeps ownership.
func (m *Mask) Mat() *gocv.Mat { return &m.mat }

// LabelAt returns the class ID stored at (row, col) of a label mask.
func (m *Mask) LabelAt(row, col int) uint8 {
	return m.mat.GetUCharAt(row, col)
}

// ColorAt returns the RGB color stored at (row, col) of a color mask.
func (m *Mask) ColorAt(row, col int) color.RGBA {
	return color.RGBA{
		R: m.mat.GetUCharAt(row, col*3+2),
		G: m.mat.GetUCharAt(row, col*3+1),
		B: m.mat.GetUCharAt(row, col*3),
		A: 255,
	}
}

// NonZero counts non-zero channel values across the whole mask.
func (m *Mask) NonZero() int {
	if m.mat.Channels() == 1 {
		return gocv.CountNonZero(m.mat)
	}
	flat := m.mat.Reshape(1, 0)
	defer flat.Close()
	return gocv.CountNonZero(flat)
}

// EncodePNG encodes the mask as PNG. Color masks are written as RGB, label masks
// as 8-bit grayscale.
func (m *Mask) EncodePNG() ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, m.mat)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s mask", m.kind)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Close releases the native buffer. It is safe to call on a nil Mask.
func (m *Mask) Close() error {
	if m == nil {
		return nil
	}
	return m.mat.Close()
}
