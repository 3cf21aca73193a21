package geometry

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Bitmap is a filled region defined by a pixel mask.
//
// Data holds Width*Height bytes in row-major order; any non-zero byte is inside
// the region. Origin places the top-left mask pixel in image coordinates.
type Bitmap struct {
	Origin image.Point
	Width  int
	Height int
	Data   []byte
}

// NewBitmap creates a bitmap and validates its dimensions.
//
// Arguments:
//   - origin: Image position of the top-left mask pixel.
//   - width, height: Mask dimensions in pixels.
//   - data: Row-major mask bytes, non-zero meaning inside.
//
// Returns:
//   - *Bitmap: The bitmap.
//   - error: If the data length does not match the dimensions.
func NewBitmap(origin image.Point, width, height int, data []byte) (*Bitmap, error) {
	b := &Bitmap{Origin: origin, Width: width, Height: height, Data: data}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Kind implements Shape.
func (b *Bitmap) Kind() Kind { return KindBitmap }

// Bounds returns the image rectangle covered by the mask.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(b.Origin.X, b.Origin.Y, b.Origin.X+b.Width, b.Origin.Y+b.Height)
}

// Validate implements Shape.
func (b *Bitmap) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return errors.Errorf("invalid bitmap dimensions: %dx%d", b.Width, b.Height)
	}
	if len(b.Data) != b.Width*b.Height {
		return errors.Errorf("bitmap data has %d bytes, want %d", len(b.Data), b.Width*b.Height)
	}
	return nil
}

func (b *Bitmap) mat() (gocv.Mat, error) {
	m, err := gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC1, b.Data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "bitmap to mat")
	}
	return m, nil
}

// Draw implements Shape.
//
// Only the part of the mask that overlaps dst is painted: the visible window of
// the mask is used as a copy mask for a uniformly filled patch of the same size.
func (b *Bitmap) Draw(dst *gocv.Mat, c color.RGBA) error {
	if err := b.Validate(); err != nil {
		return err
	}

	visible := b.Bounds().Intersect(image.Rect(0, 0, dst.Cols(), dst.Rows()))
	if visible.Empty() {
		return nil
	}

	src, err := b.mat()
	if err != nil {
		return err
	}
	defer src.Close()

	mask := src.Region(visible.Sub(b.Origin))
	defer mask.Close()

	roi := dst.Region(visible)
	defer roi.Close()

	patch := gocv.NewMatWithSizeFromScalar(Scalar(c), visible.Dy(), visible.Dx(), dst.Type())
	defer patch.Close()

	patch.CopyToWithMask(&roi, mask)
	return nil
}

// Contours implements Shape.
//
// The mask is traced with a two-level hierarchy: every outer boundary becomes a
// Contour and its direct children are its holes. Outer boundaries with two or
// fewer vertices enclose no area and are dropped.
func (b *Bitmap) Contours() ([]Contour, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	src, err := b.mat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	found := gocv.FindContoursWithParams(src, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer found.Close()

	return assemble(found, hierarchy, b.Origin), nil
}

// assemble groups a RETR_CCOMP result into exterior/interior contours.
//
// Each hierarchy entry is [next, previous, firstChild, parent].
func assemble(found gocv.PointsVector, hierarchy gocv.Mat, offset image.Point) []Contour {
	var out []Contour
	for i := 0; i < found.Size(); i++ {
		node := hierarchy.GetVeciAt(0, i)
		if node[3] >= 0 {
			continue
		}

		exterior := translate(found.At(i).ToPoints(), offset)
		if len(exterior) <= 2 {
			continue
		}

		contour := Contour{Exterior: exterior}
		for child := int(node[2]); child >= 0; child = int(hierarchy.GetVeciAt(0, child)[0]) {
			contour.Interior = append(contour.Interior, translate(found.At(child).ToPoints(), offset))
		}
		out = append(out, contour)
	}
	return out
}
