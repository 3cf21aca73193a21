// Package geometry - Vector shapes that can be rasterized into OpenCV Mats and
// traced back into ordered boundary contours.
//
// Two shape kinds are supported:
//
//   - Bitmap: a filled region described by a pixel mask placed at an origin.
//   - Polygon: an exterior vertex ring with optional interior rings (holes).
//
// All coordinates are native image coordinates, image.Point{X: col, Y: row}.
// Converting to any other ordering is the caller's concern.
package geometry

import (
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// Kind identifies the geometry type of an object class.
type Kind int

const (
	// KindOther covers every geometry that cannot be exported (rectangles, points, lines, ...).
	KindOther Kind = iota
	// KindBitmap is a filled-region pixel mask.
	KindBitmap
	// KindPolygon is a vertex ring with optional holes.
	KindPolygon
)

// Supported reports whether shapes of this kind can be rasterized and traced.
func (k Kind) Supported() bool {
	return k == KindBitmap || k == KindPolygon
}

func (k Kind) String() string {
	switch k {
	case KindBitmap:
		return "bitmap"
	case KindPolygon:
		return "polygon"
	default:
		return "other"
	}
}

// ParseKind maps a geometry type name onto a Kind. Unknown names map to KindOther.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bitmap":
		return KindBitmap
	case "polygon":
		return KindPolygon
	default:
		return KindOther
	}
}

// Contour is one traced boundary: an exterior ring plus the holes it encloses.
type Contour struct {
	Exterior []image.Point
	Interior [][]image.Point
}

// Shape is implemented by every drawable geometry.
type Shape interface {
	// Kind returns the geometry kind of the shape.
	Kind() Kind
	// Validate reports malformed geometry.
	Validate() error
	// Draw paints the shape footprint into dst with c. Pixels outside dst are clipped
	// and previously painted pixels under the footprint are overwritten.
	Draw(dst *gocv.Mat, c color.RGBA) error
	// Contours returns the ordered boundary contours of the footprint.
	Contours() ([]Contour, error)
}

// Scalar converts c into the BGR channel order OpenCV Mats are stored in.
func Scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}

// Uniform returns a color whose three channels all carry v. Drawing it into a
// single-channel Mat stores v; drawing it into a three-channel Mat stores (v, v, v).
func Uniform(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

func translate(points []image.Point, offset image.Point) []image.Point {
	out := make([]image.Point, len(points))
	for i, p := range points {
		out[i] = p.Add(offset)
	}
	return out
}

func clonePoints(points []image.Point) []image.Point {
	if points == nil {
		return nil
	}
	out := make([]image.Point, len(points))
	copy(out, points)
	return out
}
