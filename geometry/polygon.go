package geometry

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Polygon is an exterior vertex ring with optional interior rings (holes).
type Polygon struct {
	Exterior []image.Point
	Interior [][]image.Point
}

// Kind implements Shape.
func (p *Polygon) Kind() Kind { return KindPolygon }

// Validate implements Shape. An exterior with fewer than three vertices is a
// zero-area polygon, not a malformed one; holes must be proper rings.
func (p *Polygon) Validate() error {
	for i, ring := range p.Interior {
		if len(ring) < 3 {
			return errors.Errorf("polygon interior ring %d has %d vertices, need at least 3", i, len(ring))
		}
	}
	return nil
}

func (p *Polygon) hasArea() bool {
	return len(p.Exterior) >= 3
}

// Draw implements Shape. Exterior and interior rings are filled together so the
// holes stay unpainted.
func (p *Polygon) Draw(dst *gocv.Mat, c color.RGBA) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.hasArea() {
		return nil
	}

	rings := make([][]image.Point, 0, 1+len(p.Interior))
	rings = append(rings, p.Exterior)
	rings = append(rings, p.Interior...)

	pts := gocv.NewPointsVectorFromPoints(rings)
	defer pts.Close()

	gocv.FillPoly(dst, pts, c)
	return nil
}

// Contours implements Shape. A polygon traces to exactly one contour, its own rings.
func (p *Polygon) Contours() ([]Contour, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.hasArea() {
		return nil, nil
	}

	contour := Contour{Exterior: clonePoints(p.Exterior)}
	for _, ring := range p.Interior {
		contour.Interior = append(contour.Interior, clonePoints(ring))
	}
	return []Contour{contour}, nil
}
