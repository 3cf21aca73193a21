// Package contour - Turns traced shape contours into Cityscapes polygon records.
//
// Cityscapes stores exactly one ring per object, as (row, col) pairs. Holes are
// therefore either dropped (with a warning) or, for hole-preserving classes,
// spliced into the exterior ring so the single ring still cuts them out.
package contour

import (
	"image"

	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/nvr-ai/go-cityscapes/geometry"
)

// OutOfROI is the class name Cityscapes reserves for regions outside the region of interest.
const OutOfROI = "out of roi"

// Record is one object of a polygon document.
type Record struct {
	Label   string   `json:"label"`
	Polygon [][2]int `json:"polygon"`
}

// Document is the per-image polygon JSON.
type Document struct {
	ImgHeight int      `json:"imgHeight"`
	ImgWidth  int      `json:"imgWidth"`
	Objects   []Record `json:"objects"`
}

// NewDocument returns an empty document for an image.
func NewDocument(height, width int) Document {
	return Document{ImgHeight: height, ImgWidth: width, Objects: []Record{}}
}

// Policy decides how holes are handled per class.
type Policy struct {
	// PreservesHoles reports whether holes of a class are spliced into the exterior
	// ring instead of being dropped.
	PreservesHoles func(className string) bool
}

// NewPolicy builds a policy that preserves holes for the named classes.
//
// Arguments:
//   - holeClasses: Class names whose holes are spliced, typically []string{contour.OutOfROI}.
//
// Returns:
//   - Policy: The configured policy.
func NewPolicy(holeClasses ...string) Policy {
	set := make(map[string]struct{}, len(holeClasses))
	for _, name := range holeClasses {
		set[name] = struct{}{}
	}
	return Policy{PreservesHoles: func(className string) bool {
		_, ok := set[className]
		return ok
	}}
}

// DefaultPolicy preserves holes for the reserved "out of roi" class only.
func DefaultPolicy() Policy {
	return NewPolicy(OutOfROI)
}

// Records converts the contours of one shape into polygon records, one per
// disjoint contour, all labeled with className.
//
// Arguments:
//   - contours: Traced contours in native (col, row) order.
//   - className: The label written into every record.
//
// Returns:
//   - []Record: Records with (row, col) vertex pairs.
//   - []diagnostics.Warning: One HoleLoss warning per contour whose holes were dropped.
func (p Policy) Records(contours []geometry.Contour, className string) ([]Record, []diagnostics.Warning) {
	preserve := p.PreservesHoles != nil && p.PreservesHoles(className)

	var (
		records  []Record
		warnings []diagnostics.Warning
	)
	for _, c := range contours {
		ring := c.Exterior
		if len(c.Interior) > 0 {
			if preserve {
				ring = splice(c.Exterior, c.Interior)
			} else {
				warnings = append(warnings, diagnostics.Warning{
					Kind:    diagnostics.HoleLoss,
					Class:   className,
					Message: "polygon format cannot represent holes; interior rings dropped for class " + className,
				})
			}
		}
		records = append(records, Record{Label: className, Polygon: rowCol(ring)})
	}
	return records, warnings
}

// splice appends every hole to the exterior as exterior[0], hole..., hole[0].
func splice(exterior []image.Point, holes [][]image.Point) []image.Point {
	size := len(exterior)
	for _, h := range holes {
		size += len(h) + 2
	}

	out := make([]image.Point, 0, size)
	out = append(out, exterior...)
	for _, h := range holes {
		if len(h) == 0 {
			continue
		}
		out = append(out, exterior[0])
		out = append(out, h...)
		out = append(out, h[0])
	}
	return out
}

// rowCol flips native (x, y) points into (row, col) pairs.
func rowCol(points []image.Point) [][2]int {
	out := make([][2]int, len(points))
	for i, p := range points {
		out[i] = [2]int{p.Y, p.X}
	}
	return out
}
