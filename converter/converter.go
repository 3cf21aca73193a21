// Package converter - Converts one parsed annotation into Cityscapes ground truth:
// a color mask, a label-ID mask and a polygon document.
//
// Labels are processed in annotation order, so later labels win where shapes
// overlap in either mask.
package converter

import (
	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/classes"
	"github.com/nvr-ai/go-cityscapes/contour"
	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/nvr-ai/go-cityscapes/geometry"
	"github.com/nvr-ai/go-cityscapes/images"
	"github.com/pkg/errors"
)

// Result holds the artifacts of one conversion. The caller owns the masks and
// must Close the Result once they are written.
type Result struct {
	// Color is nil when color output was not requested.
	Color *images.Mask
	// Labels holds the registry ID of the topmost label per pixel, 0 for background.
	Labels *images.Mask
	// Polygons is the polygon document of the image.
	Polygons contour.Document
	// Warnings are the non-fatal findings of this conversion.
	Warnings []diagnostics.Warning
}

// Close releases both masks.
func (r *Result) Close() {
	if r == nil {
		return
	}
	r.Color.Close()
	r.Labels.Close()
}

// Converter is safe for concurrent use: it only reads its registry and policy.
type Converter struct {
	registry *classes.Registry
	policy   contour.Policy
}

// New creates a converter.
//
// Arguments:
//   - registry: The project class registry.
//   - policy: The hole policy applied to traced contours.
//
// Returns:
//   - *Converter: The converter.
func New(registry *classes.Registry, policy contour.Policy) *Converter {
	return &Converter{registry: registry, policy: policy}
}

// Convert rasterizes and traces every supported label of ann.
//
// Arguments:
//   - ann: The parsed annotation.
//   - emitColor: Whether to produce the color mask; false for test images.
//
// Returns:
//   - *Result: The masks, the polygon document and the warnings.
//   - error: If the annotation is malformed. No partial result is returned.
//
// Example:
//
// ```go
//
//	res, err := conv.Convert(ann, assignment[id] != split.Test)
//	if err != nil {
//	    return err
//	}
//	defer res.Close()
//
// ```
func (c *Converter) Convert(ann *annotation.Annotation, emitColor bool) (res *Result, err error) {
	if ann == nil {
		return nil, errors.New("annotation is nil")
	}

	res = &Result{Polygons: contour.NewDocument(ann.Height, ann.Width)}
	defer func() {
		if err != nil {
			res.Close()
			res = nil
		}
	}()

	if res.Labels, err = images.NewLabelMask(ann.Height, ann.Width); err != nil {
		return res, err
	}
	if emitColor {
		if res.Color, err = images.NewColorMask(ann.Height, ann.Width); err != nil {
			return res, err
		}
	}

	skipped := make(map[string]bool)
	for i, label := range ann.Labels {
		if label.Class == nil {
			return res, errors.Errorf("label %d has no class", i)
		}
		name := label.Class.Name

		if !label.Class.Kind.Supported() {
			if !skipped[name] {
				skipped[name] = true
				res.Warnings = append(res.Warnings, diagnostics.Warning{
					Kind:    diagnostics.UnsupportedGeometry,
					Class:   name,
					Message: "geometry " + label.Class.Kind.String() + " is not exported; skipping class " + name,
				})
			}
			continue
		}

		if err = c.convertLabel(res, label, emitColor); err != nil {
			return res, errors.Wrapf(err, "label %d (%s)", i, name)
		}
	}
	return res, nil
}

func (c *Converter) convertLabel(res *Result, label annotation.Label, emitColor bool) error {
	entry, ok := c.registry.Lookup(label.Class.Name)
	if !ok {
		return errors.New("class is not in the registry")
	}
	if label.Shape == nil {
		return errors.New("label has no geometry")
	}
	if label.Shape.Kind() != label.Class.Kind {
		return errors.Errorf("%s geometry on a %s class", label.Shape.Kind(), label.Class.Kind)
	}
	if err := label.Shape.Validate(); err != nil {
		return err
	}

	if emitColor {
		if err := label.Shape.Draw(res.Color.Mat(), entry.Color); err != nil {
			return errors.Wrap(err, "draw color")
		}
	}
	if err := label.Shape.Draw(res.Labels.Mat(), geometry.Uniform(uint8(entry.ID))); err != nil {
		return errors.Wrap(err, "draw label id")
	}

	contours, err := label.Shape.Contours()
	if err != nil {
		return errors.Wrap(err, "extract contours")
	}
	records, warnings := c.policy.Records(contours, entry.Name)
	res.Polygons.Objects = append(res.Polygons.Objects, records...)
	res.Warnings = append(res.Warnings, warnings...)
	return nil
}
