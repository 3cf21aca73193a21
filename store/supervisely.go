package store

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/geometry"
	"github.com/pkg/errors"
)

type metaJSON struct {
	Classes []classJSON `json:"classes"`
}

type classJSON struct {
	Title string `json:"title"`
	Shape string `json:"shape"`
	Color string `json:"color"`
}

type tagJSON struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type annotationJSON struct {
	Size struct {
		Height int `json:"height"`
		Width  int `json:"width"`
	} `json:"size"`
	Tags    []tagJSON    `json:"tags"`
	Objects []objectJSON `json:"objects"`
}

type objectJSON struct {
	ClassTitle   string      `json:"classTitle"`
	GeometryType string      `json:"geometryType"`
	Bitmap       *bitmapJSON `json:"bitmap"`
	Points       *pointsJSON `json:"points"`
}

type bitmapJSON struct {
	Data   string     `json:"data"`
	Origin [2]float64 `json:"origin"`
}

type pointsJSON struct {
	Exterior [][2]float64   `json:"exterior"`
	Interior [][][2]float64 `json:"interior"`
}

// parseMeta reads the project classes in declared order.
func parseMeta(name string, data []byte) (*annotation.Project, error) {
	var meta metaJSON
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "parse meta.json")
	}

	project := &annotation.Project{Name: name, Classes: make([]annotation.ObjectClass, 0, len(meta.Classes))}
	for _, c := range meta.Classes {
		col, err := parseColor(c.Color)
		if err != nil {
			return nil, errors.Wrapf(err, "class %q", c.Title)
		}
		project.Classes = append(project.Classes, annotation.ObjectClass{
			Name:  c.Title,
			Color: col,
			Kind:  geometry.ParseKind(c.Shape),
		})
	}
	return project, nil
}

// parseColor parses "#RRGGBB".
func parseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, errors.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// parseTags converts tag values to strings; a missing or null value yields a plain tag.
func parseTags(in []tagJSON) []annotation.Tag {
	if len(in) == 0 {
		return nil
	}
	out := make([]annotation.Tag, len(in))
	for i, t := range in {
		out[i] = annotation.Tag{Name: t.Name}
		switch v := t.Value.(type) {
		case string:
			out[i].Value = v
		case float64:
			out[i].Value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[i].Value = strconv.FormatBool(v)
		}
	}
	return out
}

// parseAnnotation builds the annotation of one image against the project classes.
//
// Arguments:
//   - data: The annotation JSON.
//   - project: The project the image belongs to.
//
// Returns:
//   - *annotation.Annotation: The parsed annotation. Labels of classes that cannot
//     be exported carry no shape.
//   - error: If the JSON, a class reference or a geometry is malformed.
func parseAnnotation(data []byte, project *annotation.Project) (*annotation.Annotation, error) {
	var raw annotationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse annotation")
	}
	if raw.Size.Height <= 0 || raw.Size.Width <= 0 {
		return nil, errors.Errorf("invalid image size %dx%d", raw.Size.Width, raw.Size.Height)
	}

	ann := &annotation.Annotation{
		Height: raw.Size.Height,
		Width:  raw.Size.Width,
		Tags:   parseTags(raw.Tags),
		Labels: make([]annotation.Label, 0, len(raw.Objects)),
	}

	for i, obj := range raw.Objects {
		class, ok := project.Class(obj.ClassTitle)
		if !ok {
			return nil, errors.Errorf("object %d: unknown class %q", i, obj.ClassTitle)
		}

		label := annotation.Label{Class: class}
		if class.Kind.Supported() {
			shape, err := parseShape(class.Kind, obj)
			if err != nil {
				return nil, errors.Wrapf(err, "object %d (%s)", i, class.Name)
			}
			label.Shape = shape
		}
		ann.Labels = append(ann.Labels, label)
	}
	return ann, nil
}

func parseShape(kind geometry.Kind, obj objectJSON) (geometry.Shape, error) {
	if obj.GeometryType != "" && geometry.ParseKind(obj.GeometryType) != kind {
		return nil, errors.Errorf("%s geometry on a %s class", obj.GeometryType, kind)
	}

	switch kind {
	case geometry.KindBitmap:
		if obj.Bitmap == nil {
			return nil, errors.New("bitmap object without bitmap data")
		}
		w, h, data, err := decodeBitmap(obj.Bitmap.Data)
		if err != nil {
			return nil, err
		}
		return geometry.NewBitmap(toPoint(obj.Bitmap.Origin), w, h, data)

	case geometry.KindPolygon:
		if obj.Points == nil {
			return nil, errors.New("polygon object without points")
		}
		p := &geometry.Polygon{Exterior: toPoints(obj.Points.Exterior)}
		for _, ring := range obj.Points.Interior {
			p.Interior = append(p.Interior, toPoints(ring))
		}
		return p, p.Validate()
	}
	return nil, errors.Errorf("unsupported geometry %s", kind)
}

func toPoint(xy [2]float64) image.Point {
	return image.Point{X: int(math.Round(xy[0])), Y: int(math.Round(xy[1]))}
}

func toPoints(in [][2]float64) []image.Point {
	out := make([]image.Point, len(in))
	for i, xy := range in {
		out[i] = toPoint(xy)
	}
	return out
}
