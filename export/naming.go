package export

import (
	"path"
	"strings"

	"github.com/nvr-ai/go-cityscapes/split"
)

// Cityscapes directory and file name parts.
const (
	ImagesDir      = "leftImg8bit"
	AnnotationsDir = "gtFine"
	LegendFile     = "class_to_id.json"

	imageSuffix    = "_leftImg8bit"
	PolygonsSuffix = "_gtFine_polygons.json"
	ColorSuffix    = "_gtFine_color.png"
	LabelIDsSuffix = "_gtFine_labelIds.png"
)

// BaseName strips the extension and a trailing "_leftImg8bit" from an image name,
// so images exported before keep their base name on re-export.
//
// Arguments:
//   - name: The source image name, e.g. "aachen_000001_leftImg8bit.png".
//
// Returns:
//   - string: The base name, e.g. "aachen_000001".
func BaseName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.TrimSuffix(base, imageSuffix)
}

// ImagePath returns the slash-separated output path of a source image. The
// original extension is kept.
func ImagePath(s split.Split, dataset, name string) string {
	return path.Join(ImagesDir, s.String(), dataset, BaseName(name)+imageSuffix+path.Ext(name))
}

// AnnotationPath returns the output path of one ground-truth file of an image.
// suffix is one of PolygonsSuffix, ColorSuffix and LabelIDsSuffix.
func AnnotationPath(s split.Split, dataset, name, suffix string) string {
	return path.Join(AnnotationsDir, s.String(), dataset, BaseName(name)+suffix)
}
