// Package annotation - In-memory model of an annotated image project.
//
// The model is deliberately format-agnostic: stores parse their own on-disk or
// remote representation into these types, and the exporter only consumes them.
package annotation

import (
	"image/color"

	"github.com/nvr-ai/go-cityscapes/geometry"
)

// ObjectClass is a project-level object class.
type ObjectClass struct {
	// Name is unique within the project.
	Name string
	// Color is the display color used for color masks.
	Color color.RGBA
	// Kind is the geometry kind every label of this class carries.
	Kind geometry.Kind
}

// Tag is an image-level tag. An empty Value denotes a plain tag without a value.
type Tag struct {
	Name  string
	Value string
}

// Label is one annotated shape instance.
type Label struct {
	Class *ObjectClass
	Shape geometry.Shape
}

// Annotation is the parsed annotation of one image.
type Annotation struct {
	Height int
	Width  int
	Labels []Label
	Tags   []Tag
}

// Project is the project-wide metadata.
type Project struct {
	Name    string
	Classes []ObjectClass
}

// Class returns the declared class with the given name.
func (p *Project) Class(name string) (*ObjectClass, bool) {
	for i := range p.Classes {
		if p.Classes[i].Name == name {
			return &p.Classes[i], true
		}
	}
	return nil, false
}

// Dataset is a named group of images inside a project.
type Dataset struct {
	ID   int64
	Name string
}

// ImageInfo identifies one image of a dataset. Tags are the image-level tags,
// listed up front because split assignment needs them for the whole dataset.
type ImageInfo struct {
	ID   int64
	Name string
	Tags []Tag
}
