// Package diagnostics - Non-fatal findings raised while exporting.
//
// Warnings are returned as values by the conversion components so they stay
// pure; the exporter decides where they go (logs, metrics, summary).
package diagnostics

import (
	"fmt"
	"log/slog"
)

// Kind classifies a warning.
type Kind string

const (
	// UnsupportedGeometry: a class geometry kind is neither bitmap nor polygon; its labels are skipped.
	UnsupportedGeometry Kind = "unsupported_geometry"
	// HoleLoss: an interior ring was dropped because the output format has one ring per object.
	HoleLoss Kind = "hole_loss"
	// SplitAmbiguity: an image carries several plain split tags; the first in train/val/test order wins.
	SplitAmbiguity Kind = "split_ambiguity"
	// SmallDataset: a dataset is too small to populate every split.
	SmallDataset Kind = "small_dataset"
)

// Kinds lists every warning kind in a stable order.
var Kinds = []Kind{UnsupportedGeometry, HoleLoss, SplitAmbiguity, SmallDataset}

// Warning is a single non-fatal finding.
type Warning struct {
	Kind    Kind
	Class   string
	ImageID int64
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Attrs returns the warning as structured log attributes.
func (w Warning) Attrs() []any {
	attrs := []any{slog.String("kind", string(w.Kind))}
	if w.Class != "" {
		attrs = append(attrs, slog.String("class", w.Class))
	}
	if w.ImageID != 0 {
		attrs = append(attrs, slog.Int64("image_id", w.ImageID))
	}
	return attrs
}

// Count tallies warnings by kind.
func Count(warnings []Warning) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, w := range warnings {
		counts[w.Kind]++
	}
	return counts
}
