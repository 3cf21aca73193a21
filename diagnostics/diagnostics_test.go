package diagnostics

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	counts := Count([]Warning{{Kind: HoleLoss}, {Kind: HoleLoss}, {Kind: SmallDataset}})
	assert.Equal(t, map[Kind]int{HoleLoss: 2, SmallDataset: 1}, counts)
	assert.Empty(t, Count(nil))
}

func TestWarningAttrs(t *testing.T) {
	w := Warning{Kind: SplitAmbiguity, ImageID: 4, Message: `image 4 has 2 split tags; using "val"`}
	assert.Equal(t, []any{slog.String("kind", "split_ambiguity"), slog.Int64("image_id", 4)}, w.Attrs())
	assert.Equal(t, `split_ambiguity: image 4 has 2 split tags; using "val"`, w.String())

	w = Warning{Kind: HoleLoss, Class: "building"}
	assert.Equal(t, []any{slog.String("kind", "hole_loss"), slog.String("class", "building")}, w.Attrs())
}
