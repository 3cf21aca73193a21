package contour

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/nvr-ai/go-cityscapes/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 int) []image.Point {
	return []image.Point{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}}
}

func TestRecordsFlipToRowCol(t *testing.T) {
	contours := []geometry.Contour{{Exterior: []image.Point{{X: 10, Y: 2}, {X: 10, Y: 7}, {X: 30, Y: 7}}}}

	records, warnings := DefaultPolicy().Records(contours, "car")
	require.Len(t, records, 1)
	assert.Empty(t, warnings)

	assert.Equal(t, "car", records[0].Label)
	assert.Equal(t, [][2]int{{2, 10}, {7, 10}, {7, 30}}, records[0].Polygon)
}

// TestRecordsHolePolicy validates dropping and splicing of interior rings.
func TestRecordsHolePolicy(t *testing.T) {
	exterior := square(0, 0, 20, 20)
	hole := []image.Point{{5, 5}, {5, 10}, {10, 10}, {10, 5}, {7, 4}}
	contours := []geometry.Contour{{Exterior: exterior, Interior: [][]image.Point{hole}}}

	t.Run("hole dropped with warning", func(t *testing.T) {
		records, warnings := DefaultPolicy().Records(contours, "building")
		require.Len(t, records, 1)
		assert.Len(t, records[0].Polygon, len(exterior))

		require.Len(t, warnings, 1)
		assert.Equal(t, diagnostics.HoleLoss, warnings[0].Kind)
		assert.Equal(t, "building", warnings[0].Class)
	})

	t.Run("out of roi splices hole", func(t *testing.T) {
		records, warnings := DefaultPolicy().Records(contours, OutOfROI)
		require.Len(t, records, 1)
		assert.Empty(t, warnings)

		poly := records[0].Polygon
		require.Len(t, poly, len(exterior)+len(hole)+2)

		// exterior, then exterior[0], the hole, and hole[0] again
		assert.Equal(t, [2]int{0, 0}, poly[len(exterior)])
		assert.Equal(t, [2]int{5, 5}, poly[len(exterior)+1])
		assert.Equal(t, [2]int{4, 7}, poly[len(poly)-2])
		assert.Equal(t, [2]int{5, 5}, poly[len(poly)-1])
	})

	t.Run("custom predicate", func(t *testing.T) {
		records, warnings := NewPolicy("void").Records(contours, "void")
		assert.Empty(t, warnings)
		assert.Len(t, records[0].Polygon, len(exterior)+len(hole)+2)

		_, warnings = NewPolicy("void").Records(contours, OutOfROI)
		assert.Len(t, warnings, 1)
	})
}

func TestRecordsMultipleHolesSpliceInOrder(t *testing.T) {
	exterior := square(0, 0, 40, 40)
	holes := [][]image.Point{square(2, 2, 5, 5), square(20, 20, 25, 25)}

	records, _ := DefaultPolicy().Records([]geometry.Contour{{Exterior: exterior, Interior: holes}}, OutOfROI)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Polygon, len(exterior)+len(holes[0])+2+len(holes[1])+2)
}

func TestRecordsOnePerDisjointContour(t *testing.T) {
	contours := []geometry.Contour{
		{Exterior: square(0, 0, 3, 3)},
		{Exterior: square(10, 10, 13, 13)},
	}

	records, warnings := DefaultPolicy().Records(contours, "road")
	assert.Empty(t, warnings)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "road", r.Label)
	}
	assert.Equal(t, [2]int{10, 10}, records[1].Polygon[0])
}

func TestRecordsNoContours(t *testing.T) {
	records, warnings := DefaultPolicy().Records(nil, "road")
	assert.Empty(t, records)
	assert.Empty(t, warnings)
}

func TestDocumentJSON(t *testing.T) {
	doc := NewDocument(4, 6)
	doc.Objects = append(doc.Objects, Record{Label: "car", Polygon: [][2]int{{1, 2}, {3, 4}, {1, 4}}})

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"imgHeight":4,"imgWidth":6,"objects":[{"label":"car","polygon":[[1,2],[3,4],[1,4]]}]}`, string(data))

	empty, err := json.Marshal(NewDocument(1, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"imgHeight":1,"imgWidth":1,"objects":[]}`, string(empty))
}
