// Package split - Assigns every image of a dataset to exactly one of the
// train, val and test partitions.
//
// Assignment runs in three tiers, evaluated per image:
//
//  1. a structured "split" tag whose value is train, val or test;
//  2. plain train/val/test tags, first match in that order;
//  3. a deterministic ratio fallback over the images left by tiers 1 and 2.
//
// The fallback needs the whole batch, so Assign must see every image of a
// dataset at once.
package split

import (
	"fmt"
	"math"

	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/diagnostics"
)

// Split is one output partition.
type Split int

const (
	// Train is the training partition.
	Train Split = iota
	// Val is the validation partition.
	Val
	// Test is the test partition. Test images get no color mask.
	Test
)

// All lists the splits in their fixed enumeration order.
var All = []Split{Train, Val, Test}

func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Val:
		return "val"
	case Test:
		return "test"
	}
	return fmt.Sprintf("split(%d)", int(s))
}

// Parse maps a tag name or value onto a Split.
func Parse(s string) (Split, bool) {
	for _, sp := range All {
		if sp.String() == s {
			return sp, true
		}
	}
	return 0, false
}

// TagName is the name of the structured tag carrying a split as its value.
const TagName = "split"

// DefaultTrainRatio is the train share used by the fallback tier.
const DefaultTrainRatio = 0.6

// Item is one image to assign.
type Item struct {
	ID   int64
	Tags []annotation.Tag
}

// Assignment maps every image ID of a dataset to its split.
type Assignment map[int64]Split

// Counts returns the number of images per split.
func (a Assignment) Counts() map[Split]int {
	counts := map[Split]int{Train: 0, Val: 0, Test: 0}
	for _, s := range a {
		counts[s]++
	}
	return counts
}

// Assigner computes Assignments. It holds no mutable state and can be shared.
type Assigner struct {
	ratio float64
}

// NewAssigner creates an assigner with the fallback train ratio.
//
// Arguments:
//   - trainRatio: Train share in [0, 1]; val and test each receive (1-trainRatio)/2.
//
// Returns:
//   - *Assigner: The assigner.
//   - error: A *annotation.ConfigurationError when the ratio is outside [0, 1].
func NewAssigner(trainRatio float64) (*Assigner, error) {
	if math.IsNaN(trainRatio) || trainRatio < 0 || trainRatio > 1 {
		return nil, annotation.NewConfigurationError("train_ratio", "%v is outside [0, 1]", trainRatio)
	}
	return &Assigner{ratio: trainRatio}, nil
}

// Ratio returns the fallback train ratio.
func (a *Assigner) Ratio() float64 { return a.ratio }

// Assign partitions items. The result is deterministic for a given item order.
//
// Arguments:
//   - items: The images of one dataset in their listing order.
//
// Returns:
//   - Assignment: Exactly one split per item.
//   - []diagnostics.Warning: SplitAmbiguity and SmallDataset findings.
func (a *Assigner) Assign(items []Item) (Assignment, []diagnostics.Warning) {
	assignment := make(Assignment, len(items))
	var (
		warnings []diagnostics.Warning
		untagged []int64
	)

	for _, item := range items {
		s, ok, w := fromTags(item)
		if w != nil {
			warnings = append(warnings, *w)
		}
		if ok {
			assignment[item.ID] = s
			continue
		}
		untagged = append(untagged, item.ID)
	}

	q := newQuota(len(untagged), a.ratio)
	for _, id := range untagged {
		var s Split
		s, q = q.next()
		assignment[id] = s
	}

	if len(items) < 3 {
		warnings = append(warnings, diagnostics.Warning{
			Kind:    diagnostics.SmallDataset,
			Message: fmt.Sprintf("dataset has %d image(s); some splits will be empty", len(items)),
		})
	}
	return assignment, warnings
}

// fromTags applies the structured and the plain-tag tiers.
func fromTags(item Item) (Split, bool, *diagnostics.Warning) {
	for _, t := range item.Tags {
		if t.Name != TagName {
			continue
		}
		if s, ok := Parse(t.Value); ok {
			return s, true, nil
		}
	}

	present := make(map[Split]bool, len(All))
	for _, t := range item.Tags {
		if t.Value != "" {
			continue
		}
		if s, ok := Parse(t.Name); ok {
			present[s] = true
		}
	}
	if len(present) == 0 {
		return 0, false, nil
	}

	var chosen Split
	for _, s := range All {
		if present[s] {
			chosen = s
			break
		}
	}
	if len(present) == 1 {
		return chosen, true, nil
	}
	return chosen, true, &diagnostics.Warning{
		Kind:    diagnostics.SplitAmbiguity,
		ImageID: item.ID,
		Message: fmt.Sprintf("image %d has %d split tags; using %q", item.ID, len(present), chosen),
	}
}
