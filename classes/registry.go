// Package classes - Stable class name -> (sequential ID, color) mapping shared by
// label masks and the exported legend.
package classes

import (
	"image/color"

	"github.com/nvr-ai/go-cityscapes/annotation"
)

// MaxID is the largest ID a label mask can hold.
const MaxID = 255

// Entry is one exported class.
type Entry struct {
	// The human-readable class name.
	Name string
	// The 1-based sequential ID written into label masks.
	ID int
	// The display color written into color masks.
	Color color.RGBA
}

// LegendEntry is the JSON form of an Entry in class_to_id.json.
type LegendEntry struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Color [3]int `json:"color"`
}

// Registry is immutable after Build.
type Registry struct {
	entries []Entry
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// Build assigns dense 1-based IDs, in declared order, to every class whose
// geometry kind can be exported. Other classes are left out.
//
// Arguments:
//   - ordered: The project classes in declared order.
//
// Returns:
//   - *Registry: The registry.
//   - error: A *annotation.ConfigurationError when class names repeat, when no
//     class can be exported, or when the IDs would not fit an 8-bit label mask.
//
// Example:
//
// ```go
//
//	reg, err := classes.Build(project.Classes)
//	if err != nil {
//	    return err
//	}
//	road, _ := reg.Lookup("road")
//	fmt.Println(road.ID) // 1
//
// ```
func Build(ordered []annotation.ObjectClass) (*Registry, error) {
	seen := make(map[string]struct{}, len(ordered))
	reg := &Registry{nameToIdx: make(map[string]int, len(ordered))}

	for _, c := range ordered {
		if _, dup := seen[c.Name]; dup {
			return nil, annotation.NewConfigurationError("classes", "duplicate class name %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		if !c.Kind.Supported() {
			continue
		}
		reg.nameToIdx[c.Name] = len(reg.entries)
		reg.entries = append(reg.entries, Entry{
			Name:  c.Name,
			ID:    len(reg.entries) + 1,
			Color: c.Color,
		})
	}

	if len(reg.entries) == 0 {
		return nil, annotation.NewConfigurationError("classes", "no class has a bitmap or polygon geometry")
	}
	if len(reg.entries) > MaxID {
		return nil, annotation.NewConfigurationError("classes",
			"%d exportable classes exceed the label mask limit of %d", len(reg.entries), MaxID)
	}
	return reg, nil
}

// Len returns the number of registered classes.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the entries in ID order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the entry for a class name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	idx, ok := r.nameToIdx[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Legend returns the class_to_id.json document.
func (r *Registry) Legend() []LegendEntry {
	out := make([]LegendEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = LegendEntry{
			Name:  e.Name,
			ID:    e.ID,
			Color: [3]int{int(e.Color.R), int(e.Color.G), int(e.Color.B)},
		}
	}
	return out
}
