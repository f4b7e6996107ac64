package frame

import (
	"fmt"

	"github.com/roach88/hierframe/internal/hkey"
)

// StackPart is one input of a Stack: a table and the tag written into the
// marker column for its rows.
type StackPart struct {
	Table *Table
	Tag   string
}

// Stack unions tables of different entity kinds into one table one level
// below their shared parent, e.g. primaries and daughters into particles.
//
// The anchor table has depth D-1; each of its rows gets hkey.AnchorSlot as
// its last component. Secondary tables have depth D and keep their own last
// component, their prior identifier. The marker column records each row's
// tag; Table.Entity turns (key, tag) back into an explicit hkey.Entity.
// Column sets are unioned; cells a part does not have are Null. The result
// is sorted by key.
//
// Errors:
//   - *hkey.DepthError if a secondary is not exactly one level deeper than
//     the anchor
//   - *ColumnCollisionError if a part already has the marker column
//   - *KeyCollisionError if two rows end up with the same full key,
//     including a secondary whose identifier is the anchor slot
func Stack(marker ColumnRef, anchor StackPart, secondaries ...StackPart) (*Table, error) {
	if anchor.Table == nil {
		return nil, fmt.Errorf("stack: anchor table is required")
	}
	if err := checkTags(anchor, secondaries); err != nil {
		return nil, err
	}

	depth := anchor.Table.depth + 1
	parts := append([]StackPart{anchor}, secondaries...)

	total := 0
	for i, p := range parts {
		if p.Table == nil {
			return nil, fmt.Errorf("stack: part %q has no table", p.Tag)
		}
		if p.Table.Has(marker) {
			return nil, &ColumnCollisionError{Op: "stack", Column: &marker}
		}
		if i > 0 && p.Table.depth != depth {
			return nil, &hkey.DepthError{Op: "stack", Depth: depth, Requested: p.Table.depth}
		}
		total += p.Table.Len()
	}

	keys := make([]hkey.Key, 0, total)
	cols := map[ColumnRef][]Value{marker: make([]Value, total)}
	for _, p := range parts {
		for _, ref := range p.Table.refs {
			if _, ok := cols[ref]; !ok {
				cols[ref] = make([]Value, total) // nil cells become Null in assemble
			}
		}
	}

	row := 0
	for i, p := range parts {
		for r, k := range p.Table.keys {
			if i == 0 {
				k = k.Append(hkey.AnchorSlot)
			} else if k.Last() == hkey.AnchorSlot {
				return nil, &KeyCollisionError{Op: "stack", Key: k}
			}
			keys = append(keys, k)
			cols[marker][row] = String(p.Tag)
			for _, ref := range p.Table.refs {
				cols[ref][row] = p.Table.cols[ref][r]
			}
			row++
		}
	}

	return assemble("stack", depth, false, keys, cols)
}

func checkTags(anchor StackPart, secondaries []StackPart) error {
	if anchor.Tag == "" {
		return fmt.Errorf("stack: anchor tag is required")
	}
	for _, s := range secondaries {
		if s.Tag == "" {
			return fmt.Errorf("stack: secondary tag is required")
		}
		if s.Tag == anchor.Tag {
			return fmt.Errorf("stack: secondary tag %q equals the anchor tag", s.Tag)
		}
	}
	return nil
}

// Entity returns the explicit entity variant of a stacked row. The kind
// comes from the marker: rows tagged anchorTag are anchors, every other tag
// is a secondary. Rows whose marker is Null (padding from an outer merge)
// are reported with ok false.
func (t *Table) Entity(i int, marker ColumnRef, anchorTag string) (hkey.Entity, bool) {
	tag, ok := t.Str(i, marker)
	if !ok {
		return hkey.Entity{}, false
	}
	kind := hkey.Secondary
	if tag == anchorTag {
		kind = hkey.Anchor
	}
	e, err := hkey.EntityOf(t.keys[i], kind, tag)
	if err != nil {
		return hkey.Entity{}, false
	}
	return e, true
}

// IsTag returns a per-row mask of rows whose marker equals tag.
func (t *Table) IsTag(marker ColumnRef, tag string) []bool {
	mask := make([]bool, t.Len())
	for i := range mask {
		s, ok := t.Str(i, marker)
		mask[i] = ok && s == tag
	}
	return mask
}
