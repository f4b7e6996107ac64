package hkey

import "fmt"

// EntityKind is the role a stacked row played before stacking.
type EntityKind int

const (
	// Anchor rows come from the shallower table of a stack (e.g. primaries).
	// They have no identifier of their own at the stacked depth.
	Anchor EntityKind = iota + 1
	// Secondary rows keep their prior identifier as the last component
	// (e.g. daughters, identified by track id).
	Secondary
)

func (k EntityKind) String() string {
	switch k {
	case Anchor:
		return "anchor"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// Entity is the explicit variant carried by a stacked row: which kind it
// is, the tag written in the marker column, and its own identifier.
//
// For anchors ID is the parent component (the anchor's identifier one level
// up); for secondaries it is the key's last component.
type Entity struct {
	Kind EntityKind
	Tag  string
	ID   int64
}

// IsAnchor reports whether the row came from the anchor table.
func (e Entity) IsAnchor() bool {
	return e.Kind == Anchor
}

func (e Entity) String() string {
	return fmt.Sprintf("%s[%s #%d]", e.Tag, e.Kind, e.ID)
}

// EntityOf derives the entity variant for a stacked key with the given tag.
func EntityOf(k Key, kind EntityKind, tag string) (Entity, error) {
	if len(k) < 2 {
		return Entity{}, &DepthError{Op: "entity", Depth: len(k), Requested: 2}
	}
	if kind == Anchor {
		return Entity{Kind: Anchor, Tag: tag, ID: k[len(k)-2]}, nil
	}
	return Entity{Kind: kind, Tag: tag, ID: k.Last()}, nil
}
