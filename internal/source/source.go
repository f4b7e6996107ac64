// Package source supplies raw per-entity tables to the table builders.
//
// The builders see only the Source interface: given a record group and a
// list of field names, return a depth-tagged entity table. YAMLSource is the
// fixture implementation, reading nested event documents:
//
//	events:
//	  - run: 1
//	    subrun: 2
//	    evt: 301
//	    interactions:
//	      - pdg: -14
//	        iscc: true
//	        position: {x: 0.0, y: 10.0, z: 120.0}
//	        primaries:
//	          - G4ID: 1
//	            pdg: -13
//	            genE: 0.5
//	            daughters:
//	              - G4ID: 40
//	                pdg: -11
//	    slices:
//	      - vertex: {x: 1.0, y: 9.5, z: 118.0}
//	        is_clear_cosmic: 0
//
// Keys follow the detector hierarchy. Event, interaction and primary
// components are positions (entry number, then index within the parent);
// a daughter's last component is its G4ID track identifier.
package source

import (
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// Record groups a Source serves, one per hierarchy level.
const (
	GroupHeader      = "hdr"
	GroupInteraction = "nu"
	GroupPrimary     = "prim"
	GroupDaughter    = "dau"
	// GroupSlice holds reconstructed slices. A slice sits under its event,
	// beside the true interactions, so it shares their depth.
	GroupSlice = "slc"
)

// DaughterIDField names the daughter field used as the last key component.
const DaughterIDField = "G4ID"

// Source is the input boundary: a record-group loader.
//
// Returned tables must satisfy the key invariants: one depth, unique keys,
// rows sorted. A field a record does not carry reads as Null.
type Source interface {
	// Load returns the table for group with the named fields. A nil
	// fields slice loads every scalar field present in the group.
	Load(group string, fields []string) (*frame.Table, error)
	// Events returns the number of events the source covers.
	Events() int
}

// DepthOf returns the key depth of a record group.
func DepthOf(group string) (int, error) {
	switch group {
	case GroupHeader:
		return hkey.Event, nil
	case GroupInteraction, GroupSlice:
		return hkey.Interaction, nil
	case GroupPrimary:
		return hkey.Primary, nil
	case GroupDaughter:
		return hkey.Daughter, nil
	default:
		return 0, &UnknownGroupError{Group: group}
	}
}

// UnknownGroupError reports a Load for a group the source does not serve.
type UnknownGroupError struct {
	Group string
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("unknown record group %q (want %s, %s, %s, %s or %s)",
		e.Group, GroupHeader, GroupInteraction, GroupSlice, GroupPrimary, GroupDaughter)
}
