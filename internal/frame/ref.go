package frame

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ColumnRef names a column by (record group, field).
//
// The same field name recurs across record groups ("pdg" on the neutrino,
// on a primary, on a daughter), so a field is only unambiguous together with
// its group. Derived single-valued columns use an empty field, e.g.
// ColumnRef{Group: "nmuplus"}.
type ColumnRef struct {
	Group string `json:"group"`
	Field string `json:"field,omitempty"`
}

// Col creates a normalised column reference.
func Col(group, field string) ColumnRef {
	return ColumnRef{Group: norm.NFC.String(group), Field: norm.NFC.String(field)}
}

// Ref parses the dotted form "group.field". The first dot separates group
// from field, so "nu.position.x" is group "nu", field "position.x". A name
// without a dot is a group-only reference.
func Ref(s string) (ColumnRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ColumnRef{}, fmt.Errorf("empty column reference")
	}
	group, field, _ := strings.Cut(s, ".")
	if group == "" {
		return ColumnRef{}, fmt.Errorf("column reference %q has empty group", s)
	}
	return Col(group, field), nil
}

// MustRef is Ref for static names. Panics on malformed input.
func MustRef(s string) ColumnRef {
	r, err := Ref(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String renders the dotted form.
func (r ColumnRef) String() string {
	if r.Field == "" {
		return r.Group
	}
	return r.Group + "." + r.Field
}

// compareRefs orders refs by group then field.
func compareRefs(a, b ColumnRef) int {
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	return strings.Compare(a.Field, b.Field)
}
