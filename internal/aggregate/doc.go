// Package aggregate moves derived columns across hierarchy levels.
//
// Every function here takes a table at some depth and returns a new table at
// an ancestor depth. Nothing else in the module changes the depth a column
// lives at, so a derived column is always attached at the depth of the
// table it was computed against.
//
// COMPLETENESS CONTRACT:
//
// Results are aligned to the complete set of distinct ancestor prefixes of
// the input table, not only the prefixes of matching rows:
//   - LiftAny: false for an ancestor with no matching descendant
//   - CountMatching: 0 for an ancestor with no matching descendant
//
// Prefixes containing hkey.Absent (padding from an outer merge) are not
// ancestors of anything and never appear in a result. Ancestors missing from
// the input altogether, e.g. interactions with zero primaries, are handled
// by Attach, which fills them in against the target table.
package aggregate
