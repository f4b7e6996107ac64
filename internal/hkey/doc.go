// Package hkey provides the hierarchical row key used by every entity table.
//
// A Key is an ordered tuple of integer components, one per hierarchy level
// currently represented:
//
//	(event)                               depth 1
//	(event, interaction)                  depth 2
//	(event, interaction, primary)         depth 3
//	(event, interaction, primary, slot)   depth 4
//
// Ancestor keys are derived by dropping trailing components. Sibling rows
// under one ancestor are told apart only by their last component, which is
// an identifier, not a rank.
//
// ORDERING:
//
// Keys are totally ordered lexicographically by component (Compare). Every
// package that emits rows sorts them by this order, so two tables built from
// the same batch always list rows in the same sequence. Downstream alignment
// (merge, lift, count) relies on this.
//
// ENTITY TAGGING:
//
// When two entity kinds share one depth (primaries stacked with their
// daughters), the last component of an anchor row is a reserved slot and the
// row carries an explicit Entity value (kind, tag, id) through the table's
// marker column. Callers inspect Entity instead of comparing components
// against a magic number.
package hkey
