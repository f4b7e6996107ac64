// Package frame implements entity tables: rows addressed by a hierarchical
// key, columns addressed by (record group, field).
//
// A table is built once per batch and never mutated. Enrichment stages add
// columns by returning a new, wider table.
//
// OPERATIONS:
//
//	Builder           rows in any order → sorted, validated table
//	Merge             join on a key prefix with declared cardinality
//	Stack             union of entity kinds sharing one depth, with a marker
//	WithColumn / Map  additive derived columns
//	RenameGroup       explicit disambiguation before a merge
//	Filter / Select   narrowing (never required for correctness)
//
// COLUMN NAMESPACE:
//
// Column names are (group, field) pairs. A merge never guesses: if both sides
// carry the same record group, it fails with *ColumnCollisionError and the
// caller renames one side first.
//
// ALIGNMENT:
//
// Rows are always sorted by hkey.Compare, so any two tables built from the
// same batch list shared keys in the same order. Errors are never coerced:
// a depth mismatch, a repeated key or a cardinality violation aborts the
// operation with a typed error (see errors.go).
//
// CANONICAL ENCODING:
//
// MarshalCanonical renders a table as deterministic JSON (sorted column
// names, NFC strings, floats always carrying a fraction or exponent) for
// golden files, persistence and content hashes.
package frame
