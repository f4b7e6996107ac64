// Package classify evaluates caller-supplied predicate trees over the
// columns of an entity table.
//
// The core defines no physics. Signal definitions and true-type category
// sets are data: expression trees built in code or parsed from the CUE
// expression syntax used in study files, e.g.
//
//	is_true_fv && nmuplus > 0 && nu.iscc && has_daughter_cont
//	nu.iscc == false && nkplus > 0
//
// SEALED INTERFACE:
//
// Expr is sealed with a marker method. Only Col, Const, Not, And, Or,
// Equals and Compare implement it, so Eval, Describe and the SQL backend in
// querysql can switch over it exhaustively.
//
// MISSING VALUES:
//
// Null never equals anything and every comparison against it is false.
// Not inverts the row result, so Not(Equals{x, 1}) is true for a Null x.
// A column used as a bare flag must hold Bool or Null; truthiness of
// numbers and strings is never inferred.
//
// PURITY:
//
// Eval, ApplySignals and TrueType.Classify are pure functions of their
// input table. Signals evaluated together see the same input and never
// each other's output.
package classify
