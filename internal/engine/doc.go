// Package engine runs a study over batches of events.
//
// ARCHITECTURE:
//
// Worker pool, single writer:
// Batches are numbered in input order before any work starts, so the
// persisted name of every table ("<output>_<seq>") depends only on the
// input. Workers build batches concurrently; each worker owns the tables it
// builds and shares nothing but the read-only study configuration. Finished
// batches go to one writer goroutine, the only caller of the store.
//
// Batch Processing Flow:
//  1. Run assigns each batch an id (UUIDv7) and a seq from the Clock
//  2. A worker builds every output of the batch, in declaration order
//  3. The first error aborts the batch; none of its tables are written
//  4. The writer persists the tables of successful batches
//
// Re-running the same input is safe. The store treats a table whose
// content hash matches the stored one as already written, and reports a
// conflict when it differs, so a rerun either changes nothing or fails
// loudly.
package engine
