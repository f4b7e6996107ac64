// Package store provides SQLite-backed durable storage for built tables.
//
// Each batch output is persisted once under the name "<output>_<seq>":
//   - tables: metadata (study, output, batch id, seq, depth, columns,
//     row count, content hash)
//   - rows: one row per table row, key and cells as canonical JSON
//
// # Determinism
//
//   - Ordering uses seq and idx, never timestamps
//   - Every query ends in ORDER BY with a COLLATE BINARY tiebreaker
//   - Cells are canonical JSON, so the stored bytes of a table are a
//     function of its content; VerifyTable recomputes the content hash
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: rows cascade with their table
//   - _txlock=immediate: writes take the lock at BEGIN
//   - temp_store=MEMORY and a 32 MiB page cache for bulk row inserts
//
// A Store has a single writer connection. The engine funnels all writes
// through one goroutine; readers may share the Store.
package store
