// Package harness runs study scenarios end to end and checks the stored
// tables.
//
// # Scenario Format
//
// Scenarios are YAML files. Paths are relative to the scenario file:
//
//	name: antinu_basic
//	description: "What this scenario validates"
//	study: ../studies/kmc.cue
//	events: ../events/two_events.yaml
//	batch_size: 0
//	golden:
//	  kmc_0: [nmuplus, true_type]
//	assertions:
//	  - type: row_count
//	    table: kmc_0
//	    count: 5
//	  - type: column_values
//	    table: kmc_0
//	    column: true_type
//	    values: [SIGNAL, NC]
//	  - type: query_count
//	    table: kmc_0
//	    where: "nmuplus > 0"
//	    count: 2
//	  - type: batch_failed
//	    seq: 0
//	    code: CARDINALITY_ERROR
//
// # Assertion Types
//
//   - table_exists: the named table was written
//   - row_count: the table has exactly Count rows
//   - column_values: the column holds Values, in key order
//   - query_count: a filter over the stored rows matches Count rows
//   - batch_failed: batch Seq was aborted with error code Code
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with fixed batch ids
// and a stepping wall clock, so stored tables and golden snapshots are
// reproducible. Failed batches are collected rather than stopping the run,
// which is what batch_failed assertions inspect.
package harness
