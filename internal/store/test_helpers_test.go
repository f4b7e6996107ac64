package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable returns a small interaction table with every cell kind,
// including Null cells and an Absent-padded key.
func createTestTable(t *testing.T) *frame.Table {
	t.Helper()
	b := frame.NewBuilder(hkey.Interaction)
	b.Add(hkey.New(0, 0), frame.Row{
		frame.Col("nu", "E"):       frame.Float(1.2),
		frame.Col("nu_pdg", ""):    frame.Int(-14),
		frame.Col("is_signal", ""): frame.Bool(true),
		frame.Col("true_type", ""): frame.String("SIGNAL"),
		frame.Col("nmuplus", ""):   frame.Int(1),
		frame.Col("nu", "iscc"):    frame.Bool(true),
	})
	b.Add(hkey.New(0, 1), frame.Row{
		frame.Col("nu", "E"):       frame.Float(0.9),
		frame.Col("nu_pdg", ""):    frame.Int(14),
		frame.Col("is_signal", ""): frame.Bool(false),
		frame.Col("true_type", ""): frame.String("NC"),
		frame.Col("nmuplus", ""):   frame.Int(0),
		frame.Col("nu", "iscc"):    frame.Bool(false),
	})
	b.Add(hkey.New(1, hkey.Absent), frame.Row{
		frame.Col("nu", "E"):       frame.Float(0.5),
		frame.Col("is_signal", ""): frame.Bool(false),
		frame.Col("true_type", ""): frame.String("COSMIC"),
		frame.Col("nmuplus", ""):   frame.Int(0),
	})
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return tbl
}

func createTestMeta(output string, seq int64) TableMeta {
	return TableMeta{
		Study:     "test",
		Output:    output,
		BatchID:   "0192f0c0-0000-7000-8000-000000000000",
		Seq:       seq,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}
