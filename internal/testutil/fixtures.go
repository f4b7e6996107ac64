// Package testutil holds fixtures shared by the engine, harness and CLI
// tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/hierframe/internal/source"
	"github.com/roach88/hierframe/internal/store"
)

// OpenStore opens a store in a temp directory and closes it on cleanup.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// DecodeEvents parses an inline event document.
func DecodeEvents(t testing.TB, doc string) *source.YAMLSource {
	t.Helper()
	src, err := source.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode events: %v", err)
	}
	return src
}

// Sources splits src into batches of size events as the Source interface.
// A size of 0 keeps one batch.
func Sources(src *source.YAMLSource, size int) []source.Source {
	var out []source.Source
	for _, b := range src.Batches(size) {
		out = append(out, b)
	}
	return out
}
