package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/engine"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("HIERFRAME_DB", "/data/kmc.db")
	t.Setenv("HIERFRAME_WORKERS", "8")
	t.Setenv("HIERFRAME_BATCH_SIZE", "100")
	t.Setenv("HIERFRAME_FORMAT", "json")

	var e Env
	require.NoError(t, ParseEnv(&e))
	assert.Equal(t, Env{Database: "/data/kmc.db", Workers: 8, BatchSize: 100, Format: "json"}, e)
}

func TestParseEnv_Malformed(t *testing.T) {
	t.Setenv("HIERFRAME_WORKERS", "many")

	var e Env
	err := ParseEnv(&e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestEnvFallbacks(t *testing.T) {
	var e Env
	assert.Equal(t, engine.DefaultWorkers, e.workers())
	assert.Equal(t, "text", e.format())

	e = Env{Workers: 2, Format: "json"}
	assert.Equal(t, 2, e.workers())
	assert.Equal(t, "json", e.format())
}

func TestRunFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("HIERFRAME_WORKERS", "8")
	t.Setenv("HIERFRAME_BATCH_SIZE", "50")
	t.Setenv("HIERFRAME_DB", "/data/kmc.db")

	run, _, err := NewRootCommand().Find([]string{"run"})
	require.NoError(t, err)

	assert.Equal(t, "8", run.Flags().Lookup("workers").DefValue)
	assert.Equal(t, "50", run.Flags().Lookup("batch-size").DefValue)
	assert.Equal(t, "/data/kmc.db", run.Flags().Lookup("db").DefValue)
}

func TestDatabaseAndFormatFromEnv(t *testing.T) {
	dbPath := seedDatabase(t)
	t.Setenv("HIERFRAME_DB", dbPath)
	t.Setenv("HIERFRAME_FORMAT", "json")

	out, err := execute(t, NewRootCommand(), "list")
	require.NoError(t, err)

	var tables []TableSummary
	resp := decodeData(t, out, &tables)
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, tables, 3)
}

func TestFlagsOverrideEnv(t *testing.T) {
	dbPath := seedDatabase(t)
	t.Setenv("HIERFRAME_DB", "/nonexistent/other.db")
	t.Setenv("HIERFRAME_FORMAT", "json")

	out, err := execute(t, NewRootCommand(), "list", "--db", dbPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "kmc_0")
	assert.NotContains(t, out, `"status"`)
}

func TestMalformedEnvFailsCommands(t *testing.T) {
	t.Setenv("HIERFRAME_BATCH_SIZE", "lots")

	_, err := execute(t, NewRootCommand(), "list", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
