package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	harnessData  = filepath.Join("..", "harness", "testdata")
	kmcStudy     = filepath.Join(harnessData, "studies", "kmc.cue")
	kaonStudy    = filepath.Join(harnessData, "studies", "kaon.cue")
	twoEvents    = filepath.Join(harnessData, "events", "two_events.yaml")
	twoKaons     = filepath.Join(harnessData, "events", "two_kaons.yaml")
	scenariosDir = filepath.Join(harnessData, "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout. Logs
// written to stderr are dropped.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedDatabase runs the kmc study over two events into a fresh database
// and returns its path. It holds hdr_0, kmc_0 and kaon_0.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kmc.db")
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), "--db", dbPath, kmcStudy, twoEvents)
	require.NoError(t, err)
	return dbPath
}

// decodeData decodes the Data field of a JSON CLIResponse into data.
func decodeData(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.CLIResponse
}
