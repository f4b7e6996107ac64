package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"study": "kmc"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"study": "kmc"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]string{"table": "kmc_0"}
	require.NoError(t, formatter.Error("DEPTH_ERROR", "depth 3 below table depth 4", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DEPTH_ERROR", resp.Error.Code)
	assert.Equal(t, "depth 3 below table depth 4", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("3 tables written"))
	assert.Equal(t, "3 tables written\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E005", "study not found", "details hidden"))
	assert.Equal(t, "Error [E005]: study not found\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E005", "study not found", "x.cue"))
	assert.Contains(t, buf.String(), "Details: x.cue")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("loaded %d file(s)", 2)
	assert.Equal(t, "loaded 2 file(s)\n", errOut.String())
	assert.Empty(t, out.String(), "verbose logs never reach stdout")

	formatter.ErrWriter = nil
	formatter.VerboseLog("fallback")
	assert.Equal(t, "fallback\n", out.String())
	assert.Equal(t, out, formatter.GetErrWriter())
}

func TestOutputFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Table(
		[]string{"name", "rows"},
		[][]string{{"hdr_0", "2"}, {"kaon_0", "5"}},
	))
	assert.Equal(t, "NAME    ROWS\nhdr_0   2\nkaon_0  5\n", buf.String())
}

func TestOutputFormatter_JSONIndented(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.JSON([]int{1}))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": [\n    1\n  ]\n}\n", buf.String())
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	cause := errors.New("disk full")
	wrapped := fmt.Errorf("run: %w", WrapExitError(ExitFailure, "WRITE_ERROR", cause))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "run: WRITE_ERROR: disk full", wrapped.Error())
}
