package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidStudy(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), kmcStudy)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Study kmc valid")
	assert.Contains(t, out, "cut 0, left_outer merge, lift to depth 2, markers primary/daughter")
	assert.Contains(t, out, "  kmc: antinu\n")
	assert.Contains(t, out, "  kaon: kaon\n")
}

func TestValidateValidStudyJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), kmcStudy)
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "kmc", result.Study)
	assert.Equal(t, []OutputSummary{
		{Name: "hdr", Builder: "hdr"},
		{Name: "kmc", Builder: "antinu"},
		{Name: "kaon", Builder: "kaon"},
	}, result.Outputs)
}

func TestValidateOverridesAreSummarized(t *testing.T) {
	path := writeStudy(t, t.TempDir(), "study.cue", `
name: "custom"
outputs: [{
	name:    "kaon"
	builder: "kaon"
	signals: [{out: "has_kp", expr: "nkplus > 0"}]
	true_type: categories: [
		{tag: "KP", expr: "has_kp"},
		{tag: "OTHER", expr: "!has_kp"},
	]
}]
`)
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "  kaon: kaon (1 signal(s), 2 categories)")
}

func TestValidateRejectedStudy(t *testing.T) {
	path := writeStudy(t, t.TempDir(), "study.cue",
		`name: "s", outputs: [{name: "a", builder: "antinu", signals: [{out: "x", expr: "a +"}]}]`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E104: outputs[0].signals[0].expr")
}

func TestValidateRejectedStudyJSON(t *testing.T) {
	path := writeStudy(t, t.TempDir(), "study.cue",
		`name: "s", marker_values: ["p", "p"], outputs: [{name: "a", builder: "antinu"}]`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStudyConfig, resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "marker_values")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/study.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	writeStudy(t, dir, "study.cue", `package hdr

name: "headers"
outputs: [{name: "hdr", builder: "hdr"}]
`)
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text", Verbose: true}), filepath.Clean(dir))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Study headers valid")
}
