package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/study"
)

func writeStudy(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadStudyFile(t *testing.T) {
	res, err := LoadStudy(kmcStudy)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, "kmc", res.Study.Name)
	require.Len(t, res.Study.Outputs, 3)
	assert.Equal(t, study.KindAntinu, res.Study.Outputs[1].Builder)
	assert.Equal(t, frame.LeftOuter, res.Study.Cardinality)
}

func TestLoadStudyDirectory(t *testing.T) {
	dir := t.TempDir()
	writeStudy(t, dir, "study.cue", `package kmc

study: {
	name:      "kmc-dir"
	cut_value: cut
	outputs: [{name: "kmc", builder: "antinu"}]
}
`)
	writeStudy(t, dir, "cuts.cue", `package kmc

cut: 0.05
`)

	res, err := LoadStudy(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)
	assert.Equal(t, "kmc-dir", res.Study.Name)
	assert.Equal(t, 0.05, res.Study.Cut)
}

func TestLoadStudyErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	notCUE := writeStudy(t, dir, "events.yaml", "events: []\n")
	badExpr := writeStudy(t, dir, "bad_expr.cue",
		`name: "s", outputs: [{name: "a", builder: "antinu", signals: [{out: "x", expr: "a +"}]}]`)
	sameMarkers := writeStudy(t, dir, "markers.cue",
		`name: "s", marker_values: ["p", "p"], outputs: [{name: "a", builder: "antinu"}]`)
	syntax := writeStudy(t, dir, "syntax.cue", `name: "s" outputs: [`)

	tests := []struct {
		name   string
		path   string
		code   string
		hasPos bool
	}{
		{"not found", filepath.Join(dir, "missing.cue"), ErrCodeNotFound, false},
		{"empty directory", empty, ErrCodeNoFiles, false},
		{"not a cue file", notCUE, ErrCodeNoFiles, false},
		{"syntax error", syntax, ErrCodeLoadFailed, false},
		{"bad expression", badExpr, ErrCodeExpression, true},
		{"same markers", sameMarkers, ErrCodeStudyConfig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStudy(tt.path)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %T", err)
			assert.Equal(t, tt.code, loadErr.Code, loadErr.Message)
			if tt.hasPos {
				assert.True(t, loadErr.Pos.IsValid(), "position of %s", loadErr.Message)
			}
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"name":                       ErrCodeStudyName,
		"outputs":                    ErrCodeOutputs,
		"outputs[2].builder":         ErrCodeOutput,
		"outputs[0].signals[1].expr": ErrCodeExpression,
		"outputs[0].true_type.categories[3].expr": ErrCodeExpression,
		"geometry.fiducial.min[0]":                ErrCodeGeometry,
		"cardinality":                             ErrCodeParameter,
		"lift_to_depth":                           ErrCodeParameter,
		"study":                                   ErrCodeStudyConfig,
		"cue":                                     ErrCodeGeneric,
	}
	for field, want := range tests {
		assert.Equal(t, want, MapFieldToErrorCode(field), field)
	}
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "study not found: x.cue"}
	assert.Equal(t, "E005: study not found: x.cue", err.Error())
}
