package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hierframe/internal/compiler"
	"github.com/roach88/hierframe/internal/study"
)

// LoadResult contains a compiled study and where it came from.
type LoadResult struct {
	Study     *study.Config
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files loaded
}

// LoadError represents an error that occurred during study loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadStudy loads and compiles a study from a single .cue file or from a
// directory holding one CUE package.
//
// A study may be written at the top level of the package or under a
// top-level "study" field. Every failure is a *LoadError.
func LoadStudy(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("study not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing study: %v", err)}
	}

	dir, args := path, []string{"."}
	fileCount := 1
	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(cueFiles) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		fileCount = len(cueFiles)
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}
		}
		dir, args = filepath.Dir(path), []string{"./" + filepath.Base(path)}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if nested := value.LookupPath(cue.ParsePath("study")); nested.Exists() {
		value = nested
	}

	cfg, err := compiler.CompileStudy(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Study: cfg, CUEValue: value, FileCount: fileCount}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDatabase    = "E007" // Database open or read error
	ErrCodeBadInput    = "E008" // Unreadable events file or bad flag value

	// Study validation errors
	ErrCodeStudyName   = "E101" // Missing or malformed study name
	ErrCodeOutputs     = "E102" // No outputs defined
	ErrCodeOutput      = "E103" // Bad output name or builder kind
	ErrCodeExpression  = "E104" // Signal or category expression rejected
	ErrCodeGeometry    = "E105" // Malformed fiducial or active box
	ErrCodeParameter   = "E106" // Cut, cardinality, lift depth or markers out of range
	ErrCodeStudyConfig = "E107" // Study-level consistency check failed
)

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Indices are ignored: "outputs[2].builder" maps like "outputs.builder".
func MapFieldToErrorCode(field string) string {
	switch f := indexPattern.ReplaceAllString(field, ""); f {
	case "name":
		return ErrCodeStudyName
	case "outputs":
		return ErrCodeOutputs
	case "outputs.name", "outputs.builder":
		return ErrCodeOutput
	case "outputs.signals", "outputs.signals.out", "outputs.signals.expr",
		"outputs.true_type", "outputs.true_type.out", "outputs.true_type.fallback",
		"outputs.true_type.categories", "outputs.true_type.categories.tag",
		"outputs.true_type.categories.expr":
		return ErrCodeExpression
	case "geometry", "geometry.fiducial", "geometry.active",
		"geometry.fiducial.min", "geometry.fiducial.max",
		"geometry.active.min", "geometry.active.max":
		return ErrCodeGeometry
	case "cut_value", "cardinality", "lift_to_depth", "marker_values", "truth_columns":
		return ErrCodeParameter
	case "study":
		return ErrCodeStudyConfig
	default:
		return ErrCodeGeneric
	}
}
