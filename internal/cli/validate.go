package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/study"
)

// ValidationError is one rejected study setting.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// OutputSummary describes one compiled output.
type OutputSummary struct {
	Name       string `json:"name"`
	Builder    string `json:"builder"`
	Signals    int    `json:"signals"`    // 0 means builder defaults
	Categories int    `json:"categories"` // 0 means builder defaults
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Study   string            `json:"study,omitempty"`
	Outputs []OutputSummary   `json:"outputs,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <study>",
		Short: "Check a study without running it",
		Long: `Compile a study file (or a directory holding one CUE package) and report
what it would build.

The study is checked against the schema, its defaults are filled in, and
every signal and category expression is parsed. Nothing is read from the
event source and no database is touched.

Exit codes:
  0 - Study is valid
  1 - Study was loaded but rejected
  2 - Command error (path not found, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, err := LoadStudy(path)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return commandError(formatter, ErrCodeGeneric, err.Error())
		}
		if !isStudyErrorCode(loadErr.Code) {
			return commandError(formatter, loadErr.Code, loadErr.Message)
		}
		verr := ValidationError{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			verr.File = loadErr.Pos.Filename()
			verr.Line = loadErr.Pos.Line()
		}
		return outputValidationErrors(formatter, []ValidationError{verr})
	}

	formatter.VerboseLog("Loaded %d CUE file(s) from %s", loadResult.FileCount, path)
	return outputValidateSuccess(formatter, loadResult.Study)
}

// isStudyErrorCode reports whether code is one of the E1xx study checks,
// as opposed to a failure to find or parse the files.
func isStudyErrorCode(code string) bool {
	return strings.HasPrefix(code, "E1")
}

func summarizeOutputs(cfg *study.Config) []OutputSummary {
	out := make([]OutputSummary, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		s := OutputSummary{Name: o.Name, Builder: o.Builder, Signals: len(o.Signals)}
		if o.TrueType != nil {
			s.Categories = len(o.TrueType.Categories)
		}
		out = append(out, s)
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, cfg *study.Config) error {
	result := ValidationResult{Valid: true, Study: cfg.Name, Outputs: summarizeOutputs(cfg)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Study %s valid\n\n", cfg.Name)
	fmt.Fprintf(w, "  cut %g, %s merge, lift to depth %d, markers %s/%s\n\n",
		cfg.Cut, cfg.Cardinality, cfg.LiftDepth, cfg.Markers[0], cfg.Markers[1])
	fmt.Fprintln(w, "Outputs:")
	for _, o := range result.Outputs {
		fmt.Fprintf(w, "  %s: %s%s\n", o.Name, o.Builder, describeOverrides(o))
	}
	return nil
}

func describeOverrides(o OutputSummary) string {
	var parts []string
	if o.Signals > 0 {
		parts = append(parts, fmt.Sprintf("%d signal(s)", o.Signals))
	}
	if o.Categories > 0 {
		parts = append(parts, fmt.Sprintf("%d categories", o.Categories))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// outputValidationErrors outputs validation errors. Validation failures
// exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", err.File, err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
