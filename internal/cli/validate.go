package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`

	// Warnings are redirect cycles among the scenario's guards.
	Warnings []harness.CycleWarning `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-file-or-dir>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate scenario files.

Checks YAML syntax, unknown fields, step and assertion shapes without
connecting a bridge. Directories are searched for .yaml and .yml files.

Guards whose redirects form a cycle are reported as warnings; the
scenario stays valid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var files []string
	for _, p := range paths {
		found, err := scenarioFiles(p, "")
		if err != nil {
			if outErr := formatter.Error(ErrCodeLoad, err.Error(), nil); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, f := range files {
		formatter.VerboseLog("Validating %s", f)
		v := FileValidation{File: f, Valid: true}
		scenario, err := harness.LoadScenario(f)
		if err != nil {
			v.Valid = false
			v.Error = err.Error()
			result.Valid = false
		} else {
			v.Name = scenario.Name
			v.Warnings = harness.AnalyzeRedirects(scenario.Guards)
		}
		result.Files = append(result.Files, v)
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if !result.Valid {
			cliErr = &CLIError{Code: ErrCodeLoad, Message: "invalid scenarios"}
		}
		if err := formatter.Response(result, cliErr); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, v := range result.Files {
			if v.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", v.File, v.Name)
				for _, cw := range v.Warnings {
					fmt.Fprintf(w, "  warning: %s\n", cw.Message)
				}
			} else {
				fmt.Fprintf(w, "✗ %s\n  %s\n", v.File, v.Error)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "invalid scenarios")
	}
	return nil
}

// scenarioFiles returns path itself for a file, or the scenario files
// under a directory.
func scenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return findScenarioFiles(path, filter)
}
