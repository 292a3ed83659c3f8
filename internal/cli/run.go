package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/harness"
)

// RunResult is the outcome of the run command.
type RunResult struct {
	Name    string             `json:"name"`
	Pass    bool               `json:"pass"`
	Errors  []string           `json:"errors,omitempty"`
	State   map[string]any     `json:"state"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run one scenario and report its final state",
		Long: `Run a scenario and print whether its assertions held, the final
history and store state, and the bridge metrics.

Bridge logs go to stderr; --verbose shows debug logs.

Example:
  routesync run ./scenarios/push_then_back.yaml
  routesync run ./scenarios/guard_block.yaml --verbose --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runScenarioFile(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		if outErr := formatter.Error(ErrCodeLoad, err.Error(), map[string]string{"file": path}); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(newLogger(opts, cmd.ErrOrStderr())))
	if err != nil {
		if outErr := formatter.Error(ErrCodeRun, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := RunResult{
		Name:    scenario.Name,
		Pass:    result.Pass,
		Errors:  result.Errors,
		State:   result.State,
		Metrics: result.Metrics,
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if !result.Pass {
			cliErr = &CLIError{Code: ErrCodeScenarioFailed, Message: fmt.Sprintf("scenario %s failed", scenario.Name)}
		}
		if err := formatter.Response(out, cliErr); err != nil {
			return err
		}
	} else {
		printRunText(cmd, out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func printRunText(cmd *cobra.Command, out RunResult) {
	w := cmd.OutOrStdout()

	mark := "✓"
	if !out.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, out.Name)
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}

	fmt.Fprintln(w, "\nFinal state:")
	for _, k := range sortedKeys(out.State) {
		fmt.Fprintf(w, "  %s: %v\n", k, out.State[k])
	}

	if len(out.Metrics) > 0 {
		fmt.Fprintln(w, "\nMetrics:")
		for _, k := range sortedKeys(out.Metrics) {
			fmt.Fprintf(w, "  %s %g\n", k, out.Metrics[k])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
