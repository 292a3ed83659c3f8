package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/routesync/internal/harness"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Event string // optional - filter to one event type
}

// TraceResult holds the trace output.
type TraceResult struct {
	Scenario string               `json:"scenario"`
	Timeline []harness.TraceEvent `json:"timeline"`
	Stats    TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByType      map[string]int `json:"by_type"`
	Pass        bool           `json:"pass"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <scenario-file>",
		Short: "Print the event timeline of a scenario",
		Long: `Run a scenario and print every event observed along the way:
steps, history notifications, actions reaching the reducer, store
notifications and the history calls made by the bridge.

Examples:
  routesync trace ./scenarios/guard_redirect.yaml
  routesync trace ./scenarios/guard_redirect.yaml --event call
  routesync trace ./scenarios/guard_redirect.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "filter to one event type (step|history|action|store|call|error)")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		if outErr := formatter.Error(ErrCodeLoad, err.Error(), map[string]string{"file": path}); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		if outErr := formatter.Error(ErrCodeRun, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := TraceResult{
		Scenario: scenario.Name,
		Timeline: []harness.TraceEvent{},
		Stats:    TraceStats{ByType: map[string]int{}, Pass: result.Pass},
	}
	for _, e := range result.Trace {
		if opts.Event != "" && e.Type != opts.Event {
			continue
		}
		out.Timeline = append(out.Timeline, e)
		out.Stats.ByType[e.Type]++
	}
	out.Stats.TotalEvents = len(out.Timeline)

	if formatter.JSON() {
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Trace: %s\n\n", out.Scenario)
	for _, e := range out.Timeline {
		fmt.Fprintf(w, "  %s\n", harness.FormatEvent(e))
	}
	fmt.Fprintf(w, "\n%d events", out.Stats.TotalEvents)
	for _, k := range sortedKeys(out.Stats.ByType) {
		fmt.Fprintf(w, ", %s=%d", k, out.Stats.ByType[k])
	}
	fmt.Fprintln(w)
	return nil
}
