package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftwatch/driftwatch/internal/orchestrator"
)

// NewDetectCommand creates the detect command group.
func NewDetectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run conflict detection",
	}
	cmd.AddCommand(newDetectSubcommand(rootOpts, "assumptions",
		"Detect contradictions between stored assumptions",
		func(o *orchestrator.Orchestrator, cmd *cobra.Command) (orchestrator.DetectionReport, error) {
			return o.DetectAssumptionConflicts(cmd.Context())
		}))
	cmd.AddCommand(newDetectSubcommand(rootOpts, "decisions",
		"Detect conflicts between active decisions",
		func(o *orchestrator.Orchestrator, cmd *cobra.Command) (orchestrator.DetectionReport, error) {
			return o.DetectDecisionConflicts(cmd.Context())
		}))
	return cmd
}

func newDetectSubcommand(rootOpts *RootOptions, use, short string,
	run func(*orchestrator.Orchestrator, *cobra.Command) (orchestrator.DetectionReport, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			o, _, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			report, err := run(o, cmd)
			if err != nil {
				_ = out.Error(CodeEvaluation, err.Error(), nil)
				return WrapExitError(ExitCommandError, "detection failed", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(report)
			}
			return out.Success(renderReport(report))
		},
	}
}

func renderReport(r orchestrator.DetectionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d conflict(s) found, %d new, %d already known",
		r.RunToken, len(r.Pairs), r.Inserted, r.Duplicates)
	for _, p := range r.Pairs {
		fmt.Fprintf(&b, "\n  %s <-> %s  %s (%.2f): %s",
			p.IDA, p.IDB, p.Conflict.Type, p.Conflict.Confidence, p.Conflict.Reason)
	}
	return b.String()
}
