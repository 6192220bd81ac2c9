package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <duration>",
		Short: "Advance the organization's simulated clock",
		Long: `Move the organization's simulated time forward and re-evaluate every
non-retired decision at the new time. The offset is persisted, so later
commands observe it too. Durations use Go syntax; days compose from
hours.

Example:
  driftwatch advance 720h     # 30 days
  driftwatch advance 2160h    # 90 days`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			delta, err := time.ParseDuration(args[0])
			if err != nil {
				_ = out.Error(CodeInvalidInput, fmt.Sprintf("invalid duration %q", args[0]), nil)
				return WrapExitError(ExitCommandError, "invalid duration", err)
			}

			o, _, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			sum, err := o.AdvanceClock(cmd.Context(), delta)
			if err != nil {
				_ = out.Error(CodeEvaluation, err.Error(), nil)
				return WrapExitError(ExitCommandError, "advance failed", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(sum)
			}
			return out.Success(fmt.Sprintf("clock advanced by %s; %s", delta, sum))
		},
	}
}
