package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftwatch/driftwatch/internal/engine"
	"github.com/driftwatch/driftwatch/internal/store"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	All bool
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate [decision-id]",
		Short: "Re-evaluate decision health",
		Long: `Re-evaluate one decision, or every non-retired decision with --all.
Changed health signals and lifecycle transitions are persisted; the
factor trace explains every adjustment.

Example:
  driftwatch evaluate dec-001
  driftwatch evaluate --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			if opts.All == (len(args) == 1) {
				_ = out.Error(CodeInvalidInput, "provide exactly one of a decision id or --all", nil)
				return NewExitError(ExitCommandError, "provide exactly one of a decision id or --all")
			}

			o, _, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			if opts.All {
				sum, err := o.EvaluateAll(cmd.Context())
				if err != nil {
					_ = out.Error(CodeEvaluation, err.Error(), nil)
					return WrapExitError(ExitCommandError, "batch evaluation failed", err)
				}
				if err := out.Success(sum); err != nil {
					return err
				}
				if sum.Failed > 0 {
					return NewExitError(ExitFailure,
						fmt.Sprintf("%d decision(s) failed to evaluate", sum.Failed))
				}
				return nil
			}

			res, err := o.EvaluateDecision(cmd.Context(), args[0])
			if err != nil {
				code, exit := classifyStoreErr(err)
				_ = out.Error(code, err.Error(), nil)
				return WrapExitError(exit, "evaluation failed", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(res)
			}
			return out.Success(renderEvaluation(args[0], res))
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "evaluate every non-retired decision")

	return cmd
}

func classifyStoreErr(err error) (code string, exit int) {
	if errors.Is(err, store.ErrNotFound) {
		return CodeNotFound, ExitFailure
	}
	return CodeDatabase, ExitCommandError
}

func renderEvaluation(id string, res engine.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: health %d, lifecycle %s", id, res.HealthSignal, res.Lifecycle)
	if res.InvalidatedReason != "" {
		fmt.Fprintf(&b, " (%s)", res.InvalidatedReason)
	}
	if !res.ChangesDetected {
		b.WriteString(" [no change]")
	}
	for _, f := range res.Trace {
		fmt.Fprintf(&b, "\n  %-30s %+6.1f  %s", f.Factor, f.Delta, f.Detail)
	}
	return b.String()
}
