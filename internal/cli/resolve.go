package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Action string
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <conflict-id>",
		Short: "Mark a conflict resolved",
		Long: `Mark a recorded conflict resolved with the given action. For decision
conflicts, both affected decisions are re-evaluated afterward.

Example:
  driftwatch resolve 019594f2-... --action superseded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			o, _, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			if err := o.ResolveConflict(cmd.Context(), args[0], opts.Action); err != nil {
				code, exit := classifyStoreErr(err)
				_ = out.Error(code, err.Error(), nil)
				return WrapExitError(exit, "failed to resolve conflict", err)
			}

			return out.Success(fmt.Sprintf("conflict %s resolved (%s)", args[0], opts.Action))
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "resolution action (required)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}
