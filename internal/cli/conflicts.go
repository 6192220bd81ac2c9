package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftwatch/driftwatch/internal/model"
)

// ConflictsOptions holds flags for the conflicts command.
type ConflictsOptions struct {
	*RootOptions
	Kind       string
	Unresolved bool
}

// NewConflictsCommand creates the conflicts listing command.
func NewConflictsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List recorded conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			kind := model.ConflictKind(opts.Kind)
			if kind != model.KindAssumption && kind != model.KindDecision {
				_ = out.Error(CodeInvalidInput,
					fmt.Sprintf("invalid kind %q: must be assumption or decision", opts.Kind), nil)
				return NewExitError(ExitCommandError, "invalid kind")
			}

			_, st, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			records, err := st.ListConflicts(cmd.Context(), kind, opts.Unresolved)
			if err != nil {
				_ = out.Error(CodeDatabase, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to list conflicts", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(records)
			}
			return out.Success(renderConflicts(records))
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "decision", "conflict kind (assumption|decision)")
	cmd.Flags().BoolVar(&opts.Unresolved, "unresolved", false, "only unresolved conflicts")

	return cmd
}

func renderConflicts(records []model.ConflictRecord) string {
	if len(records) == 0 {
		return "no conflicts recorded"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d conflict(s)", len(records))
	for _, r := range records {
		status := "open"
		if r.ResolvedAt != nil {
			status = "resolved: " + r.ResolutionAction
		}
		fmt.Fprintf(&b, "\n  %s  %s <-> %s  %s (%.2f) [%s]",
			r.ID, r.IDA, r.IDB, r.Type, r.Confidence, status)
	}
	return b.String()
}
