package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <dataset.yaml>",
		Short: "Import a YAML dataset into the database",
		Long: `Import decisions, assumptions, constraints, and their links from a
YAML dataset file. Records with existing ids are replaced; links are
additive.

Example:
  driftwatch load --db ./driftwatch.db ./datasets/q3.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			ds, err := LoadDataset(args[0])
			if err != nil {
				_ = out.Error(CodeInvalidInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load dataset", err)
			}

			_, st, closer, err := openOrchestrator(rootOpts)
			if err != nil {
				return err
			}
			defer closer()

			if err := ds.Apply(cmd.Context(), st); err != nil {
				_ = out.Error(CodeDatabase, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to apply dataset", err)
			}

			return out.Success(fmt.Sprintf("loaded %d decision(s), %d assumption(s), %d constraint(s)",
				len(ds.Decisions), len(ds.Assumptions), len(ds.Constraints)))
		},
	}
}
