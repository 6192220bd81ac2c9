package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dataset.yaml>",
		Short: "Validate a dataset file without importing it",
		Long: `Parse a YAML dataset and check ids, lifecycle values, health ranges,
and link references. Nothing is written. The tuning config, when given
with --config, is validated as well.

Example:
  driftwatch validate ./datasets/q3.yaml
  driftwatch validate --config ./tuning.cue ./datasets/q3.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(cmd, rootOpts)

			if _, err := loadTuning(rootOpts); err != nil {
				_ = out.Error(CodeInvalidInput, err.Error(), nil)
				return err
			}

			ds, err := LoadDataset(args[0])
			if err != nil {
				_ = out.Error(CodeInvalidInput, err.Error(), nil)
				return WrapExitError(ExitFailure, "dataset is invalid", err)
			}

			return out.Success(fmt.Sprintf("dataset is valid: %d decision(s), %d assumption(s), %d constraint(s)",
				len(ds.Decisions), len(ds.Assumptions), len(ds.Constraints)))
		},
	}
}
