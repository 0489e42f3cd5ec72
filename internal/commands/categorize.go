package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/model"
)

func newCategorizeCommand(opts *globalOptions) *cobra.Command {
	var (
		profile string
		incomes bool
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Label the uncategorized rows of a saved table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			kind := model.KindExpense
			if incomes {
				kind = model.KindIncome
			}
			rows, updated, err := a.Categorize(context.Background(), profile, kind)
			if err != nil {
				return err
			}
			if !updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to categorize in %s.\n", kind)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categorized %s: %d rows saved.\n", kind, len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "default", "profile owning the table")
	cmd.Flags().BoolVar(&incomes, "incomes", false, "categorize the incomes table instead of expenses")

	return cmd
}
