package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/importer"
	"github.com/llazzari/personal-finance/internal/normalize"
)

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List the registered bank profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := importer.DefaultRegistry(normalize.New())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONTEXT\tBANK\tENCODING")
			for _, p := range reg.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Context, p.Name, p.Encoding())
			}
			return w.Flush()
		},
	}
}
