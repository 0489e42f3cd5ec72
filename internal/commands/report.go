package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/source"
	"github.com/llazzari/personal-finance/internal/taxonomy"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	var (
		profile string
		year    int
		month   int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print monthly or yearly summaries of a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			src, err := a.Source(context.Background(), profile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if src.IsEmpty() {
				fmt.Fprintln(out, "No saved rows.")
				return nil
			}
			labels := a.Taxonomy.Labels()
			switch {
			case year == 0:
				return printYearly(out, src, labels)
			case month == 0:
				return printEvolution(out, src, labels, year)
			default:
				return printMonth(out, src, labels, year, month)
			}
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "default", "profile to report on")
	cmd.Flags().IntVar(&year, "year", 0, "year to report on; omitted prints yearly totals")
	cmd.Flags().IntVar(&month, "month", 0, "month (1-12) within --year")

	return cmd
}

func display(l *taxonomy.Labels, ns taxonomy.Namespace, key string) string {
	if l == nil {
		return key
	}
	return l.Display(ns, key)
}

func printYearly(out io.Writer, src *source.Source, l *taxonomy.Labels) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "YEAR\tTYPE\tAMOUNT\t")
	for _, p := range src.YearlyEvolution() {
		kind := string(p.Type)
		if l != nil {
			kind = l.Kind(p.Type)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", p.Year, kind, p.Amount.StringFixed(2))
	}
	return w.Flush()
}

func printEvolution(out io.Writer, src *source.Source, l *taxonomy.Labels, year int) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tTYPE\tRECURRENT\tAMOUNT\t")
	for _, p := range src.Evolution(year) {
		kind, rec := string(p.Type), string(p.Recurrent)
		if l != nil {
			kind, rec = l.Kind(p.Type), l.Recurrence(p.Recurrent)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p.MonthName, kind, rec, p.Amount.StringFixed(2))
	}
	return w.Flush()
}

func printMonth(out io.Writer, src *source.Source, l *taxonomy.Labels, year, month int) error {
	fmt.Fprintf(out, "%04d-%02d balance: %s\n\n", year, month, src.TotalMonthAmount(year, month).StringFixed(2))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBCATEGORY\tCATEGORY\tAMOUNT")
	for _, t := range src.MonthExpenseBySubcategory(year, month) {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			display(l, taxonomy.Subcategory, t.Subcategory),
			display(l, taxonomy.Category, t.Category),
			t.Amount.StringFixed(2))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "INCOME\t\tAMOUNT")
	for _, t := range src.MonthIncomeByCategory(month, year) {
		fmt.Fprintf(w, "%s\t\t%s\n", display(l, taxonomy.Income, t.Category), t.Amount.StringFixed(2))
	}
	return w.Flush()
}
