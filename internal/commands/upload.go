package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/app"
	"github.com/llazzari/personal-finance/internal/importer"
)

func newUploadCommand(opts *globalOptions) *cobra.Command {
	var (
		profile string
		bank    string
		ctxName string
		save    bool
		inbox   bool
	)

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Ingest bank exports into a profile's tables",
		Long: `Reads one or more CSV exports of the same bank, cleans and normalizes
them and splits the rows into expenses and incomes.

With --inbox the CSV files waiting in <data_dir>/import are ingested and,
once saved, moved to <data_dir>/import/processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inbox == (len(args) > 0) {
				return errors.New("pass either export files or --inbox")
			}

			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			files := args
			var names []string
			if inbox {
				found, err := importer.Scan(a.Config.DataDir)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No files waiting in the import directory.")
					return nil
				}
				for _, f := range found {
					files = append(files, f.Path)
					names = append(names, f.Name)
				}
			}

			res, err := a.Upload(context.Background(), app.UploadRequest{
				Profile: profile,
				Context: importer.Context(ctxName),
				Bank:    bank,
				Files:   files,
				Save:    save,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch %s: %d expenses, %d incomes\n", res.BatchID, len(res.Expenses), len(res.Incomes))
			if !save {
				fmt.Fprintln(out, "Dry run: pass --save to append the rows to the saved tables.")
				return nil
			}
			for _, name := range names {
				if err := importer.MarkProcessed(a.Config.DataDir, name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "default", "profile owning the tables")
	cmd.Flags().StringVar(&bank, "bank", "", "bank profile name, as listed by the banks command")
	cmd.Flags().StringVar(&ctxName, "context", string(importer.ContextStatement), "export kind: statement or credit_card")
	cmd.Flags().BoolVar(&save, "save", false, "append the rows to the saved tables")
	cmd.Flags().BoolVar(&inbox, "inbox", false, "ingest the files waiting in the import directory")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}
