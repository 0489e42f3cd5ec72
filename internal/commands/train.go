package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/config"
	"github.com/llazzari/personal-finance/internal/ml"
	"github.com/llazzari/personal-finance/internal/normalize"
)

func newTrainCommand(opts *globalOptions) *cobra.Command {
	var (
		task  string
		input string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a categorization model from labeled descriptions",
		Long: `Reads a "description,label" CSV, normalizes the descriptions the way
the cleaning pipeline does and writes the vocabulary and classifier to the
paths configured for the task. Labels may be keys or display labels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				pair    config.ModelPair
				resolve func(string) (string, bool)
			)
			switch ml.Task(task) {
			case ml.TaskSubcategory:
				pair, resolve = a.Config.Models.Subcategory, a.Taxonomy.ResolveSubcategory
			case ml.TaskIncome:
				pair, resolve = a.Config.Models.Income, a.Taxonomy.ResolveIncome
			default:
				return fmt.Errorf("unknown task %q (want %s or %s)", task, ml.TaskSubcategory, ml.TaskIncome)
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening samples: %w", err)
			}
			defer f.Close()

			samples, err := ml.ReadSamples(f)
			if err != nil {
				return err
			}
			n := normalize.New()
			for i := range samples {
				key, ok := resolve(samples[i].Label)
				if !ok {
					return fmt.Errorf("row %d: unknown label %q", i+2, samples[i].Label)
				}
				samples[i].Label = key
				samples[i].Text = n.Normalize(samples[i].Text, nil)
			}

			trained, err := ml.Train(samples)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(a.Config.Models.Dir, 0o755); err != nil {
				return fmt.Errorf("creating models dir: %w", err)
			}
			if err := trained.Save(a.Config.ModelPath(pair.Vectorizer), a.Config.ModelPath(pair.Classifier)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Trained %s model on %d samples (%d labels).\n",
				task, len(samples), len(trained.Classifier.Labels()))
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", string(ml.TaskSubcategory), "model to fit: subcategory or income")
	cmd.Flags().StringVar(&input, "input", "", "labeled samples CSV")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
