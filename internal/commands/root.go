package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/app"
	"github.com/llazzari/personal-finance/internal/buildinfo"
	"github.com/llazzari/personal-finance/internal/config"
	"github.com/llazzari/personal-finance/internal/logger"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "finboard",
		Short:   "Personal finance statement ingestion and reports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newBanksCommand())
	rootCmd.AddCommand(newUploadCommand(opts))
	rootCmd.AddCommand(newCategorizeCommand(opts))
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newTrainCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// openApp resolves the config and builds the App. reg may be nil.
func (o *globalOptions) openApp(reg prometheus.Registerer) (*app.App, error) {
	cfg, err := config.Resolve(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	a, err := app.New(cfg, log, reg)
	if err != nil {
		return nil, fmt.Errorf("starting: %w", err)
	}
	return a, nil
}
