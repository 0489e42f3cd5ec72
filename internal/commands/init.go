package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llazzari/personal-finance/internal/config"
)

func newInitCommand() *cobra.Command {
	var profiles []string
	var locale string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new finboard workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, profiles, locale)
		},
	}

	cmd.Flags().StringSliceVar(&profiles, "profile", []string{"default"}, "profile names (repeatable)")
	cmd.Flags().StringVar(&locale, "locale", "pt", "display locale (pt or en)")

	return cmd
}

func runInit(dir string, profiles []string, locale string) error {
	cfg := config.Default()
	cfg.Profiles = profiles
	cfg.Locale = locale
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "logs"),
		filepath.Join(cfg.DataDir, "import"),
		filepath.Join(cfg.DataDir, "import", "processed"),
		cfg.Models.Dir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write finboard.yaml.
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore.
	gitignore := ".env\n" + cfg.DataDir + "/\n" + cfg.Models.Dir + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, cfg.DataDir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Printf("Initialized finboard workspace at %s\n", dir)
	return nil
}
