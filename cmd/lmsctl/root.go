package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-lms/internal/app"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/logging"
)

// cli carries the opened core between cobra hooks and commands.
type cli struct {
	cfg  *config.Config
	core *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "lmsctl",
		Short:         "Inspect and edit roadmap progress",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.core != nil {
				c.core.Close()
			}
		},
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading LMS_ variables")
	root.PersistentFlags().String("storage", "", "storage driver (overrides LMS_STORAGE_DRIVER)")

	root.AddCommand(
		newStatusCmd(c),
		newCompleteCmd(c),
		newQuizCmd(c),
		newScheduleCmd(c),
		newResetCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newReportCmd(c),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if driver, _ := cmd.Flags().GetString("storage"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(logging.New(cfg.Log, cmd.ErrOrStderr()))

	core, err := app.Open(context.Background(), cfg, nil)
	if err != nil {
		return err
	}
	c.cfg, c.core = cfg, core
	return nil
}
