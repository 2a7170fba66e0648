package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"procurement-award-notifier/internal/config"
)

const localProcedureID = "local"

type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		exitWith(err.Error())
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "award-notifier",
		Short:         "Classify multi-lot procurement candidates and draft their notification letters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := slog.LevelWarn
			if a.verbose {
				level = cfg.SlogLevel()
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	root.AddCommand(
		newClassifyCommand(a),
		newNotifyCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newServeCommand(a),
	)
	return root
}

func exitWith(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	os.Exit(1)
}
