package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dynaform/internal/config"
	"dynaform/internal/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "dynaform",
		Short:         "Dynamic form engine: question sheets, answer sheets and conditional questions",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			slog.SetDefault(logger)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe, // serve.go
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Store a demo question sheet",
		RunE:  runSeed, // seed.go
	}

	checkCmd = &cobra.Command{
		Use:   "check [question sheet json...]",
		Short: "Validate question sheet files and compile their conditions",
		Args:  cobra.MinimumNArgs(1),
		// check runs offline and does not need a valid service config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.New("warn", "text", os.Stderr)
			return nil
		},
		RunE: runCheck, // check.go
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, checkCmd)
	seedCmd.Flags().Bool("print", false, "print the demo sheet as JSON instead of storing it")
}
