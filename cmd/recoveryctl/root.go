package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"recoveryctl/internal/config"
	"recoveryctl/internal/log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config

	debug   bool
	jsonLog bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recoveryctl",
		Short: "Recovery console for installing, backing up and managing storage",
		Long: `recoveryctl drives a recovery environment from a menu console.

Without a subcommand it opens the main menu. Each submenu can also be
opened directly, and the browse and confirm commands expose the file
selector and confirmation prompt to scripts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var configErr error
			if cfgFile != "" {
				cfg, configErr = config.LoadConfigFile(cfgFile)
			} else {
				cfg, configErr = config.LoadConfig()
			}

			if configErr != nil {
				fmt.Fprintln(os.Stderr, warningText(fmt.Sprintf("Warning: %v", configErr)))
				fmt.Fprintln(os.Stderr, infoText("Using default settings."))
				cfg = config.New()
			}

			configureLogging(cfg)
			cmd.SetContext(log.ContextWithSession(contextOf(cmd), uuid.NewString()))
			log.LogWithContext(cmd.Context()).With(
				log.F("command", cmd.Name()),
				log.F("config", cfg.Path()),
			).Debug("Session started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, func(ctx context.Context, s *session) {
				s.console.Run(ctx)
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write log records as JSON")

	rootCmd.AddCommand(NewConsoleCmd())
	for _, cmd := range NewMenuCmds() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(NewWipeCmd())
	rootCmd.AddCommand(NewBrowseCmd())
	rootCmd.AddCommand(NewConfirmCmd())

	return rootCmd
}

// configureLogging sends records to the recovery log only. The terminal is
// owned by the menu.
func configureLogging(cfg *config.Config) {
	opts := []log.Option{log.WithOutput(io.Discard)}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFile(cfg.Log.File))
	}
	if cfg.Log.Level != "" {
		opts = append(opts, log.WithLevel(cfg.Log.Level))
	}
	if jsonLog || cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	log.Configure(opts...)
	log.SetDebug(debug || cfg.Log.Debug)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
