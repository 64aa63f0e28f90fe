package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fedramphub/internal/config"
	"fedramphub/internal/hub"
)

const (
	appName = "fedramphub"
	Version = "0.3.0"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if err := rootCmd(cfg).Execute(); err != nil {
		must(err)
	}
}

// app carries the service shared by every subcommand of one invocation.
type app struct {
	cfg config.Config
	svc *hub.Service
}

func rootCmd(cfg config.Config) *cobra.Command {
	a := &app{cfg: cfg}
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Search and cross-reference FedRAMP controls",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(newLogger(logLevel))
			if cmd.Name() == "version" {
				return nil
			}
			svc, err := hub.New(a.cfg, slog.Default())
			if err != nil {
				return err
			}
			a.svc = svc
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc == nil {
				return nil
			}
			return a.svc.Close()
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		searchCmd(a),
		suggestCmd(a),
		controlsCmd(a),
		crosswalkCmd(a),
		ksiCmd(a),
		docsCmd(a),
		shellCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
