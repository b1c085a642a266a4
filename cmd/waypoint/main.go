package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "A hash and path router serving a live blog",
		Long: `Waypoint routes browser locations to Go handlers.

The serve command runs a blog whose pages navigate over a WebSocket:
every hash or history change is matched against the route table on the
server and the result is rendered back into the page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default ./waypoint.{yaml,toml,json})")

	rootCmd.AddCommand(
		serveCmd(),
		routesCmd(),
		matchCmd(),
		explainCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		werrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration for cmd, applying the flags it set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := []config.LoadOption{config.WithFlags(cmd.Flags())}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	return config.Load(".", opts...)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
