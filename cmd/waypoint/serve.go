package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/content"
	"github.com/vango-dev/waypoint/internal/server"
	"github.com/vango-dev/waypoint/pkg/routemap"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog",
		Long: `Serve the blog over HTTP.

Content is read from a directory (watched for changes) or from an S3
bucket. Pages connect back over /ws and are routed on the server.

Examples:
  waypoint serve
  waypoint serve --content=./blog --port=3000
  waypoint serve --bucket=my-blog --routes=routes.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bucket") {
				cfg.Content.Source = config.SourceS3
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringP("host", "H", config.DefaultHost, "Host to bind to")
	f.IntP("port", "p", config.DefaultPort, "Port to listen on")
	f.String("content", config.DefaultContentDir, "Content directory")
	f.String("bucket", "", "Read content from this S3 bucket instead of a directory")
	f.String("routes", "", "Route map file (YAML or TOML) replacing the built-in blog routes")
	f.String("recurse", "forward", "Recursion mode: forward, backward or off")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.Bool("metrics", true, "Serve Prometheus metrics")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, watcher, err := openContent(cfg, logger)
	if err != nil {
		return err
	}

	var opts []server.Option
	opts = append(opts, server.WithLogger(logger))
	if path := cfg.RoutesPath(); path != "" {
		routes, err := routemap.Load(path)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithRoutes(routes))
	}
	srv := server.New(cfg, store, opts...)

	success("Serving %s on http://%s", cfg.Name, cfg.Address())
	info("content: %s", contentLabel(cfg))
	if cfg.Metrics.Enabled {
		info("metrics: http://%s%s", cfg.Address(), cfg.Metrics.Path)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if watcher != nil {
		watcher.OnChange = srv.ContentChanged
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}
	return g.Wait()
}

// openContent builds the store for the configured source, and a watcher
// when a directory is served with watching on.
func openContent(cfg *config.Config, logger *slog.Logger) (*content.Store, *content.Watcher, error) {
	if cfg.Content.Source == config.SourceS3 {
		client := content.NewS3Client(content.S3Options{
			Region:   cfg.Content.Region,
			Endpoint: cfg.Content.Endpoint,
		})
		backend := content.NewS3Backend(client, cfg.Content.Bucket, cfg.Content.Prefix)
		return content.NewStore(backend, content.WithStoreLogger(logger)), nil, nil
	}

	dir := cfg.ContentPath()
	store := content.NewStore(content.NewFileBackend(dir), content.WithStoreLogger(logger))
	if !cfg.Content.Watch {
		return store, nil, nil
	}
	watcher, err := content.NewWatcher(store, dir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return store, watcher, nil
}

func contentLabel(cfg *config.Config) string {
	if cfg.Content.Source == config.SourceS3 {
		return "s3://" + cfg.Content.Bucket + "/" + cfg.Content.Prefix
	}
	return cfg.ContentPath()
}
