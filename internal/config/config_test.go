package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var we *werrors.WaypointError
	require.True(t, errors.As(err, &we), "expected a coded error, got %T: %v", err, err)
	assert.Equal(t, code, we.Code)
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "forward", cfg.Router.Recurse)
	assert.True(t, cfg.Router.Strict)
	assert.True(t, cfg.Router.Async)
	assert.Equal(t, 64, cfg.Router.QueueSize)
	assert.Equal(t, "/", cfg.Router.Delimiter)
	assert.Equal(t, SourceDir, cfg.Content.Source)
	assert.Equal(t, DefaultContentDir, cfg.Content.Dir)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Path())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, DefaultContentDir, cfg.ContentPath())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "waypoint.yaml", `
name: notes
server:
  port: 9000
  allowed_origins: ["https://example.com"]
  shutdown_timeout: 3s
router:
  recurse: backward
  strict: false
  routes_file: routes.yaml
content:
  dir: posts
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "notes", cfg.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Router.Strict)
	assert.Equal(t, filepath.Join(dir, "waypoint.yaml"), cfg.Path())
	assert.Equal(t, filepath.Join(dir, "posts"), cfg.ContentPath())
	assert.Equal(t, filepath.Join(dir, "routes.yaml"), cfg.RoutesPath())

	mode, err := cfg.Router.RecurseMode()
	require.NoError(t, err)
	assert.Equal(t, router.RecurseBackward, mode)

	// unset keys keep their defaults
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.True(t, cfg.Router.Async)
}

func TestLoad_JSONAndTOML(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "waypoint.json", `{"server": {"port": 7000}, "log": {"level": "debug"}}`)

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)

		level, err := cfg.Log.SlogLevel()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
	})

	t.Run("toml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "waypoint.toml", "[router]\nrecurse = \"off\"\nasync = false\n")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.False(t, cfg.Router.Async)

		mode, err := cfg.Router.RecurseMode()
		require.NoError(t, err)
		assert.Equal(t, router.RecurseOff, mode)
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "waypoint.yaml", "server:\n  port: 9000\n")

	t.Setenv("WAYPOINT_SERVER_PORT", "9100")
	t.Setenv("WAYPOINT_CONTENT_SOURCE", "s3")
	t.Setenv("WAYPOINT_CONTENT_BUCKET", "my-blog")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, SourceS3, cfg.Content.Source)
	assert.Equal(t, "my-blog", cfg.Content.Bucket)
}

func TestLoad_Flags(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.Int("port", DefaultPort, "")
	fs.String("content", DefaultContentDir, "")
	fs.String("unrelated", "", "")
	require.NoError(t, fs.Parse([]string{"--port", "9200"}))

	dir := t.TempDir()
	writeFile(t, dir, "waypoint.yaml", "server:\n  port: 9000\ncontent:\n  dir: posts\n")

	cfg, err := Load(dir, WithFlags(fs))
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	// unset flags do not override the file
	assert.Equal(t, "posts", cfg.Content.Dir)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "waypoint.json", `{"server": `)

		_, err := Load(dir)
		requireCode(t, err, "W401")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(".", WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
		requireCode(t, err, "W401")
	})

	t.Run("invalid value", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "waypoint.yaml", "router:\n  recurse: sideways\n")

		_, err := Load(dir)
		requireCode(t, err, "W402")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad recurse", func(c *Config) { c.Router.Recurse = "both" }},
		{"zero queue", func(c *Config) { c.Router.QueueSize = 0 }},
		{"empty delimiter", func(c *Config) { c.Router.Delimiter = "" }},
		{"unknown source", func(c *Config) { c.Content.Source = "ftp" }},
		{"empty dir", func(c *Config) { c.Content.Dir = "" }},
		{"s3 without bucket", func(c *Config) { c.Content.Source = SourceS3 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			requireCode(t, cfg.Validate(), "W402")
		})
	}
}

func TestRouterOptions(t *testing.T) {
	cfg := New()
	cfg.Router.Recurse = "backward"

	opts, err := cfg.Router.Options()
	require.NoError(t, err)

	r := router.New(opts...)
	rec := []string{}
	require.NoError(t, r.On(router.MethodOn, "/a", func(_ context.Context, _ ...string) error {
		rec = append(rec, "a")
		return nil
	}))
	require.NoError(t, r.On(router.MethodOn, "/a/b", func(_ context.Context, _ ...string) error {
		rec = append(rec, "b")
		return nil
	}))

	// async is on by default; wait for the navigation to finish
	done := make(chan error, 1)
	_, err = r.Dispatch(context.Background(), router.MethodOn, "/a/b", func(err error) { done <- err })
	require.NoError(t, err)
	require.NoError(t, <-done)
	r.Destroy()

	assert.Equal(t, []string{"b", "a"}, rec)
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 80
	assert.Equal(t, "0.0.0.0:80", cfg.Address())
}
