package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
)

const (
	// ConfigName is the base name of the configuration file.
	ConfigName = "waypoint"

	// EnvPrefix prefixes environment overrides (WAYPOINT_SERVER_PORT).
	EnvPrefix = "WAYPOINT"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultContentDir is the default content directory.
	DefaultContentDir = "blog"
)

// Content sources.
const (
	SourceDir = "dir"
	SourceS3  = "s3"
)

// Config represents the complete waypoint configuration.
type Config struct {
	// Name is the site name used in logs.
	Name string `mapstructure:"name"`

	Server  ServerConfig  `mapstructure:"server"`
	Router  RouterConfig  `mapstructure:"router"`
	Content ContentConfig `mapstructure:"content"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`

	// configPath stores the file the config was loaded from, if any.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// AllowedOrigins lists the origins allowed to open a navigation
	// socket. Empty means same-origin only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// WriteTimeout bounds each navigation socket write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RouterConfig mirrors the router options that make sense in a file.
type RouterConfig struct {
	// Recurse is "off", "forward" or "backward".
	Recurse   string `mapstructure:"recurse"`
	Strict    bool   `mapstructure:"strict"`
	Async     bool   `mapstructure:"async"`
	QueueSize int    `mapstructure:"queue_size"`
	History   bool   `mapstructure:"history"`
	Delimiter string `mapstructure:"delimiter"`

	// AfterOnLeave defers after hooks to the next navigation.
	AfterOnLeave bool `mapstructure:"after_on_leave"`

	// RoutesFile is an optional YAML or TOML route map. When empty the
	// built-in blog routes are used.
	RoutesFile string `mapstructure:"routes_file"`
}

// ContentConfig selects where blog content is read from.
type ContentConfig struct {
	// Source is "dir" or "s3".
	Source string `mapstructure:"source"`

	// Dir is the content directory for the dir source.
	Dir string `mapstructure:"dir"`

	// Watch reloads cached documents when files change.
	Watch bool `mapstructure:"watch"`

	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// MetricsConfig controls the Prometheus endpoint and middleware.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig controls the server logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// defaults is the flattened default configuration. Every key is listed so
// that environment overrides apply to it.
var defaults = map[string]any{
	"name":                    "waypoint",
	"server.host":             DefaultHost,
	"server.port":             DefaultPort,
	"server.allowed_origins":  []string{},
	"server.shutdown_timeout": 10 * time.Second,
	"server.write_timeout":    5 * time.Second,
	"router.recurse":          "forward",
	"router.strict":           true,
	"router.async":            true,
	"router.queue_size":       64,
	"router.history":          false,
	"router.delimiter":        "/",
	"router.after_on_leave":   false,
	"router.routes_file":      "",
	"content.source":          SourceDir,
	"content.dir":             DefaultContentDir,
	"content.watch":           true,
	"content.bucket":          "",
	"content.prefix":          "",
	"content.region":          "us-east-1",
	"content.endpoint":        "",
	"metrics.enabled":         true,
	"metrics.namespace":       "waypoint",
	"metrics.path":            "/metrics",
	"log.level":               "info",
	"log.format":              "text",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"content":   "content.dir",
	"bucket":    "content.bucket",
	"routes":    "router.routes_file",
	"recurse":   "router.recurse",
	"log-level": "log.level",
	"metrics":   "metrics.enabled",
}

// New creates a new Config with default values.
func New() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	flags *pflag.FlagSet
	file  string
}

// WithFlags binds the flags of fs that name configuration keys. Only flags
// the user set override the file.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) {
		o.flags = fs
	}
}

// WithFile loads path instead of searching dir.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// Load reads configuration from dir. A missing file is not an error: the
// defaults and environment overrides apply.
func Load(dir string, opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := newViper()
	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if os.IsNotExist(err) {
				return nil, werrors.New("W401").
					WithDetail("No configuration file at " + o.file).
					WithSuggestion("Check the --config path").
					Wrap(err)
			}
			return nil, werrors.New("W401").
				WithDetail("Failed to parse " + v.ConfigFileUsed() + ": " + err.Error()).
				Wrap(err)
		}
	}

	if o.flags != nil {
		if err := bindFlags(v, o.flags); err != nil {
			return nil, err
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.configPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return werrors.New("W402").WithDetailf("flag --%s: %v", name, err).Wrap(err)
		}
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, werrors.New("W401").
			WithDetail("Failed to decode configuration: " + err.Error()).
			Wrap(err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return werrors.New("W402").
			WithDetailf("server.port %d must be between 0 and 65535", c.Server.Port)
	}
	if _, err := c.Router.RecurseMode(); err != nil {
		return err
	}
	if c.Router.QueueSize <= 0 {
		return werrors.New("W402").
			WithDetailf("router.queue_size %d must be positive", c.Router.QueueSize)
	}
	if c.Router.Delimiter == "" {
		return werrors.New("W402").WithDetail("router.delimiter must not be empty")
	}

	switch c.Content.Source {
	case SourceDir:
		if c.Content.Dir == "" {
			return werrors.New("W402").WithDetail("content.dir is required for the dir source")
		}
	case SourceS3:
		if c.Content.Bucket == "" {
			return werrors.New("W402").
				WithDetail("content.bucket is required for the s3 source").
				WithSuggestion("Set WAYPOINT_CONTENT_BUCKET or content.bucket")
		}
	default:
		return werrors.New("W402").
			WithDetailf("content.source %q must be %q or %q", c.Content.Source, SourceDir, SourceS3)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return werrors.New("W402").WithDetailf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// RecurseMode parses Recurse.
func (c RouterConfig) RecurseMode() (router.RecurseMode, error) {
	switch strings.ToLower(c.Recurse) {
	case "", "off", "false":
		return router.RecurseOff, nil
	case "forward":
		return router.RecurseForward, nil
	case "backward":
		return router.RecurseBackward, nil
	default:
		return router.RecurseOff, werrors.New("W402").
			WithDetailf("router.recurse %q must be off, forward or backward", c.Recurse)
	}
}

// Options converts the file settings into router options.
func (c RouterConfig) Options() ([]router.Option, error) {
	mode, err := c.RecurseMode()
	if err != nil {
		return nil, err
	}
	return []router.Option{
		router.WithRecurse(mode),
		router.WithStrict(c.Strict),
		router.WithAsync(c.Async),
		router.WithQueueSize(c.QueueSize),
		router.WithHistory(c.History),
		router.WithDelimiter(c.Delimiter),
		router.WithAfterOnLeave(c.AfterOnLeave),
	}, nil
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, werrors.New("W402").
			WithDetailf("log.level %q must be debug, info, warn or error", c.Level)
	}
	return level, nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// ContentPath resolves Content.Dir against the config file's directory.
func (c *Config) ContentPath() string {
	return c.resolve(c.Content.Dir)
}

// RoutesPath resolves Router.RoutesFile against the config file's
// directory, or returns "" when no route map is configured.
func (c *Config) RoutesPath() string {
	if c.Router.RoutesFile == "" {
		return ""
	}
	return c.resolve(c.Router.RoutesFile)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir() == "" {
		return path
	}
	return filepath.Join(c.Dir(), path)
}
