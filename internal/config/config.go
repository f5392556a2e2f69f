// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultLogLevel          = "INFO"
	DefaultSubmitParallelism = 4
	DefaultLauncherCommand   = "python mason.py"
	DefaultLauncherTimeout   = 10 * time.Minute
	DefaultLauncherPriority  = "normal"
	DefaultLauncherGPUs      = 1
	DefaultDatabaseFile      = "shardrun.db"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// LauncherConfig configures how jobs are handed to the cluster launcher and
// the resources used when a recipe leaves them unset.
type LauncherConfig struct {
	command        string
	dryRun         bool
	timeout        time.Duration
	clusters       []string
	image          string
	priority       string
	budget         string
	workspace      string
	gpus           int
	preemptible    bool
	pureDockerMode bool
}

// NewLauncherConfig creates a LauncherConfig with defaults.
func NewLauncherConfig() LauncherConfig {
	return LauncherConfig{
		command:  DefaultLauncherCommand,
		timeout:  DefaultLauncherTimeout,
		priority: DefaultLauncherPriority,
		gpus:     DefaultLauncherGPUs,
	}
}

// Command returns the launcher command line, e.g. "python mason.py".
func (l LauncherConfig) Command() string { return l.command }

// DryRun reports whether launches are recorded without executing.
func (l LauncherConfig) DryRun() bool { return l.dryRun }

// Timeout returns the maximum time a single launcher call may take.
func (l LauncherConfig) Timeout() time.Duration { return l.timeout }

// Clusters returns the default cluster list.
func (l LauncherConfig) Clusters() []string { return slices.Clone(l.clusters) }

// Image returns the default image.
func (l LauncherConfig) Image() string { return l.image }

// Priority returns the default priority.
func (l LauncherConfig) Priority() string { return l.priority }

// Budget returns the default budget account.
func (l LauncherConfig) Budget() string { return l.budget }

// Workspace returns the default workspace.
func (l LauncherConfig) Workspace() string { return l.workspace }

// GPUs returns the default GPU count.
func (l LauncherConfig) GPUs() int { return l.gpus }

// Preemptible returns the default preemptible flag.
func (l LauncherConfig) Preemptible() bool { return l.preemptible }

// PureDockerMode returns the default pure docker mode flag.
func (l LauncherConfig) PureDockerMode() bool { return l.pureDockerMode }

// LauncherOption is a functional option for LauncherConfig.
type LauncherOption func(*LauncherConfig)

// WithLauncherCommand sets the launcher command line.
func WithLauncherCommand(cmd string) LauncherOption {
	return func(l *LauncherConfig) { l.command = cmd }
}

// WithDryRun enables or disables dry-run launches.
func WithDryRun(dryRun bool) LauncherOption {
	return func(l *LauncherConfig) { l.dryRun = dryRun }
}

// WithLauncherTimeout sets the launcher call timeout.
func WithLauncherTimeout(d time.Duration) LauncherOption {
	return func(l *LauncherConfig) { l.timeout = d }
}

// WithClusters sets the default clusters.
func WithClusters(clusters []string) LauncherOption {
	return func(l *LauncherConfig) { l.clusters = slices.Clone(clusters) }
}

// WithImage sets the default image.
func WithImage(image string) LauncherOption {
	return func(l *LauncherConfig) { l.image = image }
}

// WithPriority sets the default priority.
func WithPriority(priority string) LauncherOption {
	return func(l *LauncherConfig) { l.priority = priority }
}

// WithBudget sets the default budget account.
func WithBudget(budget string) LauncherOption {
	return func(l *LauncherConfig) { l.budget = budget }
}

// WithWorkspace sets the default workspace.
func WithWorkspace(workspace string) LauncherOption {
	return func(l *LauncherConfig) { l.workspace = workspace }
}

// WithGPUs sets the default GPU count.
func WithGPUs(gpus int) LauncherOption {
	return func(l *LauncherConfig) { l.gpus = gpus }
}

// WithPreemptible sets the default preemptible flag.
func WithPreemptible(preemptible bool) LauncherOption {
	return func(l *LauncherConfig) { l.preemptible = preemptible }
}

// WithPureDockerMode sets the default pure docker mode flag.
func WithPureDockerMode(enabled bool) LauncherOption {
	return func(l *LauncherConfig) { l.pureDockerMode = enabled }
}

// NewLauncherConfigWithOptions creates a LauncherConfig with functional options.
func NewLauncherConfigWithOptions(opts ...LauncherOption) LauncherConfig {
	l := NewLauncherConfig()
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	apiKeys           []string
	recipesFile       string
	submitParallelism int
	launcher          LauncherConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shardrun"
	}
	return filepath.Join(home, ".shardrun")
}

// DefaultDBURL returns the SQLite URL inside the given data directory.
func DefaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, DefaultDatabaseFile)
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:              DefaultHost,
		port:              DefaultPort,
		dataDir:           dataDir,
		dbURL:             DefaultDBURL(dataDir),
		logLevel:          DefaultLogLevel,
		logFormat:         LogFormatPretty,
		apiKeys:           []string{},
		submitParallelism: DefaultSubmitParallelism,
		launcher:          NewLauncherConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns a copy of the API keys guarding write endpoints.
func (c AppConfig) APIKeys() []string {
	return slices.Clone(c.apiKeys)
}

// RecipesFile returns the path of the user recipes file, if any.
func (c AppConfig) RecipesFile() string { return c.recipesFile }

// SubmitParallelism returns how many launcher calls may run at once when
// shards are submitted as separate jobs.
func (c AppConfig) SubmitParallelism() int { return c.submitParallelism }

// Launcher returns the launcher configuration.
func (c AppConfig) Launcher() LauncherConfig { return c.launcher }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	_, err := PrepareDataDir(c.dataDir)
	return err
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory. The database URL follows the data
// directory unless it was set explicitly to something else.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if c.dbURL == DefaultDBURL(c.dataDir) {
			c.dbURL = DefaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = slices.Clone(keys)
	}
}

// WithRecipesFile sets the user recipes file.
func WithRecipesFile(path string) AppConfigOption {
	return func(c *AppConfig) { c.recipesFile = path }
}

// WithSubmitParallelism sets the split-submission parallelism.
func WithSubmitParallelism(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.submitParallelism = n
		}
	}
}

// WithLauncherConfig sets the launcher configuration.
func WithLauncherConfig(l LauncherConfig) AppConfigOption {
	return func(c *AppConfig) { c.launcher = l }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// API keys are shown as a count and PostgreSQL URLs are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("recipes_file", c.recipesFile),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("submit_parallelism", c.submitParallelism),
		slog.String("launcher_command", c.launcher.command),
		slog.Bool("launcher_dry_run", c.launcher.dryRun),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList parses a comma-separated list, dropping blanks.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
