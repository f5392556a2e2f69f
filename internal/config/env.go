package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., LAUNCHER_DRY_RUN).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.shardrun
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/shardrun.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of keys allowed to submit jobs over HTTP.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// RecipesFile is a YAML file with extra or overriding recipes.
	// Env: RECIPES_FILE
	RecipesFile string `envconfig:"RECIPES_FILE"`

	// SubmitParallelism bounds concurrent launcher calls in split mode.
	// Env: SUBMIT_PARALLELISM (default: 4)
	SubmitParallelism int `envconfig:"SUBMIT_PARALLELISM" default:"4"`

	// Launcher configures the cluster launcher.
	Launcher LauncherEnv `envconfig:"LAUNCHER"`
}

// LauncherEnv holds environment configuration for the cluster launcher.
type LauncherEnv struct {
	// Command is the launcher command line.
	// Env: LAUNCHER_COMMAND (default: python mason.py)
	Command string `envconfig:"COMMAND" default:"python mason.py"`

	// DryRun records launches without executing them.
	// Env: LAUNCHER_DRY_RUN (default: false)
	DryRun bool `envconfig:"DRY_RUN" default:"false"`

	// Timeout is the launcher call timeout in seconds.
	// Env: LAUNCHER_TIMEOUT (default: 600)
	Timeout float64 `envconfig:"TIMEOUT" default:"600"`

	// Clusters is a comma-separated list of default clusters.
	// Env: LAUNCHER_CLUSTERS
	Clusters string `envconfig:"CLUSTERS"`

	// Image is the default container image.
	// Env: LAUNCHER_IMAGE
	Image string `envconfig:"IMAGE"`

	// Priority is the default job priority.
	// Env: LAUNCHER_PRIORITY (default: normal)
	Priority string `envconfig:"PRIORITY" default:"normal"`

	// Budget is the default budget account.
	// Env: LAUNCHER_BUDGET
	Budget string `envconfig:"BUDGET"`

	// Workspace is the default workspace.
	// Env: LAUNCHER_WORKSPACE
	Workspace string `envconfig:"WORKSPACE"`

	// GPUs is the default GPU count.
	// Env: LAUNCHER_GPUS (default: 1)
	GPUs int `envconfig:"GPUS" default:"1"`

	// Preemptible marks jobs preemptible by default.
	// Env: LAUNCHER_PREEMPTIBLE (default: false)
	Preemptible bool `envconfig:"PREEMPTIBLE" default:"false"`

	// PureDockerMode runs commands directly in the image by default.
	// Env: LAUNCHER_PURE_DOCKER_MODE (default: false)
	PureDockerMode bool `envconfig:"PURE_DOCKER_MODE" default:"false"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "SHARDRUN" would require SHARDRUN_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims whitespace and canonicalises enumerated values.
func (e EnvConfig) Normalize() EnvConfig {
	e.LogLevel = strings.ToUpper(strings.TrimSpace(e.LogLevel))
	e.LogFormat = strings.ToLower(strings.TrimSpace(e.LogFormat))
	e.DataDir = strings.TrimSpace(e.DataDir)
	e.DBURL = strings.TrimSpace(e.DBURL)
	e.RecipesFile = strings.TrimSpace(e.RecipesFile)
	e.Launcher.Command = strings.TrimSpace(e.Launcher.Command)
	e.Launcher.Priority = strings.TrimSpace(e.Launcher.Priority)
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseList(e.APIKeys)))
	}
	if e.RecipesFile != "" {
		cfg = applyOption(cfg, WithRecipesFile(e.RecipesFile))
	}
	cfg = applyOption(cfg, WithSubmitParallelism(e.SubmitParallelism))
	cfg = applyOption(cfg, WithLauncherConfig(e.Launcher.ToLauncherConfig()))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToLauncherConfig converts LauncherEnv to LauncherConfig.
func (l LauncherEnv) ToLauncherConfig() LauncherConfig {
	opts := []LauncherOption{
		WithDryRun(l.DryRun),
		WithClusters(ParseList(l.Clusters)),
		WithImage(l.Image),
		WithBudget(l.Budget),
		WithWorkspace(l.Workspace),
		WithPreemptible(l.Preemptible),
		WithPureDockerMode(l.PureDockerMode),
	}
	if l.Command != "" {
		opts = append(opts, WithLauncherCommand(l.Command))
	}
	if l.Timeout > 0 {
		opts = append(opts, WithLauncherTimeout(time.Duration(l.Timeout*float64(time.Second))))
	}
	if l.Priority != "" {
		opts = append(opts, WithPriority(l.Priority))
	}
	if l.GPUs > 0 {
		opts = append(opts, WithGPUs(l.GPUs))
	}
	return NewLauncherConfigWithOptions(opts...)
}

func parseLogFormat(s string) LogFormat {
	switch LogFormat(strings.ToLower(s)) {
	case LogFormatJSON:
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
