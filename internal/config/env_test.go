package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "", cfg.APIKeys)
	assert.Equal(t, 4, cfg.SubmitParallelism)

	assert.Equal(t, "python mason.py", cfg.Launcher.Command)
	assert.False(t, cfg.Launcher.DryRun)
	assert.Equal(t, 600.0, cfg.Launcher.Timeout)
	assert.Equal(t, "normal", cfg.Launcher.Priority)
	assert.Equal(t, 1, cfg.Launcher.GPUs)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals; keep them in sync with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultSubmitParallelism, cfg.SubmitParallelism)
	assert.Equal(t, DefaultLauncherCommand, cfg.Launcher.Command)
	assert.Equal(t, DefaultLauncherTimeout, time.Duration(cfg.Launcher.Timeout*float64(time.Second)))
	assert.Equal(t, DefaultLauncherPriority, cfg.Launcher.Priority)
	assert.Equal(t, DefaultLauncherGPUs, cfg.Launcher.GPUs)
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/srv/shardrun")
	t.Setenv("API_KEYS", "a,b")
	t.Setenv("SUBMIT_PARALLELISM", "12")
	t.Setenv("RECIPES_FILE", "/etc/shardrun/recipes.yaml")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/srv/shardrun", cfg.DataDir)
	assert.Equal(t, "a,b", cfg.APIKeys)
	assert.Equal(t, 12, cfg.SubmitParallelism)
	assert.Equal(t, "/etc/shardrun/recipes.yaml", cfg.RecipesFile)
}

func TestLoadFromEnv_Launcher(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("LAUNCHER_COMMAND", "mason")
	t.Setenv("LAUNCHER_DRY_RUN", "true")
	t.Setenv("LAUNCHER_TIMEOUT", "30")
	t.Setenv("LAUNCHER_CLUSTERS", "ai2/allennlp-cirrascale,ai2/pluto-cirrascale")
	t.Setenv("LAUNCHER_IMAGE", "costah/open_instruct_rs")
	t.Setenv("LAUNCHER_BUDGET", "ai2/allennlp")
	t.Setenv("LAUNCHER_WORKSPACE", "ai2/tulu")
	t.Setenv("LAUNCHER_GPUS", "8")
	t.Setenv("LAUNCHER_PREEMPTIBLE", "true")
	t.Setenv("LAUNCHER_PURE_DOCKER_MODE", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	l := cfg.Launcher.ToLauncherConfig()
	assert.Equal(t, "mason", l.Command())
	assert.True(t, l.DryRun())
	assert.Equal(t, 30*time.Second, l.Timeout())
	assert.Equal(t, []string{"ai2/allennlp-cirrascale", "ai2/pluto-cirrascale"}, l.Clusters())
	assert.Equal(t, "costah/open_instruct_rs", l.Image())
	assert.Equal(t, "ai2/allennlp", l.Budget())
	assert.Equal(t, "ai2/tulu", l.Workspace())
	assert.Equal(t, 8, l.GPUs())
	assert.True(t, l.Preemptible())
	assert.True(t, l.PureDockerMode())
}

func TestLoadFromEnv_InvalidNumber(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "not-a-number")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	env := EnvConfig{
		Host:              "localhost",
		Port:              3000,
		DataDir:           "/data",
		LogLevel:          " debug ",
		LogFormat:         "JSON",
		APIKeys:           "key1, key2",
		SubmitParallelism: 2,
		Launcher:          LauncherEnv{Command: "mason", DryRun: true},
	}

	cfg := env.Normalize().ToAppConfig()

	assert.Equal(t, "localhost:3000", cfg.Addr())
	assert.Equal(t, "/data", cfg.DataDir())
	assert.Equal(t, DefaultDBURL("/data"), cfg.DBURL())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, []string{"key1", "key2"}, cfg.APIKeys())
	assert.Equal(t, 2, cfg.SubmitParallelism())
	assert.Equal(t, "mason", cfg.Launcher().Command())
	assert.True(t, cfg.Launcher().DryRun())
	assert.Equal(t, DefaultLauncherTimeout, cfg.Launcher().Timeout())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		in   string
		want LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"anything", LogFormatPretty},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogFormat(tt.in))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATA_DIR=/from/dotenv\nLOG_LEVEL=DEBUG\nAPI_KEYS=key1,key2\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "/from/dotenv", os.Getenv("DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "key1,key2", os.Getenv("API_KEYS"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATA_DIR=/config/data\nLOG_LEVEL=warn\nLAUNCHER_DRY_RUN=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.True(t, cfg.Launcher().DryRun())
}

func TestOverloadDotEnvFromFiles(t *testing.T) {
	tmpDir := t.TempDir()

	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	require.NoError(t, OverloadDotEnvFromFiles(env1, filepath.Join(tmpDir, "missing"), env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "override", os.Getenv("KEY2"))
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

// clearEnvVars unsets all config-related environment variables and restores
// them when the test ends.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"DATA_DIR",
		"DB_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"API_KEYS",
		"RECIPES_FILE",
		"SUBMIT_PARALLELISM",
		"LAUNCHER_COMMAND",
		"LAUNCHER_DRY_RUN",
		"LAUNCHER_TIMEOUT",
		"LAUNCHER_CLUSTERS",
		"LAUNCHER_IMAGE",
		"LAUNCHER_PRIORITY",
		"LAUNCHER_BUDGET",
		"LAUNCHER_WORKSPACE",
		"LAUNCHER_GPUS",
		"LAUNCHER_PREEMPTIBLE",
		"LAUNCHER_PURE_DOCKER_MODE",
		"KEY1",
		"KEY2",
		"KEY3",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}
