package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
history_size: 500
jobs_size: 4
log_level: debug
log_file: /tmp/tern.log.zst
log_clean: true
analytics: false
autocd: true
expand_env: false
prompt_color: false
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.HistorySize)
	assert.Equal(t, 4, cfg.JobsSize)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
	assert.Equal(t, "/tmp/tern.log.zst", cfg.LogFile)
	assert.True(t, cfg.LogClean)
	assert.False(t, cfg.Analytics)
	assert.True(t, cfg.Autocd)
	assert.False(t, cfg.ExpandEnv)
	assert.False(t, cfg.PromptColor)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "autocd: true\n"), true)
	require.NoError(t, err)
	assert.True(t, cfg.Autocd)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.True(t, cfg.Analytics)
	assert.True(t, cfg.ExpandEnv)
}

func TestLoadPresentKeysReplaceDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "analytics: false\nhistory_size: 0\n"), false)
	require.NoError(t, err)
	assert.False(t, cfg.Analytics)
	assert.Equal(t, 100, cfg.HistorySize)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0].Error(), "history_size must be at least 1")
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "zero history size",
			content: "history_size: 0\njobs_size: 3\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.HistorySize)
				assert.Equal(t, 3, cfg.JobsSize)
			},
		},
		{
			name:    "negative jobs size",
			content: "jobs_size: -2\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.JobsSize)
			},
		},
		{
			name:    "unknown log level",
			content: "log_level: loud\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
			},
		},
		{
			name:    "unknown key",
			content: "autocd: true\ncolour: red\n",
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Autocd)
			},
		},
		{
			name:    "wrong type",
			content: "history_size: lots\nautocd: true\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.HistorySize)
				assert.True(t, cfg.Autocd)
			},
		},
		{
			name:    "broken yaml",
			content: "history_size: [1\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.HistorySize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			cfg, err := Load(path, false)
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.Warnings)
			tt.check(t, cfg)

			_, err = Load(path, true)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "history_size: 50\nautocd: true\n")
	t.Setenv("TERN_HISTORY_SIZE", "7")
	t.Setenv("TERN_JOBS_SIZE", "2")
	t.Setenv("TERN_LOG_LEVEL", "warn")
	t.Setenv("TERN_AUTOCD", "off")
	t.Setenv("TERN_ANALYTICS", "no")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.HistorySize)
	assert.Equal(t, 2, cfg.JobsSize)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level())
	assert.False(t, cfg.Autocd)
	assert.False(t, cfg.Analytics)
}

func TestInvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("TERN_HISTORY_SIZE", "big")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.HistorySize)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0].Error(), "TERN_HISTORY_SIZE")

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIsTruthy(t *testing.T) {
	for _, val := range []string{"1", "true", "TRUE", "yes", "On", " on "} {
		assert.True(t, IsTruthy(val), val)
	}
	for _, val := range []string{"", "0", "false", "no", "off", "enabled"} {
		assert.False(t, IsTruthy(val), val)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.HistorySize = 42
	cfg.Autocd = true
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
