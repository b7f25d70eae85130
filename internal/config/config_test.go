package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	v := newViper(t, "data_dir: /tmp/kaikei\n")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Threshold)
	assert.Equal(t, model.StrategyReasoning, cfg.Classifier.Strategy)
	assert.Equal(t, 3*time.Minute, cfg.Poll.Interval)
	assert.Equal(t, 30*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, "/tmp/kaikei/tenants.db", cfg.DirectoryPath())
	assert.Equal(t, "/tmp/kaikei/ledgers", cfg.LedgerDir())
	assert.Equal(t, "/tmp/kaikei/state.db", cfg.StatePath())
	assert.Equal(t, "/tmp/kaikei/model/bayes.gob", cfg.Classifier.ModelPath)
	assert.Equal(t, "Journal!A1", cfg.Sheets.Range)
}

func TestLoad_FromFile(t *testing.T) {
	v := newViper(t, `
data_dir: /srv/kaikei
threshold: 0.85
classifier:
  strategy: rule
  rules_file: /etc/kaikei/rules.yaml
reasoning:
  provider: gemini
  model: gemini-2.0-flash
  timeout: 10s
poll:
  interval: 1m
  folders:
    acme: /scans/acme
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.Threshold)
	assert.Equal(t, model.StrategyRule, cfg.Classifier.Strategy)
	assert.Equal(t, "/etc/kaikei/rules.yaml", cfg.Classifier.RulesFile)
	assert.Equal(t, "gemini", cfg.Reasoning.Provider)
	assert.Equal(t, 10*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, time.Minute, cfg.Poll.Interval)
	assert.Equal(t, map[string]string{"acme": "/scans/acme"}, cfg.Poll.Folders)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KAIKEI_THRESHOLD", "0.9")

	v := newViper(t, "data_dir: /tmp/kaikei\n")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Threshold)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{name: "threshold above one", yaml: "threshold: 1.5\n", errMsg: "threshold"},
		{name: "negative threshold", yaml: "threshold: -0.1\n", errMsg: "threshold"},
		{name: "unknown strategy", yaml: "classifier:\n  strategy: oracle\n", errMsg: "classifier.strategy"},
		{name: "zero interval", yaml: "poll:\n  interval: 0s\n", errMsg: "poll.interval"},
		{name: "bad log level", yaml: "logging:\n  level: loud\n", errMsg: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KAIKEI_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("KAIKEI_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("KAIKEI_TEST_DOTENV"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("KAIKEI_TEST_DOTENV"))

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("KAIKEI_TEST_DIR", "/opt/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/scans", want: filepath.Join(home, "scans")},
		{in: "$KAIKEI_TEST_DIR/ledgers", want: "/opt/data/ledgers"},
		{in: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
