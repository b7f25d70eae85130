package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/llm"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/plaid"
	"github.com/Veraticus/kaikei/internal/sheets"
)

// EnvPrefix is the prefix for environment overrides, e.g. KAIKEI_THRESHOLD.
const EnvPrefix = "KAIKEI"

// Config is the immutable startup configuration.
type Config struct {
	Poll       PollConfig
	Classifier ClassifierConfig
	API        APIConfig
	Logging    LoggingConfig
	Plaid      plaid.Config
	Reasoning  llm.Config
	DataDir    string
	Sheets     sheets.Config
	Threshold  float64
}

// ClassifierConfig selects the classification strategy.
type ClassifierConfig struct {
	Strategy       model.Strategy
	RulesFile      string
	ModelPath      string
	VectorizerPath string
}

// PollConfig controls the scan-folder poller.
type PollConfig struct {
	// Folders overrides a tenant's base folder, keyed by tenant code.
	Folders  map[string]string
	Interval time.Duration
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	Listen     string
	AdminToken string
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.local/share/kaikei")
	v.SetDefault("threshold", 0.7)

	v.SetDefault("classifier.strategy", string(model.StrategyReasoning))
	v.SetDefault("classifier.rules_file", "")
	v.SetDefault("classifier.model_path", "")
	v.SetDefault("classifier.vectorizer_path", "")

	v.SetDefault("reasoning.provider", llm.ProviderOpenAI)
	v.SetDefault("reasoning.base_url", llm.DefaultOpenAIBaseURL)
	v.SetDefault("reasoning.model", "llama3.1")
	v.SetDefault("reasoning.api_key", "")
	v.SetDefault("reasoning.timeout", 30*time.Second)
	v.SetDefault("reasoning.cache_ttl", 5*time.Minute)
	v.SetDefault("reasoning.rate_limit", 60)
	v.SetDefault("reasoning.max_tokens", 300)

	v.SetDefault("poll.interval", 3*time.Minute)

	v.SetDefault("api.listen", "127.0.0.1:8000")
	v.SetDefault("api.admin_token", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("plaid.environment", "sandbox")

	sheetDefaults := sheets.DefaultConfig()
	v.SetDefault("sheets.range", sheetDefaults.Range)
	v.SetDefault("sheets.batch_size", sheetDefaults.BatchSize)
	v.SetDefault("sheets.retry_attempts", sheetDefaults.RetryAttempts)
	v.SetDefault("sheets.retry_delay", sheetDefaults.RetryDelay)
}

// LoadEnvFile loads a .env file into the process environment. An empty
// path tries ./.env and ignores its absence.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load reads v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	dataDir := ExpandPath(v.GetString("data_dir"))

	cfg := &Config{
		DataDir:   dataDir,
		Threshold: v.GetFloat64("threshold"),
		Classifier: ClassifierConfig{
			Strategy:       model.Strategy(v.GetString("classifier.strategy")),
			RulesFile:      ExpandPath(v.GetString("classifier.rules_file")),
			ModelPath:      pathOr(v.GetString("classifier.model_path"), filepath.Join(dataDir, "model", "bayes.gob")),
			VectorizerPath: pathOr(v.GetString("classifier.vectorizer_path"), filepath.Join(dataDir, "model", "vectorizer.json")),
		},
		Reasoning: llm.Config{
			Provider:  v.GetString("reasoning.provider"),
			BaseURL:   v.GetString("reasoning.base_url"),
			APIKey:    v.GetString("reasoning.api_key"),
			Model:     v.GetString("reasoning.model"),
			Timeout:   v.GetDuration("reasoning.timeout"),
			CacheTTL:  v.GetDuration("reasoning.cache_ttl"),
			RateLimit: v.GetInt("reasoning.rate_limit"),
			MaxTokens: v.GetInt("reasoning.max_tokens"),
		},
		Poll: PollConfig{
			Interval: v.GetDuration("poll.interval"),
			Folders:  expandAll(v.GetStringMapString("poll.folders")),
		},
		API: APIConfig{
			Listen:     v.GetString("api.listen"),
			AdminToken: v.GetString("api.admin_token"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Plaid: plaid.Config{
			ClientID:    v.GetString("plaid.client_id"),
			Secret:      v.GetString("plaid.secret"),
			Environment: v.GetString("plaid.environment"),
			AccessToken: v.GetString("plaid.access_token"),
		},
		Sheets: sheets.Config{
			ClientID:           v.GetString("sheets.client_id"),
			ClientSecret:       v.GetString("sheets.client_secret"),
			RefreshToken:       v.GetString("sheets.refresh_token"),
			ServiceAccountPath: ExpandPath(v.GetString("sheets.service_account_path")),
			SpreadsheetID:      v.GetString("sheets.spreadsheet_id"),
			Range:              v.GetString("sheets.range"),
			BatchSize:          v.GetInt("sheets.batch_size"),
			RetryAttempts:      v.GetInt("sheets.retry_attempts"),
			RetryDelay:         v.GetDuration("sheets.retry_delay"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command depends on. Feed and export
// credentials are checked by the commands that use them.
func (c *Config) Validate() error {
	var errs []error

	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("%w: threshold %.2f outside [0,1]", common.ErrInvalidConfig, c.Threshold))
	}
	if !c.Classifier.Strategy.Valid() {
		errs = append(errs, fmt.Errorf("%w: classifier.strategy must be rule, local or reasoning, got %q", common.ErrInvalidConfig, c.Classifier.Strategy))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: poll.interval must be positive", common.ErrInvalidConfig))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%w: data_dir", common.ErrMissingConfig))
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DirectoryPath is the tenant registry database.
func (c *Config) DirectoryPath() string {
	return filepath.Join(c.DataDir, "tenants.db")
}

// LedgerDir holds one database per tenant.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.DataDir, "ledgers")
}

// StatePath is the bbolt file for examples and processed documents.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return ExpandPath(path)
}

func expandAll(folders map[string]string) map[string]string {
	out := make(map[string]string, len(folders))
	for code, folder := range folders {
		out[code] = ExpandPath(folder)
	}
	return out
}
