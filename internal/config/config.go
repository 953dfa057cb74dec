package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sideline-ai/sideline/internal/domain/usage"
)

// Config holds the sideline API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	ESPN     ESPNConfig     `yaml:"espn"`
	AI       AIConfig       `yaml:"ai"`
	Budget   BudgetConfig   `yaml:"budget"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings. The database is
// optional: when addrs is empty, usage counters are kept in memory only.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ESPNConfig holds fantasy league access settings. ESPNS2 and SWID are the
// session cookies required for private leagues.
type ESPNConfig struct {
	LeagueID   int    `yaml:"league_id"`
	TeamID     int    `yaml:"team_id"`
	SeasonYear int    `yaml:"season_year"`
	ESPNS2     string `yaml:"espn_s2"`
	SWID       string `yaml:"swid"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// AIConfig holds model provider settings.
type AIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	ChatModel string `yaml:"chat_model"`
}

// BudgetConfig holds AI spend guard settings.
type BudgetConfig struct {
	HourlyLimitUSD float64                `yaml:"hourly_limit_usd"`
	Disabled       bool                   `yaml:"disabled"`
	Prices         map[string]PriceConfig `yaml:"prices"` // overrides built-in table when set
}

// PriceConfig holds per-1K-token pricing for one model.
type PriceConfig struct {
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "sideline:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.ESPN.BaseURL == "" {
		c.ESPN.BaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"
	}
	if c.ESPN.TimeoutSec <= 0 {
		c.ESPN.TimeoutSec = 20
	}
	if c.AI.ChatModel == "" {
		c.AI.ChatModel = "gpt-4o"
	}
	if c.Budget.HourlyLimitUSD == 0 && !c.Budget.Disabled {
		c.Budget.HourlyLimitUSD = 10.0
	}
}

// PriceTable returns the effective model price table: config overrides when
// set, the built-in table otherwise.
func (c *Config) PriceTable() usage.PriceTable {
	if len(c.Budget.Prices) == 0 {
		return usage.DefaultPrices()
	}
	table := make(usage.PriceTable, len(c.Budget.Prices))
	for model, p := range c.Budget.Prices {
		table[model] = usage.PerThousand{Input: p.InputPer1K, Output: p.OutputPer1K}
	}
	return table
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.ESPN.LeagueID <= 0 {
		return fmt.Errorf("espn.league_id is required")
	}
	if c.ESPN.SeasonYear <= 0 {
		return fmt.Errorf("espn.season_year is required")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	for model, p := range c.Budget.Prices {
		if p.InputPer1K < 0 || p.OutputPer1K < 0 {
			return fmt.Errorf("budget.prices.%s must be non-negative", model)
		}
	}
	if _, ok := c.PriceTable()[c.AI.ChatModel]; !ok {
		return fmt.Errorf("ai.chat_model %q has no price entry", c.AI.ChatModel)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
