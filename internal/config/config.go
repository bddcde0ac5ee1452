// Package config loads application configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Leads     LeadsConfig     `yaml:"leads" mapstructure:"leads"`
	Sheets    SheetsConfig    `yaml:"sheets" mapstructure:"sheets"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Gmail     GmailConfig     `yaml:"gmail" mapstructure:"gmail"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LeadsConfig selects the lead-table backend, "sheets" or "notion".
type LeadsConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
}

// SheetsConfig holds the Google Sheets lead-table settings. The access token
// comes from the caller's OAuth session; it is configured here only for CLI
// use.
type SheetsConfig struct {
	AccessToken   string `yaml:"access_token" mapstructure:"access_token"`
	SpreadsheetID string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	LeadTab       string `yaml:"lead_tab" mapstructure:"lead_tab"`
}

// NotionConfig holds the optional Notion lead-table backend.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	LeadDB   string `yaml:"lead_db" mapstructure:"lead_db"`
	PromptDB string `yaml:"prompt_db" mapstructure:"prompt_db"`
	ConfigDB string `yaml:"config_db" mapstructure:"config_db"`
	LogDB    string `yaml:"log_db" mapstructure:"log_db"`
}

// GmailConfig holds the Gmail send settings. When AccessToken is empty the
// Sheets token is reused; a single Google OAuth grant usually covers both
// scopes.
type GmailConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// DiscoveryConfig tunes the lead-discovery pipeline. Delays are courtesy
// pauses around third-party site fetches.
type DiscoveryConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	RetryBackoffSecs int `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
	PreFetchDelayMs  int `yaml:"pre_fetch_delay_ms" mapstructure:"pre_fetch_delay_ms"`
	PostFetchDelayMs int `yaml:"post_fetch_delay_ms" mapstructure:"post_fetch_delay_ms"`
}

// FetchTimeout returns the per-fetch deadline as a Duration.
func (c DiscoveryConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// RetryBackoff returns the delay before the single fetch retry.
func (c DiscoveryConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSecs) * time.Second
}

// PreFetchDelay returns the courtesy pause before each fetch.
func (c DiscoveryConfig) PreFetchDelay() time.Duration {
	return time.Duration(c.PreFetchDelayMs) * time.Millisecond
}

// PostFetchDelay returns the courtesy pause after each fetch.
func (c DiscoveryConfig) PostFetchDelay() time.Duration {
	return time.Duration(c.PostFetchDelayMs) * time.Millisecond
}

// OutreachConfig tunes the outreach pipeline.
type OutreachConfig struct {
	Quota            int `yaml:"quota" mapstructure:"quota"`
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	RetryBackoffSecs int `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
	InterRowDelayMs  int `yaml:"inter_row_delay_ms" mapstructure:"inter_row_delay_ms"`
}

// FetchTimeout returns the per-fetch deadline as a Duration.
func (c OutreachConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// RetryBackoff returns the delay before the single fetch retry.
func (c OutreachConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSecs) * time.Second
}

// InterRowDelay returns the pause between outbound sends.
func (c OutreachConfig) InterRowDelay() time.Duration {
	return time.Duration(c.InterRowDelayMs) * time.Millisecond
}

// ServerConfig configures the workflow HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("leads.driver", "sheets")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sheets.lead_tab", "LEADS")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("discovery.fetch_timeout_secs", 10)
	v.SetDefault("discovery.retry_backoff_secs", 1)
	v.SetDefault("discovery.pre_fetch_delay_ms", 1000)
	v.SetDefault("discovery.post_fetch_delay_ms", 500)
	v.SetDefault("outreach.quota", 10)
	v.SetDefault("outreach.fetch_timeout_secs", 15)
	v.SetDefault("outreach.retry_backoff_secs", 2)
	v.SetDefault("outreach.inter_row_delay_ms", 1000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
