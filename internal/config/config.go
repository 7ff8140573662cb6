package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/outreach-cli/internal/kb"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Scraper  ScraperConfig  `yaml:"scraper" mapstructure:"scraper"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the knowledge-base backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	Path        string        `yaml:"path" mapstructure:"path"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        kb.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// LLMConfig holds the local inference server settings.
type LLMConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScraperConfig configures the browser session.
type ScraperConfig struct {
	AuthCookie    string `yaml:"auth_cookie" mapstructure:"auth_cookie"`
	Headless      bool   `yaml:"headless" mapstructure:"headless"`
	RateLimitSecs int    `yaml:"rate_limit_secs" mapstructure:"rate_limit_secs"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OutreachConfig configures campaign generation.
type OutreachConfig struct {
	// Offering describes what the sender sells. It shapes prompts and
	// similar-prospect matching.
	Offering string `yaml:"offering" mapstructure:"offering"`
	// KeywordsFile optionally points at a YAML file overriding the
	// offering-type keyword lists.
	KeywordsFile string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "outreach.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("llm.base_url", "http://localhost:8000")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.rate_limit_secs", 4)
	v.SetDefault("scraper.timeout_secs", 90)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
