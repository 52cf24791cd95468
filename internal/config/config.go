// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SerpAPI    SerpAPIConfig    `yaml:"serpapi" mapstructure:"serpapi"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	History    HistoryConfig    `yaml:"history" mapstructure:"history"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SerpAPIConfig holds SerpAPI credentials.
type SerpAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Engine  string `yaml:"engine" mapstructure:"engine"`
}

// SerperConfig holds Serper.dev credentials.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// SearchConfig configures the search stage.
type SearchConfig struct {
	SourcesFile   string `yaml:"sources_file" mapstructure:"sources_file"`
	TargetResults int    `yaml:"target_results" mapstructure:"target_results"`
	PerQuery      int    `yaml:"per_query" mapstructure:"per_query"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ExtractConfig configures the extraction stage.
type ExtractConfig struct {
	TargetArticles int      `yaml:"target_articles" mapstructure:"target_articles"`
	Workers        int      `yaml:"workers" mapstructure:"workers"`
	Method         string   `yaml:"method" mapstructure:"method"`
	Languages      []string `yaml:"languages" mapstructure:"languages"`
}

// PipelineConfig configures run behavior.
type PipelineConfig struct {
	ChainDepth int `yaml:"chain_depth" mapstructure:"chain_depth"`
	ChainCap   int `yaml:"chain_cap" mapstructure:"chain_cap"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
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
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.engine", "google")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("search.target_results", 10)
	v.SetDefault("search.per_query", 10)
	v.SetDefault("search.concurrency", 3)
	v.SetDefault("extract.target_articles", 5)
	v.SetDefault("extract.workers", 3)
	v.SetDefault("extract.method", "both")
	v.SetDefault("extract.languages", []string{"en"})
	v.SetDefault("pipeline.chain_depth", 5)
	v.SetDefault("pipeline.chain_cap", 10)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", "research-history.db")

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
