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
	Store          StoreConfig          `yaml:"store" mapstructure:"store"`
	Workflow       WorkflowConfig       `yaml:"workflow" mapstructure:"workflow"`
	Reconcile      ReconcileConfig      `yaml:"reconcile" mapstructure:"reconcile"`
	Zola           ZolaConfig           `yaml:"zola" mapstructure:"zola"`
	Acris          AcrisConfig          `yaml:"acris" mapstructure:"acris"`
	PropertyShark  PropertySharkConfig  `yaml:"propertyshark" mapstructure:"propertyshark"`
	OpenCorporates OpenCorporatesConfig `yaml:"opencorporates" mapstructure:"opencorporates"`
	SkipGenie      SkipTraceConfig      `yaml:"skipgenie" mapstructure:"skipgenie"`
	TruePeople     SkipTraceConfig      `yaml:"truepeoplesearch" mapstructure:"truepeoplesearch"`
	Twilio         TwilioConfig         `yaml:"twilio" mapstructure:"twilio"`
	Anthropic      AnthropicConfig      `yaml:"anthropic" mapstructure:"anthropic"`
	Sinks          SinksConfig          `yaml:"sinks" mapstructure:"sinks"`
	Batch          BatchConfig          `yaml:"batch" mapstructure:"batch"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WorkflowConfig configures engine execution bounds.
type WorkflowConfig struct {
	StepTimeoutSecs int `yaml:"step_timeout_secs" mapstructure:"step_timeout_secs"`
	RunTimeoutSecs  int `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// ReconcileConfig configures evidence reconciliation.
type ReconcileConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MinSubstringLength  int     `yaml:"min_substring_length" mapstructure:"min_substring_length"`
	CorroborationCount  int     `yaml:"corroboration_count" mapstructure:"corroboration_count"`

	// SourcesFile points at a YAML source registry overriding the built-in
	// authority and priority lists.
	SourcesFile string `yaml:"sources_file" mapstructure:"sources_file"`
}

// ZolaConfig holds ZoLa lookup settings.
type ZolaConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// AcrisConfig holds ACRIS records search settings.
type AcrisConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PropertySharkConfig holds PropertyShark API settings.
type PropertySharkConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenCorporatesConfig holds OpenCorporates API settings.
type OpenCorporatesConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SkipTraceConfig holds one people-search provider's settings.
type SkipTraceConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// TwilioConfig holds Twilio Lookup credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
}

// AnthropicConfig holds document extraction model settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SinksConfig configures result delivery.
type SinksConfig struct {
	XLSXDir string       `yaml:"xlsx_dir" mapstructure:"xlsx_dir"`
	FTP     FTPConfig    `yaml:"ftp" mapstructure:"ftp"`
	Notion  NotionConfig `yaml:"notion" mapstructure:"notion"`
}

// FTPConfig holds the FTP drop settings. An empty host disables the sink.
type FTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
}

// NotionConfig holds the Notion database settings. An empty token disables
// the sink.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DatabaseID string `yaml:"database_id" mapstructure:"database_id"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentAddresses int `yaml:"max_concurrent_addresses" mapstructure:"max_concurrent_addresses"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "research.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_addresses", 5)
	v.SetDefault("workflow.step_timeout_secs", 60)
	v.SetDefault("workflow.run_timeout_secs", 600)
	v.SetDefault("reconcile.similarity_threshold", 0.95)
	v.SetDefault("reconcile.min_substring_length", 5)
	v.SetDefault("reconcile.corroboration_count", 2)
	v.SetDefault("zola.base_url", "https://zola.planning.nyc.gov")
	v.SetDefault("zola.rps", 2.0)
	v.SetDefault("acris.base_url", "https://a836-acris.nyc.gov")
	v.SetDefault("acris.rps", 1.0)
	v.SetDefault("propertyshark.base_url", "https://api.propertyshark.com/v1")
	v.SetDefault("opencorporates.base_url", "https://api.opencorporates.com/v0.4")
	v.SetDefault("skipgenie.base_url", "https://api.skipgenie.com/v1")
	v.SetDefault("skipgenie.enabled", true)
	v.SetDefault("truepeoplesearch.base_url", "https://api.truepeoplesearch.com/v1")
	v.SetDefault("truepeoplesearch.enabled", true)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("sinks.xlsx_dir", ".")

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
