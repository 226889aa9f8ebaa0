// Package config loads the station configuration and initializes the
// global logger.
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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Recipes    RecipesConfig    `yaml:"recipes" mapstructure:"recipes"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the evaluation log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RecipesConfig locates the recipe files for this station.
type RecipesConfig struct {
	Dir   string `yaml:"dir" mapstructure:"dir"`
	Index string `yaml:"index" mapstructure:"index"`
}

// ClassifierConfig selects and tunes the scoring backends.
type ClassifierConfig struct {
	// Backend is the primary scorer: baseline | kernel | qscore.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Fallback is used when the primary fails or times out. Empty disables
	// the fallback decorator.
	Fallback string `yaml:"fallback" mapstructure:"fallback"`
	// TimeoutMS bounds one primary scoring call.
	TimeoutMS int `yaml:"timeout_ms" mapstructure:"timeout_ms"`

	// KernelGamma is the RBF width of the kernel backend.
	KernelGamma float64 `yaml:"kernel_gamma" mapstructure:"kernel_gamma"`

	QScore QScoreConfig `yaml:"qscore" mapstructure:"qscore"`
}

// QScoreConfig holds the quantum scoring service settings.
type QScoreConfig struct {
	URL        string  `yaml:"url" mapstructure:"url"`
	Key        string  `yaml:"key" mapstructure:"key"`
	ModelID    string  `yaml:"model_id" mapstructure:"model_id"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ServerConfig configures the evaluation HTTP API.
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
	v.SetEnvPrefix("RAMANQC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "raman_qc.db")
	v.SetDefault("recipes.dir", "recipes")
	v.SetDefault("recipes.index", "index.yaml")
	v.SetDefault("classifier.backend", "kernel")
	v.SetDefault("classifier.fallback", "baseline")
	v.SetDefault("classifier.timeout_ms", 2000)
	v.SetDefault("classifier.kernel_gamma", 1.0)
	v.SetDefault("classifier.qscore.url", "http://localhost:8741")
	v.SetDefault("classifier.qscore.model_id", "qsvm-default")
	v.SetDefault("classifier.qscore.rate_per_sec", 20)
	v.SetDefault("classifier.qscore.rate_burst", 5)
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
