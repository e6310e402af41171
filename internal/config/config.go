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
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Manifest ManifestConfig `yaml:"manifest" mapstructure:"manifest"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures where archives come from and where they are cached.
type SourceConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Folder        string `yaml:"folder" mapstructure:"folder"`
	CacheFilename string `yaml:"cache_filename" mapstructure:"cache_filename"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	// Concurrency bounds parallel archive downloads. 1 downloads sequentially.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Timeout returns the per-request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// ManifestConfig configures the SQLite archive manifest. An empty path disables it.
type ManifestConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures dataset exports.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ServerConfig configures the read-only HTTP API.
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
	v.SetEnvPrefix("IZV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "https://ehw.fit.vutbr.cz/izv/")
	v.SetDefault("source.folder", "data")
	v.SetDefault("source.cache_filename", "data_{region}.gob.gz")
	v.SetDefault("source.user_agent", "izv-data/1.0")
	v.SetDefault("source.timeout_secs", 60)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.concurrency", 1)
	v.SetDefault("manifest.path", "data/manifest.db")
	v.SetDefault("export.database_url", "")
	v.SetDefault("export.table", "accidents")
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

// Validate checks the settings a command mode depends on. Modes: "load",
// "postgres" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "load", "postgres", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Source.BaseURL == "" {
		errs = append(errs, "source.base_url is required")
	}
	if c.Source.Folder == "" {
		errs = append(errs, "source.folder is required")
	}
	if !strings.Contains(c.Source.CacheFilename, "{region}") {
		errs = append(errs, "source.cache_filename must contain {region}")
	}
	if c.Source.Concurrency < 1 || c.Source.Concurrency > 16 {
		errs = append(errs, "source.concurrency must be between 1 and 16")
	}

	switch mode {
	case "postgres":
		if c.Export.DatabaseURL == "" {
			errs = append(errs, "export.database_url is required")
		}
		if c.Export.Table == "" {
			errs = append(errs, "export.table is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
