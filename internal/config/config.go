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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Vision   VisionConfig   `yaml:"vision" mapstructure:"vision"`
	Semantic SemanticConfig `yaml:"semantic" mapstructure:"semantic"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the results database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// VisionConfig configures the text-recognition backends. Backends with an
// empty key are skipped by the waterfall.
type VisionConfig struct {
	Gemini       GeminiConfig       `yaml:"gemini" mapstructure:"gemini"`
	GoogleVision GoogleVisionConfig `yaml:"google_vision" mapstructure:"google_vision"`
	Yandex       YandexConfig       `yaml:"yandex" mapstructure:"yandex"`
	Tesseract    TesseractConfig    `yaml:"tesseract" mapstructure:"tesseract"`
	CloudRPS     float64            `yaml:"cloud_rps" mapstructure:"cloud_rps"`
}

// GeminiConfig holds the primary (multimodal) vision backend settings.
type GeminiConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// GoogleVisionConfig holds the secondary (document text detection) backend
// settings.
type GoogleVisionConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// YandexConfig holds the regional backend settings. Recognition is
// asynchronous: a submitted image yields an operation that is polled for
// completion.
type YandexConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	FolderID         string  `yaml:"folder_id" mapstructure:"folder_id"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Threshold        float64 `yaml:"threshold" mapstructure:"threshold"`
	PollCount        int     `yaml:"poll_count" mapstructure:"poll_count"`
	PollIntervalSecs int     `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
}

// TesseractConfig holds the local OCR settings.
type TesseractConfig struct {
	Languages   string `yaml:"languages" mapstructure:"languages"`
	TessdataDir string `yaml:"tessdata_dir" mapstructure:"tessdata_dir"`
}

// SemanticConfig holds the generative-text backend settings used for answer
// analysis and feedback.
type SemanticConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ExportConfig configures spreadsheet export.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
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
	v.SetEnvPrefix("USTOZIYA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential knobs get an explicit empty default: viper only
	// honors AutomaticEnv for keys it already knows about, so without these
	// an env-only deployment would silently lose its API keys.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ustoziya.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("export.dir", "exports")
	v.SetDefault("vision.cloud_rps", 5)
	v.SetDefault("vision.gemini.key", "")
	v.SetDefault("vision.gemini.model", "gemini-2.0-flash")
	v.SetDefault("vision.gemini.threshold", 0.80)
	v.SetDefault("vision.google_vision.key", "")
	v.SetDefault("vision.google_vision.threshold", 0.70)
	v.SetDefault("vision.yandex.key", "")
	v.SetDefault("vision.yandex.folder_id", "")
	v.SetDefault("vision.yandex.base_url", "https://ocr.api.cloud.yandex.net")
	v.SetDefault("vision.yandex.threshold", 0.70)
	v.SetDefault("vision.yandex.poll_count", 10)
	v.SetDefault("vision.yandex.poll_interval_secs", 1)
	v.SetDefault("vision.tesseract.languages", "uzb+eng")
	v.SetDefault("vision.tesseract.tessdata_dir", "")
	v.SetDefault("semantic.key", "")
	v.SetDefault("semantic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("semantic.max_tokens", 1024)
	v.SetDefault("semantic.temperature", 0.1)

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

// Validate checks configuration required for the given run mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkThreshold := func(name string, v float64) {
		if v < 0 || v > 1 {
			problems = append(problems, name+" must be between 0 and 1")
		}
	}
	checkThreshold("vision.gemini.threshold", c.Vision.Gemini.Threshold)
	checkThreshold("vision.google_vision.threshold", c.Vision.GoogleVision.Threshold)
	checkThreshold("vision.yandex.threshold", c.Vision.Yandex.Threshold)
	if c.Vision.Yandex.PollCount < 1 {
		problems = append(problems, "vision.yandex.poll_count must be >= 1")
	}
	if c.Vision.Yandex.PollIntervalSecs < 1 {
		problems = append(problems, "vision.yandex.poll_interval_secs must be >= 1")
	}

	switch mode {
	case "pipeline":
		// Local OCR needs no credentials, so an empty vision config is valid.
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "export":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
