// Package config loads deepresearch settings from the environment, dotenv
// files and an optional deepresearch.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shikanime-studio/deepresearch/internal/hyperparams"
	"github.com/shikanime-studio/deepresearch/internal/llm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrUnknownModel is returned when a configured model ID is not in the catalog.
var ErrUnknownModel = errors.New("config: unknown model")

// Search providers accepted by search_provider.
const (
	SearchProviderFirecrawl = "firecrawl"
	SearchProviderOpenAI    = "openai"
	SearchProviderGemini    = "gemini"
)

// dotenvFiles are loaded in order; earlier files win.
var dotenvFiles = []string{".env.local", ".env"}

type Config struct {
	v *viper.Viper
}

// New constructs a Config, loading dotenv files, initializing defaults,
// binding environment variables and reading the optional configuration file.
func New() *Config {
	for _, f := range dotenvFiles {
		if err := loadDotEnv(f); err != nil {
			slog.Warn("failed to load dotenv file", "path", f, "err", err)
		}
	}

	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_source", false)
	v.SetDefault("log_file", "")
	v.SetDefault("llm_model", llm.GPT4o.ID)
	v.SetDefault("search_provider", SearchProviderGemini)
	v.SetDefault("search_model", llm.Gemini20Flash.ID)
	v.SetDefault("search_context_size", "")
	v.SetDefault("firecrawl_limit", 3)
	v.SetDefault("num_refinement_questions", 3)
	v.SetDefault("num_learnings", 3)
	v.SetDefault("learning_width", 3)
	v.SetDefault("learning_depth", 2)
	v.SetDefault("request_timeout", llm.DefaultTimeout)
	v.SetDefault("requests_per_minute", 0)
	v.SetDefault("concurrency", 1)

	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "LOG_FORMAT")
	_ = v.BindEnv("log_source", "LOG_SOURCE")
	_ = v.BindEnv("log_file", "LOG_FILE")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("firecrawl_api_key", "FIRECRAWL_API_KEY")

	v.SetEnvPrefix("deepresearch")
	v.AutomaticEnv()

	v.SetConfigName("deepresearch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "deepresearch"))
	}
	_ = v.ReadInConfig()
	return &Config{v: v}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// BindFlag lets a command line flag override key when it is set.
func (c *Config) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("bind %s: flag not found", key)
	}
	return c.v.BindPFlag(key, f)
}

// LogLevel returns the configured slog level, defaulting to info when unset or
// unknown.
func (c *Config) LogLevel() slog.Level {
	switch c.v.GetString("log_level") {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat returns the desired log format ("json" or "text"), falling back to
// "text" for unknown values.
func (c *Config) LogFormat() string {
	switch c.v.GetString("log_format") {
	case "json":
		return "json"
	default:
		return "text"
	}
}

// LogSource reports whether log records should include source location.
func (c *Config) LogSource() bool {
	return c.v.GetBool("log_source")
}

// LogFile is the path of the debug log file, empty when disabled.
func (c *Config) LogFile() string {
	return c.v.GetString("log_file")
}

func (c *Config) OpenAIAPIKey() string {
	return c.v.GetString("openai_api_key")
}

func (c *Config) GeminiAPIKey() string {
	return c.v.GetString("gemini_api_key")
}

func (c *Config) FirecrawlAPIKey() string {
	return c.v.GetString("firecrawl_api_key")
}

// LLMModel returns the catalog entry used for generation.
func (c *Config) LLMModel() (llm.Model, error) {
	return lookupModel(c.v.GetString("llm_model"))
}

// SearchProvider returns one of firecrawl, openai or gemini. Unknown values
// fall back to gemini.
func (c *Config) SearchProvider() string {
	switch p := strings.ToLower(c.v.GetString("search_provider")); p {
	case SearchProviderFirecrawl, SearchProviderOpenAI, SearchProviderGemini:
		return p
	default:
		slog.Warn("unknown search provider, using gemini", "provider", p)
		return SearchProviderGemini
	}
}

// SearchModel returns the catalog entry used by LLM crawlers.
func (c *Config) SearchModel() (llm.Model, error) {
	return lookupModel(c.v.GetString("search_model"))
}

func (c *Config) SearchContextSize() string {
	return strings.ToLower(c.v.GetString("search_context_size"))
}

func (c *Config) FirecrawlLimit() int {
	return c.v.GetInt("firecrawl_limit")
}

// HyperParameters builds the research breadth and depth, clamping depth to
// what the width allows.
func (c *Config) HyperParameters() *hyperparams.HyperParameters {
	return hyperparams.New(
		c.v.GetInt("num_refinement_questions"),
		c.v.GetInt("num_learnings"),
		c.v.GetInt("learning_width"),
		c.v.GetInt("learning_depth"),
	)
}

// RequestTimeout bounds each LLM call.
func (c *Config) RequestTimeout() time.Duration {
	return c.v.GetDuration("request_timeout")
}

// RequestsPerMinute caps LLM and search calls; 0 means unlimited.
func (c *Config) RequestsPerMinute() int {
	return c.v.GetInt("requests_per_minute")
}

// Concurrency is the number of sibling SERP queries run at once.
func (c *Config) Concurrency() int {
	if n := c.v.GetInt("concurrency"); n > 0 {
		return n
	}
	return 1
}

func lookupModel(id string) (llm.Model, error) {
	m, ok := llm.LookupModel(id)
	if !ok {
		return llm.Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return m, nil
}
