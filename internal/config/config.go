// Package config loads certprep configuration from defaults, an optional
// certprep.yaml file and CERTPREP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/certprep/internal/cache"
	"github.com/abhisek/certprep/internal/drill"
	"github.com/abhisek/certprep/internal/llm"
	"github.com/abhisek/certprep/internal/logging"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
	"github.com/abhisek/certprep/internal/store"
)

// EnvPrefix is prepended to every environment override, e.g.
// CERTPREP_STORE_DRIVER.
const EnvPrefix = "CERTPREP"

// Config holds all configuration for certprep.
type Config struct {
	// Learner is the learner id used by the CLI commands.
	Learner string `mapstructure:"learner"`

	Store     StoreConfig      `mapstructure:"store"`
	Log       logging.Config   `mapstructure:"log"`
	Drill     DrillConfig      `mapstructure:"drill"`
	Server    ServerConfig     `mapstructure:"server"`
	Cache     cache.Config     `mapstructure:"cache"`
	LLM       llm.Config       `mapstructure:"llm"`
	Readiness readiness.Config `mapstructure:"readiness"`
	PassProb  passprob.Config  `mapstructure:"pass_probability"`
}

// StoreConfig selects the attempt-history database.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// DSN is the data source name. Empty means the default SQLite file.
	DSN string `mapstructure:"dsn"`
}

// DrillConfig holds defaults for terminal drill sessions.
type DrillConfig struct {
	Module    string        `mapstructure:"module"`
	Questions int           `mapstructure:"questions"`
	TimeLimit time.Duration `mapstructure:"time_limit"`
	BoostSize int           `mapstructure:"boost_size"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load reads configuration. When path is empty, certprep.yaml is searched
// in the working directory and the user config directory; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("certprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := userConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// With no explicit provider, fall back to whichever vendor key is set.
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderNone
		if found, ok := llm.DiscoverConfig(); ok {
			cfg.LLM.Provider = found.Provider
			cfg.LLM.Anthropic.APIKey = orDefault(cfg.LLM.Anthropic.APIKey, found.Anthropic.APIKey)
			cfg.LLM.OpenAI.APIKey = orDefault(cfg.LLM.OpenAI.APIKey, found.OpenAI.APIKey)
			cfg.LLM.Gemini.APIKey = orDefault(cfg.LLM.Gemini.APIKey, found.Gemini.APIKey)
			cfg.LLM.OpenRouter.APIKey = orDefault(cfg.LLM.OpenRouter.APIKey, found.OpenRouter.APIKey)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Drill.Questions < 0 {
		return fmt.Errorf("drill.questions must not be negative")
	}
	if c.Drill.TimeLimit < 0 {
		return fmt.Errorf("drill.time_limit must not be negative")
	}
	switch c.Cache.Backend {
	case "", "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if err := c.Readiness.Weights.Validate(); err != nil {
		return fmt.Errorf("readiness: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// ResolveDSN returns the configured DSN or, for SQLite, the default
// database file path.
func (s StoreConfig) ResolveDSN() (string, error) {
	if s.DSN != "" {
		return s.DSN, nil
	}
	if s.Driver != "" && s.Driver != store.DriverSQLite {
		return "", fmt.Errorf("store.dsn is required for driver %q", s.Driver)
	}
	return store.DefaultDBPath()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("learner", "default")

	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)

	v.SetDefault("drill.module", "")
	v.SetDefault("drill.questions", drill.DefaultQuestionCount)
	v.SetDefault("drill.time_limit", time.Duration(0))
	v.SetDefault("drill.boost_size", 10)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.prefix", "certprep:")

	llmDef := llm.DefaultConfig()
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", llmDef.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", llmDef.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", llmDef.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", llmDef.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", llmDef.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", llmDef.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", llmDef.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", llmDef.Retry.Multiplier)
	v.SetDefault("llm.timeout", llmDef.Timeout)

	rd := readiness.DefaultConfig()
	v.SetDefault("readiness.weights.knowledge", rd.Weights.Knowledge)
	v.SetDefault("readiness.weights.skills", rd.Weights.Skills)
	v.SetDefault("readiness.weights.test_readiness", rd.Weights.TestReadiness)
	v.SetDefault("readiness.weights.consistency", rd.Weights.Consistency)
	v.SetDefault("readiness.weights.experience", rd.Weights.Experience)
	v.SetDefault("readiness.pass_threshold", rd.PassThreshold)

	pp := passprob.DefaultConfig()
	v.SetDefault("pass_probability.target_response_ms", pp.TargetResponseMs)
	v.SetDefault("pass_probability.ready_accuracy", pp.ReadyAccuracy)
	v.SetDefault("pass_probability.ready_probability", pp.ReadyProbability)
	v.SetDefault("pass_probability.recency_half_life_days", pp.RecencyHalfLifeDays)
	v.SetDefault("pass_probability.weak_concept_limit", pp.WeakConceptLimit)
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "certprep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "certprep")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
