// Package config loads the g2pd service configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides (G2PD_ADDR, G2PD_REMOTE_URL, ...).
const EnvPrefix = "G2PD"

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr           string `json:"addr" yaml:"addr" toml:"addr" mapstructure:"addr"`
	Catalog        string `json:"catalog" yaml:"catalog" toml:"catalog" mapstructure:"catalog"`
	ModelsDir      string `json:"models_dir" yaml:"models_dir" toml:"models_dir" mapstructure:"models_dir"`
	ModelsFamily   string `json:"models_family" yaml:"models_family" toml:"models_family" mapstructure:"models_family"`
	Family         string `json:"family" yaml:"family" toml:"family" mapstructure:"family"`
	DefaultVariant string `json:"default_variant" yaml:"default_variant" toml:"default_variant" mapstructure:"default_variant"`

	GraphemeField string `json:"grapheme_field" yaml:"grapheme_field" toml:"grapheme_field" mapstructure:"grapheme_field"`
	PredField     string `json:"pred_field" yaml:"pred_field" toml:"pred_field" mapstructure:"pred_field"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size" toml:"batch_size" mapstructure:"batch_size"`
	NumWorkers    int    `json:"num_workers" yaml:"num_workers" toml:"num_workers" mapstructure:"num_workers"`

	MaxQueueDepth         int    `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" mapstructure:"max_queue_depth"`
	MaxWaitSeconds        int    `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds" mapstructure:"max_wait_seconds"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	MaxBodyBytes          int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" mapstructure:"max_body_bytes"`
	LogLevel              string `json:"log_level" yaml:"log_level" toml:"log_level" mapstructure:"log_level"`
	// AllowedRoot confines the manifest and output paths of HTTP conversions.
	AllowedRoot string `json:"allowed_root" yaml:"allowed_root" toml:"allowed_root" mapstructure:"allowed_root"`

	Remote  RemoteConfig  `json:"remote" yaml:"remote" toml:"remote" mapstructure:"remote"`
	OpenAI  OpenAIConfig  `json:"openai" yaml:"openai" toml:"openai" mapstructure:"openai"`
	Llama   LlamaConfig   `json:"llama" yaml:"llama" toml:"llama" mapstructure:"llama"`
	Lexicon LexiconConfig `json:"lexicon" yaml:"lexicon" toml:"lexicon" mapstructure:"lexicon"`
}

// RemoteConfig configures the remote HTTP backend.
type RemoteConfig struct {
	URL            string  `json:"url" yaml:"url" toml:"url" mapstructure:"url"`
	APIKey         string  `json:"api_key" yaml:"api_key" toml:"api_key" mapstructure:"api_key"`
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RPS            float64 `json:"rps" yaml:"rps" toml:"rps" mapstructure:"rps"`
	Burst          int     `json:"burst" yaml:"burst" toml:"burst" mapstructure:"burst"`
}

// OpenAIConfig configures the chat-completions backend.
type OpenAIConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key" mapstructure:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url" mapstructure:"base_url"`
	Model   string `json:"model" yaml:"model" toml:"model" mapstructure:"model"`
}

// LlamaConfig configures the in-process llama.cpp backend.
type LlamaConfig struct {
	CtxSize int `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size" mapstructure:"ctx_size"`
	Threads int `json:"threads" yaml:"threads" toml:"threads" mapstructure:"threads"`
}

// LexiconConfig configures the pronouncing-dictionary backend.
type LexiconConfig struct {
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with G2PD_* environment variables. Nested keys
// use an underscore: remote.url is G2PD_REMOTE_URL.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Defaults register every key so AutomaticEnv can see it on Unmarshal.
	flat, err := flatten(cfg)
	if err != nil {
		return err
	}
	for k, val := range flat {
		v.SetDefault(k, val)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}
	return nil
}

func flatten(cfg *Config) (map[string]any, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			if sub, ok := val.(map[string]any); ok {
				walk(prefix+k+".", sub)
				continue
			}
			out[prefix+k] = val
		}
	}
	walk("", m)
	return out, nil
}

// Default values.
const (
	DefaultAddr           = ":8080"
	DefaultFamily         = "G2PModel"
	DefaultGraphemeField  = "text_graphemes"
	DefaultPredField      = "pred_text"
	DefaultBatchSize      = 32
	DefaultMaxQueueDepth  = 8
	DefaultMaxWaitSeconds = 30
	DefaultMaxBodyBytes   = 1 << 20
	DefaultLogLevel       = "info"
)

// ApplyDefaults fills unspecified values.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Family == "" {
		c.Family = DefaultFamily
	}
	if c.GraphemeField == "" {
		c.GraphemeField = DefaultGraphemeField
	}
	if c.PredField == "" {
		c.PredField = DefaultPredField
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxQueueDepth == 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitSeconds == 0 {
		c.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// MaxWait returns the admission wait as a duration.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitSeconds) * time.Second }

// RequestTimeout returns the HTTP request timeout; zero disables it.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
