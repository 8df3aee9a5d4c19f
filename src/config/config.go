// Package config loads callbridge configuration using viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/square-key-labs/strawgo-callbridge/src/audio"
)

// Config is the top-level configuration. It maps to the `callbridge:` root
// key in YAML; env vars use the CALLBRIDGE_ prefix (CALLBRIDGE_SERVER_PORT).
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Relay        RelayConfig        `mapstructure:"relay"`
	ContextStore ContextStoreConfig `mapstructure:"context_store"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig controls the HTTP listener Twilio connects to.
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	MediaPath     string        `mapstructure:"media_path"`
	WebhookPath   string        `mapstructure:"webhook_path"`
	ContextPath   string        `mapstructure:"context_path"`
	PublicURL     string        `mapstructure:"public_url"` // also read from NGROK_URL
	Greeting      string        `mapstructure:"greeting"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// OpenAIConfig controls the realtime session.
type OpenAIConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	RealtimeURL       string  `mapstructure:"realtime_url"`
	Model             string  `mapstructure:"model"`
	Voice             string  `mapstructure:"voice"`
	Temperature       float64 `mapstructure:"temperature"`
	InputAudioFormat  string  `mapstructure:"input_audio_format"`
	OutputAudioFormat string  `mapstructure:"output_audio_format"`
	Instructions      string  `mapstructure:"instructions"`
	PromptFile        string  `mapstructure:"prompt_file"`
}

// RelayConfig bounds per-call processing.
type RelayConfig struct {
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	InboundMaxFPS    int           `mapstructure:"inbound_max_fps"` // 0 = unlimited
	InboundBurstSecs int           `mapstructure:"inbound_burst_secs"`
	ReadLimitBytes   int64         `mapstructure:"read_limit_bytes"`
}

// ContextStoreConfig selects where per-call issue text is kept.
type ContextStoreConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory" | "redis"
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Shards        int           `mapstructure:"shards"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used when ContextStore.Backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Color  bool          `mapstructure:"color"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures a rotating log file.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type configRoot struct {
	Callbridge Config `mapstructure:"callbridge"`
}

// envAliases binds the environment names used by existing deployments.
var envAliases = map[string]string{
	"callbridge.openai.api_key":    "OPENAI_API_KEY",
	"callbridge.server.port":       "PORT",
	"callbridge.server.public_url": "NGROK_URL",
	"callbridge.log.level":         "LOG_LEVEL",
}

// Load reads configuration from path (optional, empty means defaults and
// environment only), applies env overrides, resolves the base prompt and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// "callbridge.server.port" -> CALLBRIDGE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Callbridge

	if err := cfg.resolveInstructions(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("callbridge.server.port", 5050)
	v.SetDefault("callbridge.server.media_path", "/media-stream")
	v.SetDefault("callbridge.server.webhook_path", "/outgoing-call")
	v.SetDefault("callbridge.server.context_path", "/call-context")
	v.SetDefault("callbridge.server.public_url", "")
	v.SetDefault("callbridge.server.greeting", "Please hold while I connect you to our support agent.")
	v.SetDefault("callbridge.server.shutdown_grace", "10s")

	v.SetDefault("callbridge.openai.api_key", "")
	v.SetDefault("callbridge.openai.instructions", "")
	v.SetDefault("callbridge.openai.realtime_url", "wss://api.openai.com/v1/realtime")
	v.SetDefault("callbridge.openai.model", "gpt-4o-realtime-preview-2024-10-01")
	v.SetDefault("callbridge.openai.voice", "echo")
	v.SetDefault("callbridge.openai.temperature", 0.2)
	v.SetDefault("callbridge.openai.input_audio_format", "g711_ulaw")
	v.SetDefault("callbridge.openai.output_audio_format", "g711_ulaw")
	v.SetDefault("callbridge.openai.prompt_file", "prompts/system_prompt.txt")

	v.SetDefault("callbridge.relay.write_timeout", "5s")
	v.SetDefault("callbridge.relay.dial_timeout", "10s")
	v.SetDefault("callbridge.relay.inbound_max_fps", 0)
	v.SetDefault("callbridge.relay.inbound_burst_secs", 1)
	v.SetDefault("callbridge.relay.read_limit_bytes", 1<<20)

	v.SetDefault("callbridge.context_store.backend", "memory")
	v.SetDefault("callbridge.context_store.ttl", "10m")
	v.SetDefault("callbridge.context_store.sweep_interval", "1m")
	v.SetDefault("callbridge.context_store.shards", 16)
	v.SetDefault("callbridge.context_store.redis.addr", "localhost:6379")
	v.SetDefault("callbridge.context_store.redis.password", "")
	v.SetDefault("callbridge.context_store.redis.db", 0)
	v.SetDefault("callbridge.context_store.redis.prefix", "callbridge:context:")

	v.SetDefault("callbridge.metrics.enabled", true)
	v.SetDefault("callbridge.metrics.path", "/metrics")

	v.SetDefault("callbridge.log.level", "info")
	v.SetDefault("callbridge.log.format", "text")
	v.SetDefault("callbridge.log.color", false)
	v.SetDefault("callbridge.log.file.enabled", false)
	v.SetDefault("callbridge.log.file.path", "/var/log/callbridge/callbridge.log")
	v.SetDefault("callbridge.log.file.max_size_mb", 100)
	v.SetDefault("callbridge.log.file.max_backups", 5)
	v.SetDefault("callbridge.log.file.max_age_days", 30)
	v.SetDefault("callbridge.log.file.compress", true)
}

// resolveInstructions loads the base prompt from PromptFile unless it is
// given inline. A relative PromptFile is tried as given, then next to the
// config file.
func (cfg *Config) resolveInstructions(configPath string) error {
	if strings.TrimSpace(cfg.OpenAI.Instructions) != "" {
		cfg.OpenAI.Instructions = strings.TrimSpace(cfg.OpenAI.Instructions)
		return nil
	}
	if cfg.OpenAI.PromptFile == "" {
		return fmt.Errorf("openai.instructions or openai.prompt_file is required")
	}

	candidates := []string{cfg.OpenAI.PromptFile}
	if configPath != "" && !filepath.IsAbs(cfg.OpenAI.PromptFile) {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), cfg.OpenAI.PromptFile))
	}

	var lastErr error
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		cfg.OpenAI.Instructions = strings.TrimSpace(string(data))
		return nil
	}
	return fmt.Errorf("could not load prompt file %s: %w", cfg.OpenAI.PromptFile, lastErr)
}

// Validate checks the fields the relay cannot run without.
func (cfg *Config) Validate() error {
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("missing OpenAI API key (set OPENAI_API_KEY)")
	}
	if cfg.OpenAI.Instructions == "" {
		return fmt.Errorf("base prompt is empty")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	if !strings.HasPrefix(cfg.Server.MediaPath, "/") {
		return fmt.Errorf("server.media_path must start with /: %q", cfg.Server.MediaPath)
	}
	for _, name := range []string{cfg.OpenAI.InputAudioFormat, cfg.OpenAI.OutputAudioFormat} {
		if _, err := audio.ParseFormat(name); err != nil {
			return fmt.Errorf("openai: %w", err)
		}
	}
	if cfg.Relay.WriteTimeout <= 0 {
		return fmt.Errorf("relay.write_timeout must be positive")
	}
	switch cfg.ContextStore.Backend {
	case "memory":
	case "redis":
		if cfg.ContextStore.Redis.Addr == "" {
			return fmt.Errorf("context_store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported context_store.backend: %s (must be memory/redis)", cfg.ContextStore.Backend)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	return nil
}

// RealtimeEndpoint returns the websocket URL including the model parameter.
func (c OpenAIConfig) RealtimeEndpoint() string {
	if c.Model == "" || strings.Contains(c.RealtimeURL, "model=") {
		return c.RealtimeURL
	}
	sep := "?"
	if strings.Contains(c.RealtimeURL, "?") {
		sep = "&"
	}
	return c.RealtimeURL + sep + "model=" + c.Model
}
