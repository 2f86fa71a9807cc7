// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, populated from environment
// variables with sensible defaults for local development.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Task   TaskConfig   `mapstructure:"task"`
	AI     AIConfig     `mapstructure:"ai"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Addr returns the host:port dial address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type TaskConfig struct {
	ExpireSeconds int `mapstructure:"expire_seconds"`
	Workers       int `mapstructure:"workers"`
	QueueSize     int `mapstructure:"queue_size"`
}

// TTL returns the task record expiry as a duration.
func (c TaskConfig) TTL() time.Duration {
	return time.Duration(c.ExpireSeconds) * time.Second
}

// ProviderCredentials holds one backend's connection settings.
type ProviderCredentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type AIConfig struct {
	Provider       string              `mapstructure:"provider"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	OpenAI         ProviderCredentials `mapstructure:"openai"`
	Claude         ProviderCredentials `mapstructure:"claude"`
	Qianwen        ProviderCredentials `mapstructure:"qianwen"`
}

// Timeout returns the per-call provider timeout.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// envBindings maps config keys to their environment variable names.
var envBindings = map[string]string{
	"server.host":          "SERVER_HOST",
	"server.port":          "SERVER_PORT",
	"server.read_timeout":  "SERVER_READ_TIMEOUT",
	"server.write_timeout": "SERVER_WRITE_TIMEOUT",
	"server.enable_cors":   "SERVER_ENABLE_CORS",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
	"redis.host":           "REDIS_HOST",
	"redis.port":           "REDIS_PORT",
	"redis.db":             "REDIS_DB",
	"redis.password":       "REDIS_PASSWORD",
	"task.expire_seconds":  "TASK_EXPIRE_SECONDS",
	"task.workers":         "TASK_WORKERS",
	"task.queue_size":      "TASK_QUEUE_SIZE",
	"ai.provider":          "AI_PROVIDER",
	"ai.timeout_seconds":   "AI_TIMEOUT_SECONDS",
	"ai.openai.api_key":    "OPENAI_API_KEY",
	"ai.openai.base_url":   "OPENAI_BASE_URL",
	"ai.openai.model":      "OPENAI_MODEL",
	"ai.claude.api_key":    "CLAUDE_API_KEY",
	"ai.claude.base_url":   "CLAUDE_BASE_URL",
	"ai.claude.model":      "CLAUDE_MODEL",
	"ai.qianwen.api_key":   "QIANWEN_API_KEY",
	"ai.qianwen.base_url":  "QIANWEN_BASE_URL",
	"ai.qianwen.model":     "QIANWEN_MODEL",
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0*time.Second) // streaming responses are unbounded
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("task.expire_seconds", 3600)
	v.SetDefault("task.workers", 4)
	v.SetDefault("task.queue_size", 64)
	v.SetDefault("ai.provider", "qianwen")
	v.SetDefault("ai.timeout_seconds", 60)
	v.SetDefault("ai.openai.api_key", "")
	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.claude.api_key", "")
	v.SetDefault("ai.claude.base_url", "https://api.anthropic.com")
	v.SetDefault("ai.claude.model", "claude-3-haiku-20240307")
	v.SetDefault("ai.qianwen.api_key", "")
	v.SetDefault("ai.qianwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("ai.qianwen.model", "qwen-turbo")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
