package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "qianwen", cfg.AI.Provider)
	assert.Equal(t, 3600, cfg.Task.ExpireSeconds)
	assert.Equal(t, time.Hour, cfg.Task.TTL())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.OpenAI.Model)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1", cfg.AI.Qianwen.BaseURL)
	assert.Positive(t, cfg.Task.Workers)
	assert.Positive(t, cfg.Task.QueueSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AI_PROVIDER", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test-123")
	t.Setenv("TASK_EXPIRE_SECONDS", "120")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.AI.Provider)
	assert.Equal(t, "sk-test-123", cfg.AI.Claude.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.Task.TTL())
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr())
	assert.Equal(t, 9000, cfg.Server.Port)
}
