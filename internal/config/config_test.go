package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Pipeline.ReadBackEnabled())
	assert.Equal(t, []string{"newsapi", "mediastack"}, cfg.News.Providers)
	assert.Equal(t, 15, cfg.Pipeline.TopK)
	assert.InDelta(t, 0.4, cfg.Pipeline.SimilarityThreshold(), 1e-9)
	assert.Equal(t, "auto", cfg.Embedder.Type)
	assert.Equal(t, "https://api.mediastack.com/v1/news", cfg.News.MediaStack.Endpoint)
}

func TestLoadAcceptsZeroThreshold(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg, err := Load(writeConfig(t, "pipeline:\n  threshold: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Pipeline.Threshold)
	assert.Zero(t, cfg.Pipeline.SimilarityThreshold())

	cfg, err = Load(writeConfig(t, "pipeline:\n  workers: 2\n"))
	require.NoError(t, err)
	assert.InDelta(t, DefaultThreshold, cfg.Pipeline.SimilarityThreshold(), 1e-9)

	assert.InDelta(t, DefaultThreshold, PipelineConfig{}.SimilarityThreshold(), 1e-9)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	path := writeConfig(t, `
logging:
  level: debug
store:
  type: redis
  redis:
    addr: redis:6379
news:
  providers: [mediastack]
pipeline:
  readBack: false
  workers: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, []string{"mediastack"}, cfg.News.Providers)
	assert.False(t, cfg.Pipeline.ReadBackEnabled())
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, 15, cfg.Pipeline.TopK)
	assert.Equal(t, 20, cfg.News.NewsAPI.PageSize)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(newsAPIKeyEnv, "news-key")
	t.Setenv(mediaStackKeyEnv, "ms-key")
	t.Setenv(chatGPTAPIKeyEnv, "sk-chat")
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://u:p@db/news")
	t.Setenv(storeTypeEnv, "postgres")
	t.Setenv(configPathEnv, writeConfig(t, "chatgpt:\n  model: gpt-4o\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "news-key", cfg.News.NewsAPI.APIKey)
	assert.Equal(t, "ms-key", cfg.News.MediaStack.APIKey)
	assert.Equal(t, "gpt-4o", cfg.ChatGPT.Model)
	assert.Equal(t, "sk-chat", cfg.Embedder.OpenAI.APIKey)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "postgres://u:p@db/news", cfg.Store.Postgres.DSN)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"store type":        func(c *Config) { c.Store.Type = "mongo" },
		"postgres dsn":      func(c *Config) { c.Store.Type = "postgres"; c.Store.Postgres.DSN = "" },
		"redis addr":        func(c *Config) { c.Store.Type = "redis"; c.Store.Redis.Addr = "" },
		"provider name":     func(c *Config) { c.News.Providers = []string{"gnews"} },
		"no providers":      func(c *Config) { c.News.Providers = nil },
		"embedder":          func(c *Config) { c.Embedder.Type = "word2vec" },
		"ml without url":    func(c *Config) { c.Summarizer.Type = "ml" },
		"workers":           func(c *Config) { c.Pipeline.Workers = 0 },
		"log level":         func(c *Config) { c.Logging.Level = "verbose" },
		"threshold too big": func(c *Config) { c.Pipeline.Threshold = floatPtr(2) },
	}
	for name, mutate := range cases {
		cfg := defaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Setenv(configPathEnv, "")
	_, err := Load(writeConfig(t, "store: [unclosed"))
	assert.Error(t, err)
}
