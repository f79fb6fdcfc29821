package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWSNARRATOR_CONFIG"
	newsAPIKeyEnv     = "NEWS_API_KEY"
	mediaStackKeyEnv  = "MEDIA_STACK_API_KEY"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	chatGPTEndpoint   = "CHATGPT_ENDPOINT"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	logLevelEnv       = "LOG_LEVEL"
	summarizerURLEnv  = "SUMMARIZER_URL"
	summarizerKeyEnv  = "SUMMARIZER_API_KEY"
	storeTypeEnv      = "STORE_TYPE"
	embedderTypeEnv   = "EMBEDDER_TYPE"
	summarizerTypeEnv = "SUMMARIZER_TYPE"
)

// DefaultThreshold is the cosine floor for relevant articles.
const DefaultThreshold = 0.4

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
	News       NewsConfig       `yaml:"news"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	ChatGPT    ChatGPTConfig    `yaml:"chatgpt"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// LoggingConfig selects the level and an optional rotating log file.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File  string `yaml:"file"`
}

// StoreConfig picks the document store backend.
type StoreConfig struct {
	Type     string         `yaml:"type" validate:"oneof=memory postgres redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig describes Postgres connection details.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the Redis connection and key namespace.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}

// NewsConfig groups the news providers and their priority order.
type NewsConfig struct {
	Providers   []string         `yaml:"providers" validate:"min=1,dive,oneof=newsapi mediastack"`
	TimeoutSecs int              `yaml:"timeoutSecs" validate:"gt=0"`
	NewsAPI     NewsAPIConfig    `yaml:"newsapi"`
	MediaStack  MediaStackConfig `yaml:"mediastack"`
}

// NewsAPIConfig configures the primary provider.
type NewsAPIConfig struct {
	Endpoint string `yaml:"endpoint" validate:"url"`
	APIKey   string `yaml:"apiKey"`
	Language string `yaml:"language"`
	PageSize int    `yaml:"pageSize" validate:"gt=0,lte=100"`
}

// MediaStackConfig configures the fallback provider.
type MediaStackConfig struct {
	Endpoint string `yaml:"endpoint" validate:"url"`
	APIKey   string `yaml:"apiKey"`
	Country  string `yaml:"country"`
}

// EmbedderConfig selects the text embedder used by the relevance filter.
// "auto" uses the OpenAI-compatible embedder when a key is configured and
// local TF-IDF otherwise.
type EmbedderConfig struct {
	Type         string       `yaml:"type" validate:"oneof=auto tfidf openai"`
	CacheTTLMins int          `yaml:"cacheTtlMins" validate:"gte=0"`
	OpenAI       OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig points at an OpenAI-compatible embeddings API.
type OpenAIConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	APIKey     string `yaml:"apiKey"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"maxRetries" validate:"gte=0"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint    string `yaml:"endpoint" validate:"url"`
	Model       string `yaml:"model" validate:"required"`
	APIKey      string `yaml:"apiKey"`
	MaxTokens   int    `yaml:"maxTokens" validate:"gte=0"`
	TimeoutSecs int    `yaml:"timeoutSecs" validate:"gt=0"`
}

// SummarizerConfig selects the chunk summarizer.
type SummarizerConfig struct {
	Type         string   `yaml:"type" validate:"oneof=frequency ml"`
	MaxSentences int      `yaml:"maxSentences" validate:"gte=0"`
	ChunkWords   int      `yaml:"chunkWords" validate:"gt=0"`
	ML           MLConfig `yaml:"ml"`
}

// MLConfig describes the remote summarization service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// PipelineConfig tunes the orchestrator.
type PipelineConfig struct {
	TopK               int      `yaml:"topK" validate:"gt=0"`
	Threshold          *float64 `yaml:"threshold" validate:"omitempty,gte=-1,lte=1"`
	ReadBack           *bool    `yaml:"readBack"`
	Workers            int      `yaml:"workers" validate:"gt=0"`
	ArticleTimeoutSecs int      `yaml:"articleTimeoutSecs" validate:"gt=0"`
}

// SimilarityThreshold returns the relevance floor, DefaultThreshold when unset.
func (p PipelineConfig) SimilarityThreshold() float64 {
	if p.Threshold == nil {
		return DefaultThreshold
	}
	return *p.Threshold
}

// ReadBackEnabled reports whether stages continue from the stored snapshot.
func (p PipelineConfig) ReadBackEnabled() bool {
	return p.ReadBack == nil || *p.ReadBack
}

// Timeout converts the provider timeout to a duration.
func (n NewsConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSecs) * time.Second
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over NEWSNARRATOR_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Type == "postgres" && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("invalid config: store.postgres.dsn is required for the postgres store")
	}
	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("invalid config: store.redis.addr is required for the redis store")
	}
	if c.Summarizer.Type == "ml" && c.Summarizer.ML.InferenceURL == "" {
		return fmt.Errorf("invalid config: summarizer.ml.inferenceUrl is required for the ml summarizer")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{newsAPIKeyEnv, &c.News.NewsAPI.APIKey},
		{mediaStackKeyEnv, &c.News.MediaStack.APIKey},
		{chatGPTAPIKeyEnv, &c.ChatGPT.APIKey},
		{chatGPTModelEnv, &c.ChatGPT.Model},
		{chatGPTEndpoint, &c.ChatGPT.Endpoint},
		{openAIAPIKeyEnv, &c.Embedder.OpenAI.APIKey},
		{databaseDSNEnv, &c.Store.Postgres.DSN},
		{redisAddrEnv, &c.Store.Redis.Addr},
		{logLevelEnv, &c.Logging.Level},
		{summarizerURLEnv, &c.Summarizer.ML.InferenceURL},
		{summarizerKeyEnv, &c.Summarizer.ML.APIKey},
		{storeTypeEnv, &c.Store.Type},
		{embedderTypeEnv, &c.Embedder.Type},
		{summarizerTypeEnv, &c.Summarizer.Type},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	// the chat key doubles as the embeddings key unless one is set explicitly
	if c.Embedder.OpenAI.APIKey == "" {
		c.Embedder.OpenAI.APIKey = c.ChatGPT.APIKey
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Store.Type != "" {
		base.Store.Type = override.Store.Type
	}
	if override.Store.Postgres.DSN != "" {
		base.Store.Postgres = override.Store.Postgres
	}
	if override.Store.Redis.Addr != "" {
		base.Store.Redis = override.Store.Redis
	}
	if override.Store.Redis.Prefix != "" {
		base.Store.Redis.Prefix = override.Store.Redis.Prefix
	}

	if len(override.News.Providers) > 0 {
		base.News.Providers = override.News.Providers
	}
	if override.News.TimeoutSecs != 0 {
		base.News.TimeoutSecs = override.News.TimeoutSecs
	}
	mergeString(&base.News.NewsAPI.Endpoint, override.News.NewsAPI.Endpoint)
	mergeString(&base.News.NewsAPI.APIKey, override.News.NewsAPI.APIKey)
	mergeString(&base.News.NewsAPI.Language, override.News.NewsAPI.Language)
	mergeInt(&base.News.NewsAPI.PageSize, override.News.NewsAPI.PageSize)
	mergeString(&base.News.MediaStack.Endpoint, override.News.MediaStack.Endpoint)
	mergeString(&base.News.MediaStack.APIKey, override.News.MediaStack.APIKey)
	mergeString(&base.News.MediaStack.Country, override.News.MediaStack.Country)

	mergeString(&base.Embedder.Type, override.Embedder.Type)
	mergeInt(&base.Embedder.CacheTTLMins, override.Embedder.CacheTTLMins)
	mergeString(&base.Embedder.OpenAI.BaseURL, override.Embedder.OpenAI.BaseURL)
	mergeString(&base.Embedder.OpenAI.APIKey, override.Embedder.OpenAI.APIKey)
	mergeString(&base.Embedder.OpenAI.Model, override.Embedder.OpenAI.Model)
	mergeInt(&base.Embedder.OpenAI.MaxRetries, override.Embedder.OpenAI.MaxRetries)

	mergeString(&base.ChatGPT.Endpoint, override.ChatGPT.Endpoint)
	mergeString(&base.ChatGPT.Model, override.ChatGPT.Model)
	mergeString(&base.ChatGPT.APIKey, override.ChatGPT.APIKey)
	mergeInt(&base.ChatGPT.MaxTokens, override.ChatGPT.MaxTokens)
	mergeInt(&base.ChatGPT.TimeoutSecs, override.ChatGPT.TimeoutSecs)

	mergeString(&base.Summarizer.Type, override.Summarizer.Type)
	mergeInt(&base.Summarizer.MaxSentences, override.Summarizer.MaxSentences)
	mergeInt(&base.Summarizer.ChunkWords, override.Summarizer.ChunkWords)
	mergeString(&base.Summarizer.ML.InferenceURL, override.Summarizer.ML.InferenceURL)
	mergeString(&base.Summarizer.ML.APIKey, override.Summarizer.ML.APIKey)

	mergeInt(&base.Pipeline.TopK, override.Pipeline.TopK)
	if override.Pipeline.Threshold != nil {
		base.Pipeline.Threshold = override.Pipeline.Threshold
	}
	if override.Pipeline.ReadBack != nil {
		base.Pipeline.ReadBack = override.Pipeline.ReadBack
	}
	mergeInt(&base.Pipeline.Workers, override.Pipeline.Workers)
	mergeInt(&base.Pipeline.ArticleTimeoutSecs, override.Pipeline.ArticleTimeoutSecs)

	return base
}

func floatPtr(v float64) *float64 { return &v }

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Store: StoreConfig{
			Type:  "memory",
			Redis: RedisConfig{Addr: "localhost:6379", Prefix: "newsnarrator"},
		},
		News: NewsConfig{
			Providers:   []string{"newsapi", "mediastack"},
			TimeoutSecs: 15,
			NewsAPI: NewsAPIConfig{
				Endpoint: "https://newsapi.org/v2/everything",
				Language: "en",
				PageSize: 20,
			},
			MediaStack: MediaStackConfig{
				Endpoint: "https://api.mediastack.com/v1/news",
				Country:  "us",
			},
		},
		Embedder: EmbedderConfig{
			Type:         "auto",
			CacheTTLMins: 60,
			OpenAI: OpenAIConfig{
				BaseURL:    "https://api.openai.com/v1",
				Model:      "text-embedding-3-small",
				MaxRetries: 3,
			},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   800,
			TimeoutSecs: 60,
		},
		Summarizer: SummarizerConfig{
			Type:         "frequency",
			MaxSentences: 3,
			ChunkWords:   512,
		},
		Pipeline: PipelineConfig{
			TopK:               15,
			Threshold:          floatPtr(DefaultThreshold),
			Workers:            1,
			ArticleTimeoutSecs: 10,
		},
	}
}
