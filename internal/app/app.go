package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"NewsNarrator/internal/config"
	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/embedding"
	"NewsNarrator/internal/infrastructure/llm"
	"NewsNarrator/internal/infrastructure/ml"
	"NewsNarrator/internal/infrastructure/parser"
	"NewsNarrator/internal/infrastructure/provider"
	"NewsNarrator/internal/infrastructure/storage"
	"NewsNarrator/internal/insight"
	"NewsNarrator/internal/logging"
	"NewsNarrator/internal/ports"
	"NewsNarrator/internal/ranking"
	"NewsNarrator/internal/retrieval"
	"NewsNarrator/internal/summarizer"
	"NewsNarrator/internal/textservice"
	"NewsNarrator/internal/usecase"
)

const errorPrefix = "Error fetching story: "

// Application wires configs to use cases and exposes the user-facing operations.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	store    ports.DocumentStore
	logger   *slog.Logger
	closers  []func() error

	mu        sync.Mutex
	lastTitle string
}

// New builds a runnable application instance from configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	registry := retrieval.NewRegistry()
	registry.Register(provider.NewNewsAPI(provider.NewsAPIConfig{
		Endpoint: cfg.News.NewsAPI.Endpoint,
		APIKey:   cfg.News.NewsAPI.APIKey,
		Language: cfg.News.NewsAPI.Language,
		PageSize: cfg.News.NewsAPI.PageSize,
		Timeout:  cfg.News.Timeout(),
	}))
	registry.Register(provider.NewMediaStack(provider.MediaStackConfig{
		Endpoint: cfg.News.MediaStack.Endpoint,
		APIKey:   cfg.News.MediaStack.APIKey,
		Country:  cfg.News.MediaStack.Country,
		Timeout:  cfg.News.Timeout(),
	}))
	providers, err := registry.ResolveAll(cfg.News.Providers)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("news providers: %w", err)
	}
	source := retrieval.NewChain(providers, cfg.News.Timeout(), baseLogger.With("component", "retrieval"))

	ranker := ranking.New(buildEmbedder(cfg.Embedder, a.logger),
		ranking.WithTopK(cfg.Pipeline.TopK),
		ranking.WithThreshold(cfg.Pipeline.SimilarityThreshold()),
		ranking.WithLogger(baseLogger.With("component", "ranking")),
	)

	chat := llm.NewChatGPTClient(llm.Config{
		Endpoint:  cfg.ChatGPT.Endpoint,
		Model:     cfg.ChatGPT.Model,
		APIKey:    cfg.ChatGPT.APIKey,
		MaxTokens: cfg.ChatGPT.MaxTokens,
		Timeout:   time.Duration(cfg.ChatGPT.TimeoutSecs) * time.Second,
	})
	text := textservice.New(chat, baseLogger.With("component", "textservice"))

	chunker, err := insight.NewChunker(cfg.Summarizer.ChunkWords)
	if err != nil {
		a.Close()
		return nil, err
	}
	extractor := parser.NewArticleExtractor(
		&http.Client{Timeout: time.Duration(cfg.Pipeline.ArticleTimeoutSecs) * time.Second},
		baseLogger.With("component", "parser"),
	)
	builder := insight.NewBuilder(extractor, buildSummarizer(cfg.Summarizer), text, chunker,
		baseLogger.With("component", "insight"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Text:     text,
		Source:   source,
		Store:    store,
		Ranker:   ranker,
		Insights: builder,
		Dedupe:   insight.Deduplicate,
		Logger:   baseLogger.With("component", "pipeline"),
	}, usecase.PipelineOptions{
		ReadBack: cfg.Pipeline.ReadBackEnabled(),
		Workers:  cfg.Pipeline.Workers,
	})

	return a, nil
}

func (a *Application) buildStore(ctx context.Context) (ports.DocumentStore, error) {
	switch a.cfg.Store.Type {
	case "postgres":
		db, err := storage.OpenPostgres(ctx, a.cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := storage.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		return store, nil
	case "redis":
		r := a.cfg.Store.Redis
		client, err := storage.OpenRedis(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return storage.NewRedisStore(client, r.Prefix), nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

func buildEmbedder(cfg config.EmbedderConfig, log *slog.Logger) ports.Embedder {
	kind := cfg.Type
	if kind == "auto" || kind == "" {
		kind = "openai"
		if cfg.OpenAI.APIKey == "" {
			kind = "tfidf"
			log.Warn("no embeddings API key, falling back to local tf-idf keyword scoring; the similarity floor is calibrated for semantic embeddings")
		}
	}
	if kind != "openai" {
		return embedding.NewTFIDF()
	}
	remote := embedding.NewOpenAI(embedding.OpenAIConfig{
		BaseURL:    cfg.OpenAI.BaseURL,
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.Model,
		MaxRetries: cfg.OpenAI.MaxRetries,
	})
	return embedding.NewCached(remote, time.Duration(cfg.CacheTTLMins)*time.Minute)
}

func buildSummarizer(cfg config.SummarizerConfig) ports.Summarizer {
	if cfg.Type == "ml" {
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey)
	}
	return summarizer.NewFrequency(cfg.MaxSentences)
}

// Submit runs the pipeline for topic and returns the narrative, or an error
// message meant for the user. It never panics.
func (a *Application) Submit(ctx context.Context, topic string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("submit panic", "panic", r)
			reply = fmt.Sprintf("%s%v", errorPrefix, r)
		}
	}()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errorPrefix + "topic is empty"
	}

	state, err := a.pipeline.Run(ctx, topic)
	if err != nil {
		return errorPrefix + err.Error()
	}

	a.mu.Lock()
	a.lastTitle = domain.StoryTitleFor(topic)
	a.mu.Unlock()

	if !state.HasNarrative || strings.TrimSpace(state.Narrative) == "" {
		return domain.DefaultNarrative
	}
	return state.Narrative
}

// LatestStory returns the story stored by the last Submit, or the most recently
// inserted story when nothing was submitted in this process.
func (a *Application) LatestStory(ctx context.Context) (domain.Story, bool) {
	records, err := a.store.ReadAll(ctx, domain.CategoryStories)
	if err != nil {
		a.logger.Warn("read stories failed", "error", err)
		return domain.Story{}, false
	}
	if len(records) == 0 {
		return domain.Story{}, false
	}

	a.mu.Lock()
	title := a.lastTitle
	a.mu.Unlock()

	pick := records[len(records)-1]
	if title != "" {
		if id, err := domain.RecordID(title); err == nil {
			for _, rec := range records {
				if rec.ID == id {
					pick = rec
					break
				}
			}
		}
	}

	story, err := domain.StoryFromRecord(pick)
	if err != nil {
		a.logger.Warn("decode story failed", "error", err)
		return domain.Story{}, false
	}
	return story, true
}

// Counts reports the number of stored records per category.
func (a *Application) Counts(ctx context.Context) (map[domain.Category]int, error) {
	counts := make(map[domain.Category]int, len(domain.Categories()))
	for _, c := range domain.Categories() {
		n, err := a.store.Count(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		counts[c] = n
	}
	return counts, nil
}

// Close releases store connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
