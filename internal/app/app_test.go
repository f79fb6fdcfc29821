package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsNarrator/internal/config"
	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/embedding"
)

const (
	userTopic       = "What's new with Tesla and OpenAI?"
	teslaHeadline   = "Tesla recalls thousands of Cybertrucks over a faulty accelerator pedal"
	weatherHeadline = "Mild and sunny weather expected across the Midwest this weekend"
	openAIHeadline  = "OpenAI unveils a faster reasoning model for enterprise customers"
)

// topicVector is a stand-in for a semantic embedding: one axis per topic.
func topicVector(text string) []float64 {
	lower := strings.ToLower(text)
	v := []float64{0, 0, 0}
	if strings.Contains(lower, "tesla") {
		v[0] = 1
	}
	if strings.Contains(lower, "openai") {
		v[1] = 1
	}
	if v[0] == 0 && v[1] == 0 {
		v[2] = 1
	}
	return v
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		articles := []map[string]any{}
		if r.URL.Query().Get("q") == "Tesla" {
			articles = append(articles,
				map[string]any{"source": map[string]string{"name": "Reuters"}, "title": teslaHeadline, "description": "Recall.", "url": server.URL + "/article/tesla"},
				map[string]any{"source": map[string]string{"name": "AP"}, "title": weatherHeadline, "description": "Sunny.", "url": server.URL + "/article/weather"},
			)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "articles": articles})
	})

	mux.HandleFunc("/media", func(w http.ResponseWriter, r *http.Request) {
		data := []map[string]string{}
		if r.URL.Query().Get("keywords") == "OpenAI" {
			data = append(data, map[string]string{"title": openAIHeadline, "description": "Launch.", "url": server.URL + "/article/openai", "source": "cnn"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/article/")
		fmt.Fprintf(w, "<html><body><p>%s made headlines today.</p><p>Analysts reacted to %s.</p></body></html>", name, name)
	})

	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": topicVector(body.Input)}},
		})
	})

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt := body.Messages[len(body.Messages)-1].Content

		reply := ""
		switch {
		case strings.Contains(prompt, userTopic):
			reply = "Tesla, OpenAI"
		case strings.Contains(prompt, "recent news developments"):
			reply = "The story of the week."
		case strings.Contains(prompt, "tesla"):
			reply = "Tesla performed a recall on Monday at Austin, due to defects."
		default:
			reply = "OpenAI performed a launch on Tuesday at San Francisco, due to demand."
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func loadConfig(t *testing.T, server *httptest.Server) config.Config {
	t.Helper()

	for _, env := range []string{"STORE_TYPE", "EMBEDDER_TYPE", "SUMMARIZER_TYPE", "CHATGPT_ENDPOINT", "NEWSNARRATOR_CONFIG", "LOG_LEVEL", "OPENAI_API_KEY"} {
		t.Setenv(env, "")
	}
	t.Setenv("CHATGPT_API_KEY", "sk-test")

	yaml := fmt.Sprintf(`
news:
  newsapi:
    endpoint: %[1]s/news
  mediastack:
    endpoint: %[1]s/media
chatgpt:
  endpoint: %[1]s/chat
embedder:
  openai:
    baseUrl: %[1]s
pipeline:
  readBack: true
`, server.URL)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func assertWholePipeline(t *testing.T, cfg config.Config) {
	t.Helper()

	application, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer application.Close()

	reply := application.Submit(context.Background(), userTopic)
	assert.Equal(t, "The story of the week.", reply)

	counts, err := application.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.CategoryNews])
	assert.Equal(t, 2, counts[domain.CategoryInsights])
	assert.Equal(t, 1, counts[domain.CategoryStories])

	story, ok := application.LatestStory(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Story: "+userTopic, story.Title)
	assert.Equal(t, []string{
		"Tesla performed a recall on Monday at Austin, due to defects.",
		"OpenAI performed a launch on Tuesday at San Francisco, due to demand.",
	}, story.Events)
	assert.Equal(t, "The story of the week.", story.Narrative)
}

func TestSubmitRunsWholePipeline(t *testing.T) {
	server := newUpstream(t)
	cfg := loadConfig(t, server)
	require.Equal(t, "auto", cfg.Embedder.Type)

	assertWholePipeline(t, cfg)
}

func TestSubmitWithLocalEmbedderKeepsFullHeadlines(t *testing.T) {
	server := newUpstream(t)
	cfg := loadConfig(t, server)
	cfg.Embedder.Type = "tfidf"

	assertWholePipeline(t, cfg)
}

func TestBuildEmbedderPicksSemanticWhenKeyIsSet(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	withKey := config.EmbedderConfig{Type: "auto", OpenAI: config.OpenAIConfig{APIKey: "sk"}}
	assert.IsType(t, &embedding.Cached{}, buildEmbedder(withKey, log))

	assert.IsType(t, &embedding.TFIDF{}, buildEmbedder(config.EmbedderConfig{Type: "auto"}, log))

	withKey.Type = "tfidf"
	assert.IsType(t, &embedding.TFIDF{}, buildEmbedder(withKey, log))
}

func TestSubmitRejectsEmptyTopic(t *testing.T) {
	server := newUpstream(t)
	application, err := New(context.Background(), loadConfig(t, server), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	reply := application.Submit(context.Background(), "   ")
	assert.True(t, strings.HasPrefix(reply, "Error fetching story: "))

	_, ok := application.LatestStory(context.Background())
	assert.False(t, ok)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	server := newUpstream(t)
	cfg := loadConfig(t, server)
	cfg.News.Providers = []string{"newsapi", "gnews"}

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "gnews")
}
