package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const newsAPIDefaultEndpoint = "https://newsapi.org/v2/everything"

// NewsAPIConfig configures the NewsAPI client.
type NewsAPIConfig struct {
	Endpoint string
	APIKey   string
	Language string
	PageSize int
	Timeout  time.Duration
}

// NewsAPI searches the NewsAPI "everything" endpoint for the last day of coverage.
type NewsAPI struct {
	endpoint string
	apiKey   string
	language string
	pageSize int
	client   *http.Client
	now      func() time.Time
}

var _ ports.NewsProvider = (*NewsAPI)(nil)

// NewNewsAPI builds the primary news provider.
func NewNewsAPI(cfg NewsAPIConfig) *NewsAPI {
	if cfg.Endpoint == "" {
		cfg.Endpoint = newsAPIDefaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &NewsAPI{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		pageSize: cfg.PageSize,
		client:   &http.Client{Timeout: cfg.Timeout},
		now:      time.Now,
	}
}

// Name identifies the provider inside the registry.
func (n *NewsAPI) Name() string {
	return "newsapi"
}

// Search queries articles published between yesterday and today that mention topic.
func (n *NewsAPI) Search(ctx context.Context, topic string) ([]domain.Article, error) {
	today := n.now().UTC()
	params := url.Values{}
	params.Set("q", strings.Join(strings.Fields(topic), "+"))
	params.Set("searchIn", "title,description,content")
	params.Set("from", today.AddDate(0, 0, -1).Format("2006-01-02"))
	params.Set("to", today.Format("2006-01-02"))
	params.Set("language", n.language)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprint(n.pageSize))
	params.Set("page", "1")
	params.Set("apiKey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsNarrator/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("newsapi returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if body.Status != "" && body.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %s: %s", body.Status, body.Message)
	}

	articles := make([]domain.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			URL:         a.URL,
			BodyText:    a.Description,
			Source:      a.Source.Name,
			PublishedAt: parseTime([]string{time.RFC3339}, a.PublishedAt),
		})
	}
	return normalize(articles), nil
}
