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

const mediaStackDefaultEndpoint = "https://api.mediastack.com/v1/news"

// MediaStackConfig configures the MediaStack client.
type MediaStackConfig struct {
	Endpoint string
	APIKey   string
	Country  string
	Timeout  time.Duration
}

// MediaStack is the fallback provider used when NewsAPI finds nothing.
type MediaStack struct {
	endpoint string
	apiKey   string
	country  string
	client   *http.Client
}

var _ ports.NewsProvider = (*MediaStack)(nil)

// NewMediaStack builds the fallback news provider.
func NewMediaStack(cfg MediaStackConfig) *MediaStack {
	if cfg.Endpoint == "" {
		cfg.Endpoint = mediaStackDefaultEndpoint
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MediaStack{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		country:  cfg.Country,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the provider inside the registry.
func (m *MediaStack) Name() string {
	return "mediastack"
}

// Search returns the latest articles matching topic keywords.
func (m *MediaStack) Search(ctx context.Context, topic string) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("access_key", m.apiKey)
	params.Set("keywords", strings.TrimSpace(topic))
	params.Set("countries", m.country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsNarrator/1.0")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediastack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("mediastack returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			Source      string `json:"source"`
			PublishedAt string `json:"published_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode mediastack response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("mediastack error %s: %s", body.Error.Code, body.Error.Message)
	}

	articles := make([]domain.Article, 0, len(body.Data))
	for _, a := range body.Data {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			URL:         a.URL,
			BodyText:    a.Description,
			Source:      a.Source,
			PublishedAt: parseTime([]string{time.RFC3339, "2006-01-02T15:04:05-0700"}, a.PublishedAt),
		})
	}
	return normalize(articles), nil
}
