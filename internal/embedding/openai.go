package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"NewsNarrator/internal/ports"
)

var _ ports.Embedder = (*OpenAI)(nil)

// OpenAIConfig configures the OpenAI-compatible embeddings client.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAI talks to an OpenAI-compatible /embeddings endpoint (OpenAI, Ollama, vLLM).
type OpenAI struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	sleep      func(time.Duration)
}

// NewOpenAI builds the client; an empty API key is allowed for local servers.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &OpenAI{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		sleep:      time.Sleep,
	}
}

// Embed returns the embedding of text, retrying on 429/5xx with exponential backoff.
func (c *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"input":  text,
		"prompt": text,
		"model":  c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		vec, retryAfter, err := c.once(ctx, body)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if retryAfter < 0 {
			break
		}
		if attempt < c.maxRetries {
			if retryAfter == 0 {
				retryAfter = retryDelay(attempt)
			}
			c.sleep(retryAfter)
		}
	}
	return nil, lastErr
}

// once performs a single request; a negative retryAfter marks the error as permanent.
func (c *OpenAI) once(ctx context.Context, body []byte) ([]float64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, -1, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		wait := time.Duration(0)
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, fmt.Errorf("embeddings failed: %s", resp.Status)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, -1, fmt.Errorf("embeddings failed %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read embeddings response: %w", err)
	}

	var openaiOut struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil && len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
		return openaiOut.Data[0].Embedding, 0, nil
	}
	// Ollama-native shape: {"embedding": [...]}
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, 0, nil
	}
	return nil, -1, errors.New("no embedding returned")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
