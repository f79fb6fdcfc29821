package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsNarrator/internal/ports"
)

const (
	minSummaryLength = 30
	maxSummaryLength = 130
)

// Client talks to an external summarization inference service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Summarize requests an abstractive summary of one chunk.
// The service may answer {"summary": "..."} or [{"summary_text": "..."}].
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	payload := map[string]any{
		"content":    text,
		"min_length": minSummaryLength,
		"max_length": maxSummaryLength,
	}

	var raw json.RawMessage
	if err := c.post(ctx, "/summarize", payload, &raw); err != nil {
		return "", err
	}

	return decodeSummary(raw)
}

func decodeSummary(raw json.RawMessage) (string, error) {
	var single struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &single); err == nil && single.Summary != "" {
		return strings.TrimSpace(single.Summary), nil
	}

	var list []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0].SummaryText), nil
	}

	return "", errors.New("summary missing from response")
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
