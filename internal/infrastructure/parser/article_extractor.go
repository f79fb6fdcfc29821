package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsNarrator/internal/ports"
)

const defaultFetchTimeout = 10 * time.Second

// ArticleExtractor downloads article pages and returns their paragraph text.
type ArticleExtractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Downloader = (*ArticleExtractor)(nil)

// NewArticleExtractor wires an HTTP client; timeout defaults to 10s.
func NewArticleExtractor(client *http.Client, log *slog.Logger) *ArticleExtractor {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &ArticleExtractor{client: client, logger: log}
}

// ExtractText returns the text of every <p> joined by spaces, or "" on any failure.
func (a *ArticleExtractor) ExtractText(ctx context.Context, pageURL string) string {
	if strings.TrimSpace(pageURL) == "" {
		return ""
	}
	doc, err := a.fetchDocument(ctx, pageURL)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("article fetch failed", "url", pageURL, "error", err)
		}
		return ""
	}
	return paragraphText(doc)
}

func (a *ArticleExtractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NewsNarrator/1.0)")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func paragraphText(doc *goquery.Document) string {
	parts := make([]string, 0)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.Join(strings.Fields(p.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
