package provider

import (
	"strings"
	"time"

	"NewsNarrator/internal/domain"
)

const removedPlaceholder = "[Removed]"

// normalize trims fields, drops unidentifiable or removed items and dedupes by url.
func normalize(in []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a.Title = strings.TrimSpace(a.Title)
		a.URL = strings.TrimSpace(a.URL)
		a.BodyText = strings.TrimSpace(a.BodyText)
		a.Source = strings.TrimSpace(a.Source)
		if !a.Identifiable() || a.Title == removedPlaceholder {
			continue
		}
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

func parseTime(layouts []string, value string) time.Time {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
