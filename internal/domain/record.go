package domain

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrEmptyNaturalKey  = errors.New("empty natural key")
	ErrInvalidMetadata  = errors.New("invalid metadata value")
	ErrCategoryMismatch = errors.New("record category mismatch")
)

// Category is the logical partition of the document store.
type Category string

const (
	CategoryNews     Category = "news"
	CategoryInsights Category = "news_insights"
	CategoryStories  Category = "news_stories"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryNews, CategoryInsights, CategoryStories}
}

// ParseCategory resolves a category name and fails on anything outside the closed set.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.TrimSpace(name))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate returns ErrUnknownCategory for values outside the closed set.
func (c Category) Validate() error {
	switch c {
	case CategoryNews, CategoryInsights, CategoryStories:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
}

func (c Category) String() string { return string(c) }

// Metadata is a flat map whose values are either string or []string.
type Metadata map[string]any

// String returns the value under key as a string; lists are joined with ", ".
func (m Metadata) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return ""
	}
}

// Strings returns the value under key as a list; a scalar becomes a single-element list.
func (m Metadata) Strings(key string) []string {
	switch v := m[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Validate checks that every value has one of the supported shapes.
func (m Metadata) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case string, []string:
		default:
			return fmt.Errorf("%w: key %q has type %T", ErrInvalidMetadata, k, v)
		}
	}
	return nil
}

// Clone returns a deep copy so stored records never alias caller slices.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// NormalizeMetadata converts decoded JSON values ([]any) back into the supported shapes.
func NormalizeMetadata(raw map[string]any) (Metadata, error) {
	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []string:
			out[k] = val
		case []any:
			list := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: key %q has list item of type %T", ErrInvalidMetadata, k, item)
				}
				list = append(list, s)
			}
			out[k] = list
		case nil:
			out[k] = ""
		default:
			return nil, fmt.Errorf("%w: key %q has type %T", ErrInvalidMetadata, k, v)
		}
	}
	return out, nil
}

// Record is the unit persisted in the document store.
type Record struct {
	Category Category
	ID       string
	Content  string
	Metadata Metadata
}

// Validate reports data errors that must fail fast at the call site.
func (r Record) Validate() error {
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		return ErrEmptyNaturalKey
	}
	return r.Metadata.Validate()
}

// RecordID hashes a natural key into a stable document id.
func RecordID(naturalKey string) (string, error) {
	key := strings.TrimSpace(naturalKey)
	if key == "" {
		return "", ErrEmptyNaturalKey
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:]), nil
}

const (
	metaDateInserted = "date_inserted"
	metaTitle        = "title"
	metaURL          = "url"
	metaDescription  = "description"
	metaSource       = "source"
	metaPublishedAt  = "published_at"
	metaURLs         = "urls"
	metaSummaries    = "summaries"
	metaEvents       = "events"
	metaStory        = "generated_story"
)

func baseMetadata(now time.Time, title string) Metadata {
	return Metadata{
		metaDateInserted: now.Format("2006-01-02"),
		metaTitle:        title,
	}
}

// NewsRecord converts a raw article into a `news` record keyed by its title.
func NewsRecord(a Article, now time.Time) (Record, error) {
	id, err := RecordID(a.Title)
	if err != nil {
		return Record{}, fmt.Errorf("news record: %w", err)
	}
	meta := baseMetadata(now, a.Title)
	meta[metaURL] = a.URL
	meta[metaDescription] = a.BodyText
	meta[metaSource] = a.Source
	if !a.PublishedAt.IsZero() {
		meta[metaPublishedAt] = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return Record{Category: CategoryNews, ID: id, Content: a.Title, Metadata: meta}, nil
}

// ArticleFromRecord restores an article from a `news` record.
func ArticleFromRecord(r Record) (Article, error) {
	if r.Category != CategoryNews {
		return Article{}, fmt.Errorf("%w: want %s, got %s", ErrCategoryMismatch, CategoryNews, r.Category)
	}
	a := Article{
		Title:    r.Metadata.String(metaTitle),
		URL:      r.Metadata.String(metaURL),
		BodyText: r.Metadata.String(metaDescription),
		Source:   r.Metadata.String(metaSource),
	}
	if a.Title == "" {
		a.Title = r.Content
	}
	if ts := r.Metadata.String(metaPublishedAt); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			a.PublishedAt = parsed
		}
	}
	return a, nil
}

// InsightRecord converts an insight into a `news_insights` record keyed by its subject title.
func InsightRecord(in Insight, now time.Time) (Record, error) {
	id, err := RecordID(in.SubjectTitle)
	if err != nil {
		return Record{}, fmt.Errorf("insight record: %w", err)
	}
	meta := baseMetadata(now, in.SubjectTitle)
	urls := make([]string, len(in.SourceURLs))
	copy(urls, in.SourceURLs)
	meta[metaURLs] = urls
	meta[metaSummaries] = in.SummaryText
	meta[metaEvents] = in.EventsText
	return Record{Category: CategoryInsights, ID: id, Content: in.SubjectTitle, Metadata: meta}, nil
}

// InsightFromRecord restores an insight from a `news_insights` record.
func InsightFromRecord(r Record) (Insight, error) {
	if r.Category != CategoryInsights {
		return Insight{}, fmt.Errorf("%w: want %s, got %s", ErrCategoryMismatch, CategoryInsights, r.Category)
	}
	in := Insight{
		SubjectTitle: r.Metadata.String(metaTitle),
		SourceURLs:   r.Metadata.Strings(metaURLs),
		SummaryText:  r.Metadata.String(metaSummaries),
		EventsText:   r.Metadata.String(metaEvents),
	}
	if in.SubjectTitle == "" {
		in.SubjectTitle = r.Content
	}
	return in, nil
}

// StoryRecord converts a story into a `news_stories` record keyed by its title.
func StoryRecord(s Story, now time.Time) (Record, error) {
	title := s.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultStoryTitle
	}
	id, err := RecordID(title)
	if err != nil {
		return Record{}, fmt.Errorf("story record: %w", err)
	}
	meta := baseMetadata(now, title)
	events := make([]string, len(s.Events))
	copy(events, s.Events)
	meta[metaEvents] = events
	meta[metaStory] = s.Narrative
	content := s.Narrative
	if content == "" {
		content = strings.Join(s.Events, "\n")
	}
	return Record{Category: CategoryStories, ID: id, Content: content, Metadata: meta}, nil
}

// StoryFromRecord restores a story from a `news_stories` record.
func StoryFromRecord(r Record) (Story, error) {
	if r.Category != CategoryStories {
		return Story{}, fmt.Errorf("%w: want %s, got %s", ErrCategoryMismatch, CategoryStories, r.Category)
	}
	s := Story{
		Title:     r.Metadata.String(metaTitle),
		Events:    r.Metadata.Strings(metaEvents),
		Narrative: r.Metadata.String(metaStory),
	}
	if s.Narrative == "" {
		s.Narrative = r.Content
	}
	return s, nil
}
