package domain

import (
	"strings"
	"time"
)

// Article is a core entity describing a news item fetched from providers.
type Article struct {
	Title       string
	URL         string
	BodyText    string
	Source      string
	PublishedAt time.Time
}

// Identifiable reports whether the article carries the fields used for identity.
func (a Article) Identifiable() bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.URL) != ""
}

// Insight is the summary and extracted-events pair produced for one article.
type Insight struct {
	SubjectTitle string
	SourceURLs   []string
	SummaryText  string
	EventsText   string
}

// Story is the composed narrative together with the event lines it was built from.
type Story struct {
	Title     string
	Events    []string
	Narrative string
}

const (
	// DefaultStoryTitle is used when a story is stored without a subject.
	DefaultStoryTitle = "AI-generated story"

	// DefaultNarrative stands in for a story when there are no events or composition fails.
	DefaultNarrative = "No recent news developments were found for this topic, so there is no story to tell yet."
)

// StoryTitleFor derives the natural key of the story generated for a user request.
func StoryTitleFor(userInput string) string {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return DefaultStoryTitle
	}
	return "Story: " + userInput
}
