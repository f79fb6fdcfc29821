package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"news", "news_insights", "news_stories"} {
		c, err := ParseCategory(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}

	_, err := ParseCategory("relevant_news")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRecordIDIsStableAndRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	a, err := RecordID("Tesla unveils robotaxi")
	require.NoError(t, err)
	b, err := RecordID("  Tesla unveils robotaxi ")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	_, err = RecordID("   ")
	require.ErrorIs(t, err, ErrEmptyNaturalKey)
}

func TestNewsRecordRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)
	article := Article{
		Title:       "OpenAI ships a new model",
		URL:         "https://example.com/openai",
		BodyText:    "Short description.",
		Source:      "Example News",
		PublishedAt: now.Add(-time.Hour),
	}

	rec, err := NewsRecord(article, now)
	require.NoError(t, err)
	require.NoError(t, rec.Validate())
	assert.Equal(t, CategoryNews, rec.Category)
	assert.Equal(t, "2025-03-04", rec.Metadata.String("date_inserted"))

	got, err := ArticleFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, article, got)

	_, err = InsightFromRecord(rec)
	require.ErrorIs(t, err, ErrCategoryMismatch)
}

func TestNewsRecordRejectsMissingTitle(t *testing.T) {
	t.Parallel()

	_, err := NewsRecord(Article{URL: "https://example.com"}, time.Now())
	require.ErrorIs(t, err, ErrEmptyNaturalKey)
}

func TestInsightAndStoryRecords(t *testing.T) {
	t.Parallel()

	now := time.Now()
	in := Insight{
		SubjectTitle: "Chip exports",
		SourceURLs:   []string{"https://a.example", "https://b.example"},
		SummaryText:  "Exports rose.",
		EventsText:   "Event one.\nEvent two.",
	}
	rec, err := InsightRecord(in, now)
	require.NoError(t, err)
	back, err := InsightFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, in, back)

	story := Story{Title: StoryTitleFor("chips"), Events: []string{"Event one."}, Narrative: "Once upon a time."}
	rec, err = StoryRecord(story, now)
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time.", rec.Content)
	gotStory, err := StoryFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, story, gotStory)
}

func TestMetadataValidateAndNormalize(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Metadata{"n": 3}.Validate(), ErrInvalidMetadata)

	meta, err := NormalizeMetadata(map[string]any{
		"title": "x",
		"urls":  []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, meta.Strings("urls"))
	assert.Equal(t, "a, b", meta.String("urls"))

	_, err = NormalizeMetadata(map[string]any{"urls": []any{1}})
	require.ErrorIs(t, err, ErrInvalidMetadata)
}
