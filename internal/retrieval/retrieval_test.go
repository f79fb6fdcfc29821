package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

type fakeProvider struct {
	name     string
	articles map[string][]domain.Article
	err      error
	calls    []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, topic string) ([]domain.Article, error) {
	f.calls = append(f.calls, topic)
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[topic], nil
}

func TestSplitTopics(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"Tesla, OpenAI":                 {"Tesla", "OpenAI"},
		"Tesla\nOpenAI\r\n":             {"Tesla", "OpenAI"},
		" - Climate ,, \n* Elections ": {"Climate", "Elections"},
		"   ":                           {},
		"":                              {},
	}
	for in, want := range cases {
		assert.Equal(t, want, SplitTopics(in), "input %q", in)
	}
}

func TestChainSkipsFallbackWhenPrimaryHasArticles(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "newsapi", articles: map[string][]domain.Article{
		"Tesla": {{Title: "Tesla Q3", URL: "https://a/1"}},
	}}
	fallback := &fakeProvider{name: "mediastack"}

	got := NewChain([]ports.NewsProvider{primary, fallback}, time.Second, nil).Fetch(context.Background(), "Tesla")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Tesla"}, primary.calls)
	assert.Empty(t, fallback.calls)
}

func TestChainCallsFallbackOnceWhenPrimaryEmpty(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "newsapi", err: errors.New("503 Service Unavailable")}
	fallback := &fakeProvider{name: "mediastack", articles: map[string][]domain.Article{
		"OpenAI": {{Title: "OpenAI news", URL: "https://b/1"}, {Title: "More", URL: "https://b/2"}},
	}}

	got := NewChain([]ports.NewsProvider{primary, fallback}, time.Second, nil).Fetch(context.Background(), "OpenAI")
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"OpenAI"}, fallback.calls)
}

func TestChainBothEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "newsapi"}
	fallback := &fakeProvider{name: "mediastack", err: errors.New("timeout")}

	got := NewChain([]ports.NewsProvider{primary, fallback}, 0, nil).Fetch(context.Background(), "nothing")
	assert.Empty(t, got)
	assert.Len(t, primary.calls, 1)
	assert.Len(t, fallback.calls, 1)
}

func TestFetchAllKeepsTopicsIndependent(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "newsapi", articles: map[string][]domain.Article{
		"Tesla": {{Title: "Tesla Q3", URL: "https://a/1"}},
	}}
	fallback := &fakeProvider{name: "mediastack", articles: map[string][]domain.Article{
		"OpenAI": {{Title: "OpenAI news", URL: "https://b/1"}},
	}}

	results := NewChain([]ports.NewsProvider{primary, fallback}, time.Second, nil).
		FetchAll(context.Background(), []string{"Tesla", "OpenAI", "Unknown"})
	require.Len(t, results, 3)
	assert.Equal(t, "Tesla", results[0].Topic)
	assert.Len(t, results[0].Articles, 1)
	assert.Len(t, results[1].Articles, 1)
	assert.Empty(t, results[2].Articles)
	assert.Equal(t, []string{"OpenAI", "Unknown"}, fallback.calls)
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&fakeProvider{name: "newsapi"})
	reg.Register(&fakeProvider{name: "mediastack"})

	got, err := reg.ResolveAll([]string{"newsapi", "mediastack"})
	require.NoError(t, err)
	assert.Equal(t, "newsapi", got[0].Name())
	assert.Equal(t, []string{"mediastack", "newsapi"}, reg.Names())

	_, err = reg.Resolve("gnews")
	assert.Error(t, err)
}
