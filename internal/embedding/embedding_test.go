package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTFIDFRequiresPrepare(t *testing.T) {
	t.Parallel()

	e := NewTFIDF()
	_, err := e.Embed(context.Background(), "tesla")
	require.Error(t, err)
}

func TestTFIDFVectorsAreNormalizedAndDeterministic(t *testing.T) {
	t.Parallel()

	m, err := NewTFIDF().Fit(nil, []string{"Tesla stock jumps", "OpenAI releases model", "Tesla"})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Dimension())

	a, err := m.Embed(context.Background(), "Tesla stock jumps")
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), "Tesla stock jumps")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	norm := 0.0
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)

	zero, err := m.Embed(context.Background(), "the and of")
	require.NoError(t, err)
	for _, v := range zero {
		assert.Zero(t, v)
	}
}

func TestTFIDFQueryVocabularyScoresFullHeadlines(t *testing.T) {
	t.Parallel()

	headlines := []string{
		"Tesla shares slide after quarterly deliveries miss Wall Street estimates",
		"Central bank holds interest rates steady amid cooling inflation",
	}
	m, err := NewTFIDF().Fit([]string{"Tesla"}, headlines)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dimension())

	q, err := m.Embed(context.Background(), "Tesla")
	require.NoError(t, err)
	onTopic, err := m.Embed(context.Background(), headlines[0])
	require.NoError(t, err)
	offTopic, err := m.Embed(context.Background(), headlines[1])
	require.NoError(t, err)

	assert.Equal(t, []float64{1}, q)
	assert.Equal(t, []float64{1}, onTopic)
	assert.Equal(t, []float64{0}, offTopic)
}

func TestTFIDFPrepareLeavesEarlierModelsIntact(t *testing.T) {
	t.Parallel()

	e := NewTFIDF()
	first, err := e.Prepare([]string{"Tesla"}, []string{"Tesla recalls cars"})
	require.NoError(t, err)
	_, err = e.Prepare([]string{"OpenAI"}, []string{"OpenAI ships a model"})
	require.NoError(t, err)

	v, err := first.Embed(context.Background(), "Tesla recalls cars")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)

	_, err = e.Prepare([]string{"the"}, []string{"of and"})
	assert.Error(t, err)
}

func TestOpenAIEmbedParsesBothShapes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["input"] == "ollama" {
			_, _ = w.Write([]byte(`{"embedding":[0.5,0.5]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0,0]}]}`))
	}))
	defer server.Close()

	c := NewOpenAI(OpenAIConfig{BaseURL: server.URL, APIKey: "secret"})

	v, err := c.Embed(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, v)

	v, err = c.Embed(context.Background(), "ollama")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, v)
}

func TestOpenAIEmbedRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0,1]}]}`))
	}))
	defer server.Close()

	c := NewOpenAI(OpenAIConfig{BaseURL: server.URL, MaxRetries: 3})
	c.sleep = func(time.Duration) {}

	v, err := c.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, v)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAIEmbedDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewOpenAI(OpenAIConfig{BaseURL: server.URL, MaxRetries: 3})
	c.sleep = func(time.Duration) {}

	_, err := c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
	assert.EqualValues(t, 1, calls.Load())
}

type countingEmbedder struct{ calls int }

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls++
	return []float64{float64(len(text))}, nil
}

func TestCachedEmbedsEachTextOnce(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{}
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		v, err := c.Embed(context.Background(), "tesla")
		require.NoError(t, err)
		assert.Equal(t, []float64{5}, v)
	}
	_, err := c.Embed(context.Background(), "openai")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, c.Len())
}
