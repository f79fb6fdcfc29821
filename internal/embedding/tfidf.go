package embedding

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"NewsNarrator/internal/ports"
)

var (
	_ ports.Embedder       = (*TFIDF)(nil)
	_ ports.CorpusPreparer = (*TFIDF)(nil)
	_ ports.Embedder       = (*TFIDFModel)(nil)
)

var errNotPrepared = errors.New("tfidf embedder not prepared")

// TFIDF builds corpus-bound TF-IDF models. It holds no corpus state itself,
// so one instance can serve concurrent Prepare calls.
type TFIDF struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// TFIDFModel embeds texts against a fixed vocabulary. It is immutable.
// Vectors are L2-normalized so cosine similarity equals the dot product.
type TFIDFModel struct {
	owner      *TFIDF
	vocabulary map[string]int
	idf        []float64
}

// NewTFIDF creates an unprepared TF-IDF embedder.
func NewTFIDF() *TFIDF {
	return &TFIDF{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Embed fails: vectors only exist relative to a prepared corpus.
func (e *TFIDF) Embed(context.Context, string) ([]float64, error) {
	return nil, errNotPrepared
}

// Prepare computes IDF over queries and documents together.
// With queries present the vocabulary is limited to query terms, so a
// document vector only carries weight on words some query uses. Without
// queries the vocabulary spans the whole corpus.
func (e *TFIDF) Prepare(queries, documents []string) (ports.Embedder, error) {
	return e.Fit(queries, documents)
}

// Fit is Prepare with the concrete model type.
func (e *TFIDF) Fit(queries, documents []string) (*TFIDFModel, error) {
	corpus := make([]string, 0, len(queries)+len(documents))
	corpus = append(corpus, queries...)
	corpus = append(corpus, documents...)
	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for TF-IDF prepare")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	scope := df
	if len(queries) > 0 {
		scope = make(map[string]int)
		for _, q := range queries {
			for _, tok := range e.tokenize(q) {
				scope[tok] = df[tok]
			}
		}
	}

	terms := make([]string, 0, len(scope))
	for term := range scope {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return nil, errors.New("no tokens found in corpus")
	}

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocabulary[term] = i
		// smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return &TFIDFModel{owner: e, vocabulary: vocabulary, idf: idf}, nil
}

// Dimension returns the vocabulary size.
func (m *TFIDFModel) Dimension() int { return len(m.idf) }

// Embed computes the TF-IDF vector of text against the model vocabulary.
func (m *TFIDFModel) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, len(m.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range m.owner.tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * m.idf[idx]
	}
	return normalize(vec), nil
}

func (e *TFIDF) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalize(vec []float64) []float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
