package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"NewsNarrator/internal/ports"
)

const (
	DefaultTopK      = 15
	DefaultThreshold = 0.4
)

var ErrNoQueries = errors.New("no query could be embedded")

// Candidate is one text to score, identified by the caller's key.
type Candidate struct {
	Key  int
	Text string
}

// Ranked is a candidate key with its best similarity to any query.
type Ranked struct {
	Key   int
	Score float64
}

// Ranker scores candidates by max cosine similarity over a set of query texts.
// Corpus-bound embedders are prepared per call, so a Ranker is safe for concurrent use.
type Ranker struct {
	embedder  ports.Embedder
	topK      int
	threshold float64
	logger    *slog.Logger
}

// Option customizes a Ranker.
type Option func(*Ranker)

// WithTopK overrides the result cap.
func WithTopK(k int) Option {
	return func(r *Ranker) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithThreshold overrides the similarity floor.
func WithThreshold(t float64) Option {
	return func(r *Ranker) { r.threshold = t }
}

// WithLogger attaches a logger for per-candidate failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Ranker) { r.logger = l }
}

// New builds a ranker with top-15 and a 0.4 floor unless overridden.
func New(embedder ports.Embedder, opts ...Option) *Ranker {
	r := &Ranker{
		embedder:  embedder,
		topK:      DefaultTopK,
		threshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank returns candidates sorted by score descending, ties in input order,
// dropping blanks and anything under the floor, capped at top-K.
// On error the result is empty; callers treat that as "nothing relevant".
func (r *Ranker) Rank(ctx context.Context, queries []string, candidates []Candidate) ([]Ranked, error) {
	cleanQueries := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleanQueries = append(cleanQueries, q)
		}
	}
	if len(cleanQueries) == 0 {
		return nil, ErrNoQueries
	}

	scorable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		scorable = append(scorable, c)
	}
	if len(scorable) == 0 {
		return nil, nil
	}

	embedder := r.embedder
	if p, ok := embedder.(ports.CorpusPreparer); ok {
		documents := make([]string, 0, len(scorable))
		for _, c := range scorable {
			documents = append(documents, c.Text)
		}
		prepared, err := p.Prepare(cleanQueries, documents)
		if err != nil {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
		embedder = prepared
	}

	memo := make(map[string][]float64)
	embed := func(text string) ([]float64, error) {
		if v, ok := memo[text]; ok {
			return v, nil
		}
		v, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		memo[text] = v
		return v, nil
	}

	queryVecs := make([][]float64, 0, len(cleanQueries))
	var lastErr error
	for _, q := range cleanQueries {
		v, err := embed(q)
		if err != nil {
			lastErr = err
			r.warn("embed query failed", "query", q, "error", err)
			continue
		}
		queryVecs = append(queryVecs, v)
	}
	if len(queryVecs) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoQueries, lastErr)
		}
		return nil, ErrNoQueries
	}

	ranked := make([]Ranked, 0, len(scorable))
	for _, c := range scorable {
		v, err := embed(c.Text)
		if err != nil {
			r.warn("embed candidate failed", "key", c.Key, "error", err)
			continue
		}
		best := math.Inf(-1)
		for _, q := range queryVecs {
			if s := Cosine(v, q); s > best {
				best = s
			}
		}
		if best < r.threshold {
			continue
		}
		ranked = append(ranked, Ranked{Key: c.Key, Score: best})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (r *Ranker) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
