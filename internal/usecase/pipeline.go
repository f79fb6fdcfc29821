package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
	"NewsNarrator/internal/ranking"
	"NewsNarrator/internal/retrieval"
)

// ErrPipelinePanic wraps a panic that escaped a stage.
var ErrPipelinePanic = errors.New("pipeline panicked")

// Ranker scores candidate texts against the keyword list.
type Ranker interface {
	Rank(ctx context.Context, queries []string, candidates []ranking.Candidate) ([]ranking.Ranked, error)
}

// InsightBuilder produces the per-article summary and events.
type InsightBuilder interface {
	Body(ctx context.Context, article domain.Article) string
	Build(ctx context.Context, article domain.Article, body string) domain.Insight
}

// Deduper returns the indexes of bodies to keep.
type Deduper func(bodies []string) []int

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Text     ports.TextService
	Source   ports.ArticleSource
	Store    ports.DocumentStore
	Ranker   Ranker
	Insights InsightBuilder
	Dedupe   Deduper
	Logger   *slog.Logger
	Now      func() time.Time
}

// PipelineOptions tunes behaviour that is not tied to an adapter.
type PipelineOptions struct {
	// ReadBack makes stages 2 and 4 continue with everything stored in the
	// category instead of the batch they just produced.
	ReadBack bool
	// Workers bounds concurrent article processing in the insight stage.
	Workers int
}

// Pipeline implements the topic-to-story workflow.
type Pipeline struct {
	text     ports.TextService
	source   ports.ArticleSource
	store    ports.DocumentStore
	ranker   Ranker
	insights InsightBuilder
	dedupe   Deduper
	logger   *slog.Logger
	now      func() time.Time
	opts     PipelineOptions
}

type stageFunc func(ctx context.Context, s State) State

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts PipelineOptions) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Dedupe == nil {
		deps.Dedupe = func(bodies []string) []int {
			keep := make([]int, len(bodies))
			for i := range bodies {
				keep[i] = i
			}
			return keep
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		text:     deps.Text,
		source:   deps.Source,
		store:    deps.Store,
		ranker:   deps.Ranker,
		insights: deps.Insights,
		dedupe:   deps.Dedupe,
		logger:   deps.Logger,
		now:      deps.Now,
		opts:     opts,
	}
}

// Run executes every stage in order. Stage failures degrade the state and are
// listed in State.Stages; only a panic escaping a stage produces an error.
func (p *Pipeline) Run(ctx context.Context, userInput string) (state State, err error) {
	state = State{RunID: uuid.NewString(), UserInput: userInput}
	log := p.logger.With("run_id", state.RunID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r)
			err = fmt.Errorf("%w: %v", ErrPipelinePanic, r)
		}
	}()

	stages := []struct {
		name Stage
		run  stageFunc
	}{
		{StageKeywords, p.extractKeywords},
		{StageFetch, p.fetchArticles},
		{StageFilter, p.filterArticles},
		{StageInsights, p.summarizeInsights},
		{StageStory, p.generateStory},
	}

	log.Info("pipeline start", "input_words", len(strings.Fields(userInput)))
	for _, st := range stages {
		started := time.Now()
		state = st.run(ctx, state)
		report := &state.Stages[len(state.Stages)-1]
		report.Duration = time.Since(started)
		if report.Err != nil {
			log.Warn("stage degraded", "stage", st.name, "count", report.Count, "error", report.Err)
		} else {
			log.Info("stage done", "stage", st.name, "count", report.Count, "duration", report.Duration)
		}
	}
	return state, nil
}

func (p *Pipeline) extractKeywords(ctx context.Context, s State) State {
	blob, err := p.text.ExtractEvents(ctx, s.UserInput)
	if err != nil {
		blob = ""
	}
	s.KeywordBlob = blob
	s.Keywords = retrieval.SplitTopics(blob)
	return s.withReport(StageReport{Stage: StageKeywords, Count: len(s.Keywords), Err: err})
}

func (p *Pipeline) fetchArticles(ctx context.Context, s State) State {
	var (
		fresh []domain.Article
		seen  = map[string]struct{}{}
		errs  []error
	)
	for _, topic := range s.Keywords {
		for _, article := range p.source.Fetch(ctx, topic) {
			rec, err := domain.NewsRecord(article, p.now())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := p.store.Write(ctx, rec); err != nil {
				errs = append(errs, fmt.Errorf("persist %q: %w", article.Title, err))
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			fresh = append(fresh, article)
		}
	}

	working := fresh
	if p.opts.ReadBack {
		stored, err := p.readArticles(ctx)
		if err != nil {
			errs = append(errs, err)
		} else {
			working = stored
		}
	}

	s.CandidateArticles = working
	return s.withReport(StageReport{Stage: StageFetch, Count: len(working), Err: errors.Join(errs...)})
}

func (p *Pipeline) readArticles(ctx context.Context) ([]domain.Article, error) {
	records, err := p.store.ReadAll(ctx, domain.CategoryNews)
	if err != nil {
		return nil, fmt.Errorf("read back news: %w", err)
	}
	articles := make([]domain.Article, 0, len(records))
	for _, rec := range records {
		a, err := domain.ArticleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func (p *Pipeline) filterArticles(ctx context.Context, s State) State {
	candidates := make([]ranking.Candidate, 0, len(s.CandidateArticles))
	for i, a := range s.CandidateArticles {
		candidates = append(candidates, ranking.Candidate{Key: i, Text: a.Title})
	}

	ranked, err := p.ranker.Rank(ctx, s.Keywords, candidates)
	if err != nil {
		s.RelevantArticles = nil
		return s.withReport(StageReport{Stage: StageFilter, Err: err})
	}

	relevant := make([]domain.Article, 0, len(ranked))
	for _, r := range ranked {
		relevant = append(relevant, s.CandidateArticles[r.Key])
	}
	s.RelevantArticles = relevant
	return s.withReport(StageReport{Stage: StageFilter, Count: len(relevant)})
}

func (p *Pipeline) summarizeInsights(ctx context.Context, s State) State {
	articles := s.RelevantArticles

	bodies := make([]string, len(articles))
	p.forEach(ctx, len(articles), func(ctx context.Context, i int) {
		bodies[i] = p.insights.Body(ctx, articles[i])
	})

	keep := p.dedupe(bodies)
	built := make([]domain.Insight, len(keep))
	p.forEach(ctx, len(keep), func(ctx context.Context, i int) {
		idx := keep[i]
		built[i] = p.insights.Build(ctx, articles[idx], bodies[idx])
	})

	var errs []error
	for _, in := range built {
		rec, err := domain.InsightRecord(in, p.now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.store.Write(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("persist insight %q: %w", in.SubjectTitle, err))
		}
	}

	working := built
	if p.opts.ReadBack {
		stored, err := p.readInsights(ctx)
		if err != nil {
			errs = append(errs, err)
		} else {
			working = stored
		}
	}

	s.Insights = working
	return s.withReport(StageReport{Stage: StageInsights, Count: len(working), Err: errors.Join(errs...)})
}

func (p *Pipeline) readInsights(ctx context.Context) ([]domain.Insight, error) {
	records, err := p.store.ReadAll(ctx, domain.CategoryInsights)
	if err != nil {
		return nil, fmt.Errorf("read back insights: %w", err)
	}
	insights := make([]domain.Insight, 0, len(records))
	for _, rec := range records {
		in, err := domain.InsightFromRecord(rec)
		if err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, nil
}

func (p *Pipeline) generateStory(ctx context.Context, s State) State {
	events := EventLines(s.Insights)

	var errs []error
	narrative, err := p.text.ComposeStory(ctx, events)
	if err != nil || strings.TrimSpace(narrative) == "" {
		if err != nil {
			errs = append(errs, err)
		}
		narrative = domain.DefaultNarrative
	}

	rec, err := domain.StoryRecord(domain.Story{
		Title:     domain.StoryTitleFor(s.UserInput),
		Events:    events,
		Narrative: narrative,
	}, p.now())
	if err == nil {
		err = p.store.Write(ctx, rec)
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("persist story: %w", err))
	}

	s.Narrative = narrative
	s.HasNarrative = true
	return s.withReport(StageReport{Stage: StageStory, Count: len(events), Err: errors.Join(errs...)})
}

// EventLines flattens insight events into trimmed, non-empty lines in insight then line order.
func EventLines(insights []domain.Insight) []string {
	lines := make([]string, 0)
	for _, in := range insights {
		if strings.TrimSpace(in.EventsText) == "" {
			continue
		}
		for _, line := range strings.Split(in.EventsText, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// forEach runs fn for 0..n-1 with at most opts.Workers in flight.
// A panic inside fn is re-raised on the calling goroutine once all work stops.
func (p *Pipeline) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d: %v", i, r)
				}
			}()
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
}
