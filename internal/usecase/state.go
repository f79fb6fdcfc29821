package usecase

import (
	"time"

	"NewsNarrator/internal/domain"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageKeywords Stage = "keywords_extracted"
	StageFetch    Stage = "articles_fetched"
	StageFilter   Stage = "articles_filtered"
	StageInsights Stage = "insights_summarized"
	StageStory    Stage = "story_generated"
)

// StageReport records what a stage produced, or why it came up short.
type StageReport struct {
	Stage    Stage
	Count    int
	Err      error
	Duration time.Duration
}

// OK reports whether the stage finished without degrading.
func (r StageReport) OK() bool { return r.Err == nil }

// State is the snapshot threaded through the stages; each stage returns a new one.
type State struct {
	RunID             string
	UserInput         string
	KeywordBlob       string
	Keywords          []string
	CandidateArticles []domain.Article
	RelevantArticles  []domain.Article
	Insights          []domain.Insight
	Narrative         string
	HasNarrative      bool
	Stages            []StageReport
}

// Report returns the report of the named stage, if it ran.
func (s State) Report(stage Stage) (StageReport, bool) {
	for _, r := range s.Stages {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageReport{}, false
}

func (s State) withReport(r StageReport) State {
	stages := make([]StageReport, len(s.Stages), len(s.Stages)+1)
	copy(stages, s.Stages)
	s.Stages = append(stages, r)
	return s
}
