package prioritize

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/chaitenyachand/ProjectIQ/internal/classifier"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// reviewFloor is the confidence below which a filtered-out source is
// discarded outright instead of routed to the review bucket
const reviewFloor = 0.25

// RelevanceClassifier scores a batch of texts. Satisfied by
// *classifier.Client; tests inject scripted implementations.
type RelevanceClassifier interface {
	Classify(ctx context.Context, texts []string) ([]classifier.Prediction, error)
}

// FilterResult is the outcome of one noise-filtering pass
type FilterResult struct {
	FilteredSources []model.Source           `json:"filtered_sources"`
	NeedsReview     []model.Source           `json:"needs_review,omitempty"`
	TotalInput      int                      `json:"total_input"`
	TotalRelevant   int                      `json:"total_relevant"`
	NoiseRemoved    int                      `json:"noise_removed"`
	Breakdown       map[model.SourceType]int `json:"source_breakdown"`
}

// Filterer removes irrelevant sources using the relevance classifier
// and applies source-type priority weighting
type Filterer struct {
	classifier      RelevanceClassifier
	threshold       float64
	maxContentChars int
	verbose         bool
}

// NewFilterer creates a new source filterer
func NewFilterer(c RelevanceClassifier, cfg model.ClassifierConfig, verbose bool) *Filterer {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.30
	}
	maxChars := cfg.MaxContentChars
	if maxChars <= 0 {
		maxChars = 2000
	}

	return &Filterer{
		classifier:      c,
		threshold:       threshold,
		maxContentChars: maxChars,
		verbose:         verbose,
	}
}

// Filter scores every source, applies type weights, and splits the
// input into relevant, needs-review, and discarded sets. If the
// classifier is unavailable it fails open: every source passes through
// fully relevant rather than blocking the pipeline.
func (f *Filterer) Filter(ctx context.Context, sources []model.Source) *FilterResult {
	if len(sources) == 0 {
		return &FilterResult{
			FilteredSources: []model.Source{},
			Breakdown:       map[model.SourceType]int{},
		}
	}

	texts := make([]string, len(sources))
	for i, s := range sources {
		text := CleanContent(s.Content)
		if len(text) > f.maxContentChars {
			text = text[:f.maxContentChars]
		}
		texts[i] = text
	}

	predictions, err := f.classifier.Classify(ctx, texts)
	if err != nil {
		if f.verbose {
			fmt.Fprintf(os.Stderr, "Warning: relevance classifier unavailable (%v), passing all sources\n", err)
		}
		return f.failOpen(sources)
	}

	var filtered, review []model.Source
	for i, s := range sources {
		pred := predictions[i]
		t := model.NormalizeType(string(s.Type))
		weighted := round3(ApplyWeight(pred.Confidence, t))
		always := AlwaysInclude(t)

		switch {
		case always || (pred.IsRelevant && weighted >= f.threshold):
			s.RelevanceScore = weighted
			s.MLConfidence = round3(pred.Confidence)
			s.IsRelevant = true
			s.NeedsReview = weighted < 0.5 && !always
			s.SourcePriority = PriorityFor(t)
			filtered = append(filtered, s)

		case pred.Confidence >= reviewFloor:
			// Low confidence but not zero: flag for user review
			// instead of discarding outright
			s.RelevanceScore = weighted
			s.MLConfidence = round3(pred.Confidence)
			s.IsRelevant = false
			s.NeedsReview = true
			review = append(review, s)
		}
	}

	filtered = SortByPriority(filtered)

	breakdown := make(map[model.SourceType]int)
	for _, s := range filtered {
		breakdown[model.NormalizeType(string(s.Type))]++
	}

	return &FilterResult{
		FilteredSources: filtered,
		NeedsReview:     review,
		TotalInput:      len(sources),
		TotalRelevant:   len(filtered),
		NoiseRemoved:    len(sources) - len(filtered) - len(review),
		Breakdown:       breakdown,
	}
}

// failOpen passes every source through fully relevant
func (f *Filterer) failOpen(sources []model.Source) *FilterResult {
	filtered := make([]model.Source, len(sources))
	for i, s := range sources {
		s.RelevanceScore = 1.0
		s.IsRelevant = true
		s.SourcePriority = PriorityFor(model.NormalizeType(string(s.Type)))
		filtered[i] = s
	}

	breakdown := make(map[model.SourceType]int)
	for _, s := range filtered {
		breakdown[model.NormalizeType(string(s.Type))]++
	}

	return &FilterResult{
		FilteredSources: SortByPriority(filtered),
		TotalInput:      len(sources),
		TotalRelevant:   len(sources),
		NoiseRemoved:    0,
		Breakdown:       breakdown,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
