package prioritize

import (
	"sort"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// Source type priority weights, multiplied against the ML confidence
// score before the threshold check. Documents are deliberate,
// structured, written for purpose; Slack is the noisiest tier.
var sourceWeights = map[model.SourceType]float64{
	model.SourceDocument:   1.00,
	model.SourceTranscript: 0.90,
	model.SourceEmail:      0.65,
	model.SourceSlack:      0.50,
}

// defaultWeight applies to unrecognized source types
const defaultWeight = 0.60

// Display tiers order the extraction prompt and downstream views
var displayTiers = map[model.SourceType]int{
	model.SourceDocument:   0,
	model.SourceTranscript: 1,
	model.SourceEmail:      2,
	model.SourceSlack:      3,
}

// PriorityLabel tags a source for the extraction prompt
type PriorityLabel string

const (
	LabelPrimary    PriorityLabel = "PRIMARY"    // Extract from these first
	LabelSupporting PriorityLabel = "SUPPORTING" // Context only
)

// Weight returns the priority weight for a source type
func Weight(t model.SourceType) float64 {
	if w, ok := sourceWeights[t]; ok {
		return w
	}
	return defaultWeight
}

// ApplyWeight multiplies an ML confidence by the source type weight,
// clamped to 1.0
func ApplyWeight(mlConfidence float64, t model.SourceType) float64 {
	score := mlConfidence * Weight(t)
	if score > 1.0 {
		return 1.0
	}
	return score
}

// AlwaysInclude reports whether a source type passes the relevance
// threshold regardless of score. Documents and transcripts are trusted
// a priori; emails and Slack must earn their way past the threshold.
func AlwaysInclude(t model.SourceType) bool {
	return t == model.SourceDocument || t == model.SourceTranscript
}

// Label returns PRIMARY or SUPPORTING for a source type
func Label(t model.SourceType) PriorityLabel {
	if t == model.SourceDocument || t == model.SourceTranscript {
		return LabelPrimary
	}
	return LabelSupporting
}

// PriorityFor returns the display priority bucket for a source type
func PriorityFor(t model.SourceType) model.SourcePriority {
	switch t {
	case model.SourceTranscript:
		return model.PriorityHigh
	case model.SourceDocument:
		return model.PriorityMedium
	default:
		return model.PriorityNormal
	}
}

func tier(t model.SourceType) int {
	if d, ok := displayTiers[t]; ok {
		return d
	}
	return 4
}

// SortByPriority orders sources for the extraction prompt and display:
// documents first, then transcripts, emails, slack; within each tier by
// relevance score descending. The sort is stable so equal-score sources
// keep their input order.
func SortByPriority(sources []model.Source) []model.Source {
	sorted := make([]model.Source, len(sources))
	copy(sorted, sources)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := tier(sorted[i].Type), tier(sorted[j].Type)
		if ti != tj {
			return ti < tj
		}
		return sorted[i].RelevanceScore > sorted[j].RelevanceScore
	})

	return sorted
}
