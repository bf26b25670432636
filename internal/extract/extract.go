package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/prioritize"
)

// relevanceFloor drops sources the filter scored at or below this
// value, unless doing so would empty the input
const relevanceFloor = 0.25

// Extractor generates the structured BRD from prioritized sources
type Extractor struct {
	provider llm.Provider
	verbose  bool
}

// NewExtractor creates a new BRD extractor
func NewExtractor(provider llm.Provider, verbose bool) *Extractor {
	return &Extractor{provider: provider, verbose: verbose}
}

// Extract generates the BRD skeleton from the given sources and runs
// the citation guard over the result. Unparseable model output
// degrades to a well-formed empty skeleton; only a failed provider
// call is returned as an error.
func (e *Extractor) Extract(ctx context.Context, sources []model.Source) (*model.BRD, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	relevant := make([]model.Source, 0, len(sources))
	for _, s := range sources {
		if s.RelevanceScore > relevanceFloor {
			relevant = append(relevant, s)
		}
	}
	if len(relevant) == 0 {
		relevant = sources
	}

	relevant = prioritize.SortByPriority(relevant)

	raw, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: buildPrompt(relevant),
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	brd := parseBRD(raw, e.verbose)
	VerifyCitations(brd, relevant)

	if e.verbose && brd.UnverifiedCount > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d unverified citations flagged for review\n", brd.UnverifiedCount)
	}

	return brd, nil
}

// parseBRD decodes the model output, degrading to the empty skeleton
// on any parse failure
func parseBRD(raw string, verbose bool) *model.BRD {
	cleaned := llm.StripFences(raw)

	var brd model.BRD
	if err := json.Unmarshal([]byte(cleaned), &brd); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: BRD parse error: %v\n", err)
		}
		return model.EmptyBRD()
	}

	// Normalize nil sections so the shape is always fixed
	if brd.BusinessObjectives == nil {
		brd.BusinessObjectives = []model.Objective{}
	}
	if brd.StakeholderAnalysis == nil {
		brd.StakeholderAnalysis = []model.Stakeholder{}
	}
	if brd.FunctionalRequirements == nil {
		brd.FunctionalRequirements = []model.Requirement{}
	}
	if brd.NonFunctionalRequirements == nil {
		brd.NonFunctionalRequirements = []model.Requirement{}
	}
	if brd.Assumptions == nil {
		brd.Assumptions = []model.Assumption{}
	}
	if brd.SuccessMetrics == nil {
		brd.SuccessMetrics = []model.SuccessMetric{}
	}
	if brd.Timeline.Phases == nil {
		brd.Timeline.Phases = []model.Phase{}
	}

	return &brd
}
