package model

// UnverifiedQuotePlaceholder replaces any source quote that failed
// citation verification. The original quote is discarded, never kept.
const UnverifiedQuotePlaceholder = "[Citation not verified — review required]"

// BRD is the structured Business Requirements Document produced by the
// extraction step. The shape is fixed: generation failure yields an
// empty skeleton with the same fields, never a missing section.
type BRD struct {
	ExecutiveSummary          string          `json:"executive_summary"`
	BusinessObjectives        []Objective     `json:"business_objectives"`
	StakeholderAnalysis       []Stakeholder   `json:"stakeholder_analysis"`
	FunctionalRequirements    []Requirement   `json:"functional_requirements"`
	NonFunctionalRequirements []Requirement   `json:"non_functional_requirements"`
	Assumptions               []Assumption    `json:"assumptions"`
	SuccessMetrics            []SuccessMetric `json:"success_metrics"`
	Timeline                  Timeline        `json:"timeline"`

	HasUnverifiedCitations bool `json:"_has_unverified_citations"`
	UnverifiedCount        int  `json:"_unverified_count"`
}

// Objective is a business objective with its cited justification
type Objective struct {
	ID               string `json:"id"`
	Description      string `json:"description"`
	Priority         string `json:"priority"` // high, medium, low
	SourceQuote      string `json:"source_quote"`
	SourceDoc        string `json:"source_doc,omitempty"`
	CitationVerified bool   `json:"citation_verified"`
}

// Requirement is a functional or non-functional requirement.
// SourceQuote and CitationVerified are mutated exactly once, by the
// citation guard, immediately after extraction.
type Requirement struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category,omitempty"` // non-functional only
	Priority         string `json:"priority"`
	SourceQuote      string `json:"source_quote"`
	SourceDoc        string `json:"source_doc,omitempty"`
	CitationVerified bool   `json:"citation_verified"`
}

// Stakeholder identified in the source communications
type Stakeholder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Interest  string `json:"interest"`
	Influence string `json:"influence"` // high, medium, low
}

// Assumption recorded alongside the requirements
type Assumption struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Risk        string `json:"risk,omitempty"`
}

// SuccessMetric with its target and measurement method
type SuccessMetric struct {
	ID          string `json:"id"`
	Metric      string `json:"metric"`
	Target      string `json:"target"`
	Measurement string `json:"measurement"`
}

// Timeline holds the phased delivery plan
type Timeline struct {
	Phases []Phase `json:"phases"`
}

// Phase is one delivery phase
type Phase struct {
	Name         string   `json:"name"`
	Duration     string   `json:"duration"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// EmptyBRD returns the well-formed skeleton used when generation fails
func EmptyBRD() *BRD {
	return &BRD{
		ExecutiveSummary:          "Extraction failed — please retry.",
		BusinessObjectives:        []Objective{},
		StakeholderAnalysis:       []Stakeholder{},
		FunctionalRequirements:    []Requirement{},
		NonFunctionalRequirements: []Requirement{},
		Assumptions:               []Assumption{},
		SuccessMetrics:            []SuccessMetric{},
		Timeline:                  Timeline{Phases: []Phase{}},
	}
}

// RequirementCount returns the total number of requirement-bearing items
func (b *BRD) RequirementCount() int {
	return len(b.BusinessObjectives) + len(b.FunctionalRequirements) + len(b.NonFunctionalRequirements)
}
