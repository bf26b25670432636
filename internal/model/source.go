package model

import "strings"

// SourceType identifies where a raw communication came from
type SourceType string

const (
	SourceDocument   SourceType = "document"   // Uploaded specs, PRDs, formal docs
	SourceTranscript SourceType = "transcript" // Meeting recordings
	SourceEmail      SourceType = "email"      // Mail threads
	SourceSlack      SourceType = "slack"      // Chat messages
)

// SourcePriority labels a filtered source for downstream display
type SourcePriority string

const (
	PriorityHigh   SourcePriority = "high"
	PriorityMedium SourcePriority = "medium"
	PriorityNormal SourcePriority = "normal"
)

// Source represents one unit of raw input material.
// Fetchers create sources; the prioritizer is the only component
// that mutates them (adding score and review fields).
type Source struct {
	ID       string            `json:"id,omitempty"`
	Type     SourceType        `json:"type"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`

	RelevanceScore float64        `json:"relevance_score,omitempty"`
	MLConfidence   float64        `json:"ml_confidence,omitempty"`
	IsRelevant     bool           `json:"is_relevant,omitempty"`
	NeedsReview    bool           `json:"needs_review,omitempty"`
	SourcePriority SourcePriority `json:"source_priority,omitempty"`
}

// NormalizeType maps arbitrary type strings onto a known SourceType.
// Unknown types are treated as slack (the lowest-trust tier).
func NormalizeType(raw string) SourceType {
	switch SourceType(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceDocument:
		return SourceDocument
	case SourceTranscript:
		return SourceTranscript
	case SourceEmail:
		return SourceEmail
	case SourceSlack:
		return SourceSlack
	default:
		return SourceSlack
	}
}
