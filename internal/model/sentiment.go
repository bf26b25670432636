package model

// SentimentReport summarizes stakeholder sentiment across sources.
// Always well-typed: generation failure substitutes NeutralSentiment.
type SentimentReport struct {
	Overall         string                 `json:"overall"` // positive, neutral, negative, mixed
	Score           float64                `json:"score"`   // 0.0 (very negative) to 1.0 (very positive)
	Urgency         string                 `json:"urgency"` // high, medium, low
	ConfidenceLevel string                 `json:"confidence_level,omitempty"`
	Stakeholders    []StakeholderSentiment `json:"stakeholders"`
	Concerns        []Concern              `json:"concerns"`
	PositiveSignals []PositiveSignal       `json:"positive_signals"`
	Recommendations []string               `json:"recommendations"`
}

// StakeholderSentiment captures one stakeholder's stance
type StakeholderSentiment struct {
	Name         string   `json:"name"`
	Sentiment    string   `json:"sentiment"`
	KeyConcerns  []string `json:"key_concerns,omitempty"`
	SupportiveOf []string `json:"supportive_of,omitempty"`
}

// Concern raised in the source communications
type Concern struct {
	Concern     string `json:"concern"`
	MentionedBy string `json:"mentioned_by,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Quote       string `json:"quote,omitempty"`
}

// PositiveSignal of stakeholder support
type PositiveSignal struct {
	Signal      string `json:"signal"`
	MentionedBy string `json:"mentioned_by,omitempty"`
	Quote       string `json:"quote,omitempty"`
}

// NeutralSentiment is the fixed fallback when generation fails or
// there is nothing to analyze
func NeutralSentiment() *SentimentReport {
	return &SentimentReport{
		Overall:         "neutral",
		Score:           0.5,
		Urgency:         "medium",
		ConfidenceLevel: "low",
		Stakeholders:    []StakeholderSentiment{},
		Concerns:        []Concern{},
		PositiveSignals: []PositiveSignal{},
		Recommendations: []string{"Insufficient data for sentiment analysis"},
	}
}
