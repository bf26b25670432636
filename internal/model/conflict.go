package model

// ConflictType classifies how two requirements clash
type ConflictType string

const (
	ConflictDirect   ConflictType = "direct"   // Contradictory statements
	ConflictResource ConflictType = "resource" // Competing for the same budget/staff/capacity
	ConflictTimeline ConflictType = "timeline" // Incompatible schedules
	ConflictScope    ConflictType = "scope"    // Overlapping scope creating ambiguity
	ConflictPriority ConflictType = "priority" // Misaligned priorities
)

// ConflictSeverity indicates how urgently a conflict needs resolution
type ConflictSeverity string

const (
	ConflictHigh   ConflictSeverity = "high"
	ConflictMedium ConflictSeverity = "medium"
	ConflictLow    ConflictSeverity = "low"
)

// Conflict is one confirmed contradiction between two requirements.
// Created once per run by the conflict detector, immutable thereafter.
type Conflict struct {
	ID             string           `json:"id"`
	Type           ConflictType     `json:"type"`
	Severity       ConflictSeverity `json:"severity"`
	Requirement1ID string           `json:"requirement1_id"`
	Requirement2ID string           `json:"requirement2_id"`
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
}
