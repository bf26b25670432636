package model

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want SourceType
	}{
		{"document", SourceDocument},
		{"transcript", SourceTranscript},
		{"email", SourceEmail},
		{"slack", SourceSlack},
		{"  Document ", SourceDocument},
		{"EMAIL", SourceEmail},
		{"teams", SourceSlack},
		{"", SourceSlack},
	}

	for _, tt := range tests {
		if got := NormalizeType(tt.raw); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEmptyBRD(t *testing.T) {
	brd := EmptyBRD()

	if brd.ExecutiveSummary == "" {
		t.Error("Expected skeleton to carry a retry message")
	}
	if brd.BusinessObjectives == nil || brd.FunctionalRequirements == nil ||
		brd.NonFunctionalRequirements == nil || brd.Timeline.Phases == nil {
		t.Error("Expected every section to be non-nil")
	}
	if brd.RequirementCount() != 0 {
		t.Errorf("Expected empty skeleton, got %d requirements", brd.RequirementCount())
	}
}

func TestRequirementCount(t *testing.T) {
	brd := &BRD{
		BusinessObjectives:        []Objective{{ID: "BO-1"}},
		FunctionalRequirements:    []Requirement{{ID: "FR-1"}, {ID: "FR-2"}},
		NonFunctionalRequirements: []Requirement{{ID: "NFR-1"}},
	}
	if got := brd.RequirementCount(); got != 4 {
		t.Errorf("RequirementCount() = %d, want 4", got)
	}
}
