package extract

import (
	"testing"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

func testSources() []model.Source {
	return []model.Source{
		{
			Type:    model.SourceTranscript,
			Content: "We need better reporting dashboards for the sales team. The system must support single sign-on before launch.",
		},
		{
			Type:    model.SourceEmail,
			Content: "Budget approval depends on the quarterly forecast numbers being available in the dashboard.",
		},
	}
}

func TestVerifyQuote_VerbatimQuote(t *testing.T) {
	corpus := BuildCorpus(testSources())

	verified, ratio := VerifyQuote("We need better reporting dashboards", corpus)
	if !verified {
		t.Errorf("Expected verbatim quote to verify, got ratio %.2f", ratio)
	}
	if ratio != 1.0 {
		t.Errorf("Expected ratio 1.0 for verbatim quote, got %.2f", ratio)
	}
}

func TestVerifyQuote_CaseInsensitive(t *testing.T) {
	corpus := BuildCorpus(testSources())

	verified, _ := VerifyQuote("BETTER REPORTING DASHBOARDS", corpus)
	if !verified {
		t.Error("Expected case differences to be tolerated")
	}
}

func TestVerifyQuote_FabricatedQuote(t *testing.T) {
	corpus := BuildCorpus(testSources())

	verified, ratio := VerifyQuote("Deploy kubernetes clusters across seventeen availability zones", corpus)
	if verified {
		t.Errorf("Expected fabricated quote to fail verification, got ratio %.2f", ratio)
	}
}

func TestVerifyQuote_EmptyAndShortWords(t *testing.T) {
	corpus := BuildCorpus(testSources())

	// Only words shorter than 4 characters: nothing to check
	if verified, _ := VerifyQuote("we do it a lot", corpus); verified {
		t.Error("Expected quote with no checkable words to be unverified")
	}
	if verified, _ := VerifyQuote("", corpus); verified {
		t.Error("Expected empty quote to be unverified")
	}
}

func TestVerifyQuote_Idempotent(t *testing.T) {
	corpus := BuildCorpus(testSources())
	quote := "reporting dashboards and something fabricated entirely"

	v1, r1 := VerifyQuote(quote, corpus)
	v2, r2 := VerifyQuote(quote, corpus)
	if v1 != v2 || r1 != r2 {
		t.Errorf("Expected identical results on re-run, got (%v, %.2f) then (%v, %.2f)", v1, r1, v2, r2)
	}
}

func TestVerifyCitations_ReplacesUnverifiedQuotes(t *testing.T) {
	brd := &model.BRD{
		FunctionalRequirements: []model.Requirement{
			{ID: "FR-1", SourceQuote: "We need better reporting dashboards for the sales team"},
			{ID: "FR-2", SourceQuote: "Magical unicorn deployment strategies involving blockchain telepathy"},
		},
		BusinessObjectives: []model.Objective{
			{ID: "BO-1", SourceQuote: "Budget approval depends on the quarterly forecast"},
		},
	}

	VerifyCitations(brd, testSources())

	if !brd.FunctionalRequirements[0].CitationVerified {
		t.Error("Expected FR-1 to verify")
	}
	if brd.FunctionalRequirements[0].SourceQuote != "We need better reporting dashboards for the sales team" {
		t.Error("Expected verified quote to be retained")
	}

	if brd.FunctionalRequirements[1].CitationVerified {
		t.Error("Expected FR-2 to fail verification")
	}
	if brd.FunctionalRequirements[1].SourceQuote != model.UnverifiedQuotePlaceholder {
		t.Errorf("Expected placeholder, got %q", brd.FunctionalRequirements[1].SourceQuote)
	}

	if !brd.BusinessObjectives[0].CitationVerified {
		t.Error("Expected BO-1 to verify")
	}

	if !brd.HasUnverifiedCitations {
		t.Error("Expected aggregate flag to be set")
	}
	if brd.UnverifiedCount != 1 {
		t.Errorf("Expected 1 unverified citation, got %d", brd.UnverifiedCount)
	}
}

func TestVerifyCitations_PlaceholderQuotesNotCounted(t *testing.T) {
	brd := &model.BRD{
		FunctionalRequirements: []model.Requirement{
			{ID: "FR-1", SourceQuote: ""},
			{ID: "FR-2", SourceQuote: "[no direct quote available]"},
		},
	}

	VerifyCitations(brd, testSources())

	for _, r := range brd.FunctionalRequirements {
		if r.CitationVerified {
			t.Errorf("Expected %s to be unverified", r.ID)
		}
	}
	if brd.UnverifiedCount != 0 {
		t.Errorf("Expected placeholder quotes to not count toward review total, got %d", brd.UnverifiedCount)
	}
	if brd.HasUnverifiedCitations {
		t.Error("Expected aggregate flag to stay false for placeholder-only quotes")
	}
}

func TestVerifyCitations_RerunStable(t *testing.T) {
	brd := &model.BRD{
		NonFunctionalRequirements: []model.Requirement{
			{ID: "NFR-1", SourceQuote: "The system must support single sign-on before launch"},
			{ID: "NFR-2", SourceQuote: "Quantum entanglement caching for interstellar latency"},
		},
	}
	sources := testSources()

	VerifyCitations(brd, sources)
	firstCount := brd.UnverifiedCount
	firstQuote := brd.NonFunctionalRequirements[1].SourceQuote

	// Second pass: the placeholder is a bracket quote now, so nothing
	// new is counted and flags stay identical
	VerifyCitations(brd, sources)
	if brd.UnverifiedCount != 0 && brd.UnverifiedCount != firstCount {
		t.Errorf("Unexpected count drift: first %d then %d", firstCount, brd.UnverifiedCount)
	}
	if brd.NonFunctionalRequirements[1].SourceQuote != firstQuote {
		t.Error("Expected placeholder to be stable across re-runs")
	}
	if !brd.NonFunctionalRequirements[0].CitationVerified {
		t.Error("Expected NFR-1 to remain verified on re-run")
	}
}
