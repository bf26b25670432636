package extract

import (
	"fmt"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/prioritize"
)

// maxCorpusChars bounds the source text sent to the model
const maxCorpusChars = 50000

const sourceBreak = "\n\n---SOURCE BREAK---\n\n"

// systemPrompt enforces the anti-hallucination contract. The citation
// guard verifies the output regardless; the prompt just raises the
// baseline quality of quotes.
const systemPrompt = `You are a senior business analyst extracting a BRD.

CRITICAL ANTI-HALLUCINATION RULES:
1. Every requirement MUST have a source_quote field.
2. source_quote MUST be VERBATIM from the source text — exact words only.
3. If no exact quote exists for a requirement, DO NOT include it.
4. Never invent or paraphrase requirements not explicitly in the sources.
5. Sources labelled PRIMARY take precedence over SUPPORTING.
6. Return ONLY valid JSON — no markdown, no preamble.`

// buildPrompt assembles the extraction prompt: prioritized sources with
// type/priority/score headers, then the required output shape
func buildPrompt(sources []model.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		t := model.NormalizeType(string(s.Type))
		header := fmt.Sprintf("[%s | %s | score=%.2f]",
			strings.ToUpper(string(t)), prioritize.Label(t), s.RelevanceScore)
		if subject := s.Metadata["subject"]; subject != "" {
			header += " | " + subject
		}
		parts = append(parts, header+"\n"+prioritize.CleanContent(s.Content))
	}

	combined := strings.Join(parts, sourceBreak)
	if len(combined) > maxCorpusChars {
		combined = combined[:maxCorpusChars]
	}

	return fmt.Sprintf(`Extract a complete BRD from these %d sources.
PRIMARY sources are formal documents and meeting transcripts — extract from these first.

Return this JSON (no other text):
{
  "executive_summary": "2-4 sentences from source content only",
  "business_objectives": [
    {"id":"BO-1","description":"...","priority":"high|medium|low","source_quote":"EXACT quote","source_doc":"transcript|email|slack|document"}
  ],
  "stakeholder_analysis": [
    {"id":"SH-1","name":"Name from sources","role":"...","interest":"...","influence":"high|medium|low"}
  ],
  "functional_requirements": [
    {"id":"FR-1","title":"...","description":"...","priority":"high|medium|low","source_quote":"EXACT quote","source_doc":"..."}
  ],
  "non_functional_requirements": [
    {"id":"NFR-1","title":"...","description":"...","category":"security|performance|usability|reliability|scalability|compliance","priority":"medium","source_quote":"EXACT quote","source_doc":"..."}
  ],
  "assumptions": [
    {"id":"AS-1","description":"...","risk":"..."}
  ],
  "success_metrics": [
    {"id":"SM-1","metric":"...","target":"...","measurement":"..."}
  ],
  "timeline": {
    "phases": [{"name":"...","duration":"...","deliverables":["..."]}]
  }
}

SOURCES (highest priority first — PRIMARY):
%s`, len(sources), combined)
}
