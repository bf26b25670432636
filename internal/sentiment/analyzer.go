package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/prioritize"
)

// maxSourceChars bounds per-source content in the prompt
const maxSourceChars = 2000

// maxPromptChars bounds the combined source text
const maxPromptChars = 40000

// Analyzer summarizes stakeholder sentiment across source
// communications. Output is always well-typed: empty input or
// unparseable model output substitutes the fixed neutral default.
type Analyzer struct {
	provider llm.Provider
	verbose  bool
}

// NewAnalyzer creates a new sentiment analyzer
func NewAnalyzer(provider llm.Provider, verbose bool) *Analyzer {
	return &Analyzer{provider: provider, verbose: verbose}
}

// Analyze generates the sentiment report for the given sources
func (a *Analyzer) Analyze(ctx context.Context, sources []model.Source) (*model.SentimentReport, error) {
	if len(sources) == 0 {
		return model.NeutralSentiment(), nil
	}
	if a.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	raw, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildPrompt(sources),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("sentiment call: %w", err)
	}

	var report model.SentimentReport
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &report); err != nil {
		if a.verbose {
			fmt.Fprintf(os.Stderr, "Warning: sentiment parse error: %v\n", err)
		}
		return model.NeutralSentiment(), nil
	}

	if report.Stakeholders == nil {
		report.Stakeholders = []model.StakeholderSentiment{}
	}
	if report.Concerns == nil {
		report.Concerns = []model.Concern{}
	}
	if report.PositiveSignals == nil {
		report.PositiveSignals = []model.PositiveSignal{}
	}
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}

	return &report, nil
}

// buildPrompt formats the sources with typed headers
func buildPrompt(sources []model.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		header := "[" + strings.ToUpper(string(model.NormalizeType(string(s.Type)))) + "]"
		if from := s.Metadata["from"]; from != "" {
			header += " from " + from
		}
		content := prioritize.CleanContent(s.Content)
		if len(content) > maxSourceChars {
			content = content[:maxSourceChars]
		}
		parts = append(parts, header+"\n"+content)
	}

	combined := strings.Join(parts, "\n\n---\n\n")
	if len(combined) > maxPromptChars {
		combined = combined[:maxPromptChars]
	}

	return fmt.Sprintf(`Analyze stakeholder sentiment in these business communications.

Return ONLY valid JSON:
{
  "overall": "positive|neutral|negative|mixed",
  "score": 0.75,
  "urgency": "high|medium|low",
  "confidence_level": "high|medium|low",
  "stakeholders": [
    {
      "name": "Name or role",
      "sentiment": "positive|neutral|negative",
      "key_concerns": ["Concern 1"],
      "supportive_of": ["Feature or requirement they support"]
    }
  ],
  "concerns": [
    {
      "concern": "Description",
      "mentioned_by": "Name or 'multiple'",
      "severity": "high|medium|low",
      "quote": "Brief quote (under 80 chars)"
    }
  ],
  "positive_signals": [
    {
      "signal": "Description",
      "mentioned_by": "Name",
      "quote": "Brief quote (under 80 chars)"
    }
  ],
  "recommendations": ["Actionable recommendation based on sentiment"]
}

SOURCES:
%s`, combined)
}
