package agent

import (
	"fmt"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// appendTurn copies-on-append so earlier turn log snapshots stay valid
// for replay and testing
func appendTurn(turns []llm.Turn, turn llm.Turn) []llm.Turn {
	next := make([]llm.Turn, len(turns), len(turns)+1)
	copy(next, turns)
	return append(next, turn)
}

// initialTurn builds the opening user turn: the task framing plus
// bounded source previews. Tools receive full sources via argument
// backfill; the oracle only ever sees previews.
func initialTurn(brdID string, sources []model.Source, projectContext string, previewChars int) llm.Turn {
	if projectContext == "" {
		projectContext = "Not provided"
	}

	var previews strings.Builder
	for i, s := range sources {
		content := s.Content
		if previewChars > 0 && len(content) > previewChars {
			content = content[:previewChars]
		}
		fmt.Fprintf(&previews, "Source %d [%s]: %s\n", i+1, s.Type, content)
	}

	text := fmt.Sprintf(`You are generating a Business Requirements Document for BRD ID: %s.

Project context: %s
Number of input sources: %d

Your job:
1. Call filter_noise to remove irrelevant content from the %d sources
2. Call extract_brd on the filtered sources to get structured BRD content
3. Call detect_conflicts if there are 5+ requirements
4. Call analyze_sentiment to understand stakeholder views
5. Call save_brd with the complete results

Be thorough. Extract as many requirements as the sources support.

Source previews:
%s
Start now by calling filter_noise.`,
		brdID, projectContext, len(sources), len(sources), previews.String())

	return llm.Turn{Role: llm.RoleUser, Text: text}
}

// assistantTurn records the oracle's reply verbatim
func assistantTurn(decision *llm.Decision) llm.Turn {
	return llm.Turn{
		Role:      llm.RoleAssistant,
		Text:      decision.Text,
		ToolCalls: decision.ToolCalls,
	}
}

// toolResultTurn wraps the serialized results of one turn's tool calls
func toolResultTurn(results []llm.ToolResult) llm.Turn {
	return llm.Turn{Role: llm.RoleTool, ToolResults: results}
}
