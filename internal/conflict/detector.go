package conflict

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// maxCandidates caps the pairs forwarded to classification. True
// conflicts are rare relative to O(n²) pairs; the lexical filter
// trades recall for a hard ceiling on reasoning-engine cost.
const maxCandidates = 20

// jaccardThreshold is the minimum word overlap for the
// negation-based candidate rule
const jaccardThreshold = 0.30

// Keywords that signal potential opposition
var negationRe = regexp.MustCompile(
	`(?i)\b(no\b|not\b|never\b|cannot\b|must not|shall not|prevent|restrict|limit|` +
		`disallow|forbid|prohibit|exclude|block|deny)\b`)

// Resource/capacity words that often conflict
var resourceRe = regexp.MustCompile(
	`(?i)\b(budget|cost|bandwidth|capacity|memory|storage|cpu|staff|team|resource|` +
		`time|hours|deadline|schedule|timeline|concurrent|simultaneous)\b`)

var wordRe = regexp.MustCompile(`\b\w{4,}\b`)

// Requirements carries the three requirement sets the detector scans
type Requirements struct {
	Functional    []model.Requirement `json:"functional_requirements"`
	NonFunctional []model.Requirement `json:"non_functional_requirements"`
	Objectives    []model.Objective   `json:"business_objectives"`
}

// FromBRD builds the detector input from an extracted BRD
func FromBRD(brd *model.BRD) Requirements {
	return Requirements{
		Functional:    brd.FunctionalRequirements,
		NonFunctional: brd.NonFunctionalRequirements,
		Objectives:    brd.BusinessObjectives,
	}
}

// item is a flattened requirement with its category tag
type item struct {
	id       string
	category string
	text     string
}

// pair is one candidate conflict pair
type pair struct {
	a, b item
}

// Detector finds contradictory requirements in two phases: a cheap
// lexical candidate filter, then reasoning-engine classification of
// only the survivors
type Detector struct {
	provider llm.Provider
	verbose  bool
}

// NewDetector creates a new conflict detector
func NewDetector(provider llm.Provider, verbose bool) *Detector {
	return &Detector{provider: provider, verbose: verbose}
}

// Detect returns confirmed conflicts. Fewer than two requirements or
// an empty candidate set short-circuits without invoking the
// classifier; unparseable classifier output degrades to no conflicts.
func (d *Detector) Detect(ctx context.Context, reqs Requirements) ([]model.Conflict, error) {
	items := flatten(reqs)
	if len(items) < 2 {
		return []model.Conflict{}, nil
	}

	candidates := findCandidates(items)
	if len(candidates) == 0 {
		if d.verbose {
			fmt.Fprintln(os.Stderr, "No candidate conflict pairs found via heuristic")
		}
		return []model.Conflict{}, nil
	}

	if d.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	raw, err := d.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildClassifyPrompt(candidates),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("conflict classification call: %w", err)
	}

	var conflicts []model.Conflict
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &conflicts); err != nil {
		if d.verbose {
			fmt.Fprintf(os.Stderr, "Warning: conflict parse error: %v\n", err)
		}
		return []model.Conflict{}, nil
	}
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}

	return conflicts, nil
}

// flatten merges the three requirement sets with category tags
func flatten(reqs Requirements) []item {
	items := make([]item, 0, len(reqs.Functional)+len(reqs.NonFunctional)+len(reqs.Objectives))
	for _, r := range reqs.Functional {
		items = append(items, item{id: r.ID, category: "functional", text: textOf(r.Description, r.Title)})
	}
	for _, r := range reqs.NonFunctional {
		items = append(items, item{id: r.ID, category: "non_functional", text: textOf(r.Description, r.Title)})
	}
	for _, o := range reqs.Objectives {
		items = append(items, item{id: o.ID, category: "objective", text: o.Description})
	}
	return items
}

func textOf(description, title string) string {
	if description != "" {
		return description
	}
	return title
}

// findCandidates scans every unordered pair and keeps the ones worth
// classifying, in first-found order, capped at maxCandidates
func findCandidates(items []item) []pair {
	var candidates []pair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if isCandidate(items[i], items[j]) {
				candidates = append(candidates, pair{a: items[i], b: items[j]})
				if len(candidates) >= maxCandidates {
					return candidates
				}
			}
		}
	}
	return candidates
}

// isCandidate applies the cheap lexical rules: high word overlap with
// a negation on either side, or a shared resource keyword across
// different requirement categories
func isCandidate(a, b item) bool {
	ta, tb := strings.ToLower(a.text), strings.ToLower(b.text)

	if jaccard(ta, tb) > jaccardThreshold && (negationRe.MatchString(ta) || negationRe.MatchString(tb)) {
		return true
	}

	if a.category != b.category {
		ra := keywordSet(resourceRe, ta)
		for _, kw := range resourceRe.FindAllString(tb, -1) {
			if ra[strings.ToLower(kw)] {
				return true
			}
		}
	}

	return false
}

// jaccard computes word-set similarity over words of length >= 4
func jaccard(a, b string) float64 {
	wa := keywordSet(wordRe, a)
	wb := keywordSet(wordRe, b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	intersection := 0
	for w := range wa {
		if wb[w] {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection

	return float64(intersection) / float64(union)
}

func keywordSet(re *regexp.Regexp, text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range re.FindAllString(text, -1) {
		set[strings.ToLower(w)] = true
	}
	return set
}

// buildClassifyPrompt formats the candidate pairs for classification
func buildClassifyPrompt(candidates []pair) string {
	var pairs strings.Builder
	for i, p := range candidates {
		fmt.Fprintf(&pairs, "Pair %d:\n  %s (%s): %s\n  %s (%s): %s\n\n",
			i+1, p.a.id, p.a.category, p.a.text, p.b.id, p.b.category, p.b.text)
	}

	return fmt.Sprintf(`Analyze these requirement pairs for genuine conflicts.

A conflict exists when requirements contradict each other, compete for limited resources,
have incompatible timelines, overlap in scope creating ambiguity, or have misaligned priorities.

Return a JSON array (return [] if no real conflicts):
[{
  "id": "C-1",
  "type": "direct|resource|timeline|scope|priority",
  "severity": "high|medium|low",
  "requirement1_id": "FR-1",
  "requirement2_id": "NFR-2",
  "description": "Clear explanation of the conflict",
  "recommendation": "Specific resolution suggestion"
}]

Return ONLY the JSON array. No preamble.

REQUIREMENT PAIRS:
%s`, pairs.String())
}
