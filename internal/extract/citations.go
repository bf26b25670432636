package extract

import (
	"regexp"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// verifyThreshold is the minimum fraction of quote words that must
// appear in the source corpus for a citation to count as verified.
// Word overlap tolerates benign rewording (case, whitespace, minor
// paraphrase around the quote) while catching wholesale fabrication;
// exact substring matching is too brittle for generated text.
const verifyThreshold = 0.60

var quoteWordRe = regexp.MustCompile(`\b\w{4,}\b`)

// BuildCorpus concatenates and lowercases all source content for
// citation lookup
func BuildCorpus(sources []model.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, strings.ToLower(s.Content))
	}
	return strings.Join(parts, " ")
}

// VerifyQuote checks a single quote against the corpus. Pure and
// idempotent: the same (quote, corpus) always yields the same result.
// Returns whether the quote is verified and the word-match ratio.
func VerifyQuote(quote, corpus string) (bool, float64) {
	words := quoteWordRe.FindAllString(strings.ToLower(quote), -1)
	if len(words) == 0 {
		return false, 0
	}

	seen := make(map[string]bool, len(words))
	matched, total := 0, 0
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		total++
		if strings.Contains(corpus, w) {
			matched++
		}
	}

	ratio := float64(matched) / float64(total)
	return ratio >= verifyThreshold, ratio
}

// VerifyCitations is the anti-hallucination guard. It checks every
// source_quote in the requirement-bearing sections against the source
// corpus. Quotes below the threshold are replaced with the fixed
// placeholder; a fabricated quote is never silently retained.
// This is the only mutation the guard performs, applied exactly once
// after extraction.
func VerifyCitations(brd *model.BRD, sources []model.Source) {
	corpus := BuildCorpus(sources)
	unverified := 0

	for i := range brd.BusinessObjectives {
		o := &brd.BusinessObjectives[i]
		o.CitationVerified, o.SourceQuote = checkQuote(o.SourceQuote, corpus, &unverified)
	}
	for i := range brd.FunctionalRequirements {
		r := &brd.FunctionalRequirements[i]
		r.CitationVerified, r.SourceQuote = checkQuote(r.SourceQuote, corpus, &unverified)
	}
	for i := range brd.NonFunctionalRequirements {
		r := &brd.NonFunctionalRequirements[i]
		r.CitationVerified, r.SourceQuote = checkQuote(r.SourceQuote, corpus, &unverified)
	}

	brd.HasUnverifiedCitations = unverified > 0
	brd.UnverifiedCount = unverified
}

// checkQuote classifies one quote. Empty quotes and bracket
// placeholders are unverified but do not count toward the review
// total; a live quote that fails verification is replaced and counted.
func checkQuote(quote, corpus string, unverified *int) (bool, string) {
	if quote == "" || strings.HasPrefix(quote, "[") {
		return false, quote
	}

	verified, _ := VerifyQuote(quote, corpus)
	if verified {
		return true, quote
	}

	*unverified++
	return false, model.UnverifiedQuotePlaceholder
}
