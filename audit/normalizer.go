package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

const (
	// summaryPreviewLength is how much raw text an unparsed result keeps
	summaryPreviewLength = 500
	ellipsis             = "..."

	neutralSummary      = "We analyzed the store but couldn't generate a structured report. Please check the text summary below."
	neutralDescription  = "Analysis unavailable."
	unparsedDescription = "Could not parse details."
)

// fencedJSON matches the first ```json block. The opening tag must be
// followed by a line break and the closing fence must start its own line,
// so backticks inside JSON strings do not end the block.
var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// Outcome describes how a result was produced
type Outcome struct {
	Tier Tier
	// Problems holds the parse or schema errors behind a neutral fallback.
	Problems []string
}

// Normalize converts raw model output into a complete AuditResult. It never
// fails: unusable output is replaced by one of two fixed fallback bodies.
func Normalize(text, url string, chunks []CitationChunk) (AuditResult, Outcome) {
	var (
		result  AuditResult
		outcome Outcome
	)

	block, found := extractFencedBlock(text)
	switch {
	case !found:
		result = unparsedResult(text)
		outcome.Tier = TierUnparsed
	default:
		parsed, problems := parseBlock(block)
		if len(problems) > 0 {
			result = neutralResult()
			outcome = Outcome{Tier: TierNeutralFallback, Problems: problems}
		} else {
			result = parsed
			outcome.Tier = TierStructured
		}
	}

	result.URL = url
	result.Sources = collectSources(chunks)
	fillEmptyLists(&result)

	return result, outcome
}

// extractFencedBlock returns the inner content of the first fenced JSON block
func extractFencedBlock(text string) (string, bool) {
	match := fencedJSON.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// parseBlock decodes and validates a fenced block. Any returned problem means
// the block cannot be used.
func parseBlock(block string) (AuditResult, []string) {
	body := bytes.TrimSpace([]byte(block))
	if len(body) == 0 {
		return AuditResult{}, []string{"fenced block is empty"}
	}

	problems, err := validateBody(body)
	if err != nil {
		return AuditResult{}, []string{err.Error()}
	}
	if len(problems) > 0 {
		return AuditResult{}, problems
	}

	var parsed AuditResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AuditResult{}, []string{fmt.Sprintf("decode block: %v", err)}
	}
	return parsed, nil
}

// collectSources keeps web citations that carry both a title and a URI,
// in the order the service returned them
func collectSources(chunks []CitationChunk) []GroundingSource {
	sources := make([]GroundingSource, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		sources = append(sources, GroundingSource{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}

func fillEmptyLists(result *AuditResult) {
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Competitors == nil {
		result.Competitors = []string{}
	}
	if result.Sources == nil {
		result.Sources = []GroundingSource{}
	}
}

// neutralResult is used when the model produced a block we could not use
func neutralResult() AuditResult {
	return AuditResult{
		OverallScore: 50,
		Summary:      neutralSummary,
		Metrics:      uniformMetrics(50, StatusAverage, neutralDescription),
	}
}

// unparsedResult is used when the model ignored the output format entirely
func unparsedResult(text string) AuditResult {
	return AuditResult{
		OverallScore: 0,
		Summary:      preview(text, summaryPreviewLength) + ellipsis,
		Metrics:      uniformMetrics(0, StatusPoor, unparsedDescription),
	}
}

func uniformMetrics(score float64, status MetricStatus, description string) Metrics {
	metric := func(name string) AuditMetric {
		return AuditMetric{Name: name, Score: score, Status: status, Description: description}
	}
	return Metrics{
		SEO:         metric("SEO"),
		UX:          metric("UX"),
		Performance: metric("Performance"),
		Content:     metric("Content"),
	}
}

// preview returns at most n runes of s
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
