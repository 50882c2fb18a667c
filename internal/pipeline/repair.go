package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// SuffixRepair rewrites a known truncation defect at the end of agent JSON output
type SuffixRepair struct {
	Name        string
	Suffix      string
	Replacement string
	// Guard, when set, must also hold for the rule to apply
	Guard func(text string) bool
}

// Apply rewrites text when the rule matches, reporting whether it did
func (r SuffixRepair) Apply(text string) (string, bool) {
	if !strings.HasSuffix(text, r.Suffix) {
		return text, false
	}
	if r.Guard != nil && !r.Guard(text) {
		return text, false
	}
	return strings.TrimSuffix(text, r.Suffix) + r.Replacement, true
}

// SuffixRepairs are tried in order; the first matching rule wins
var SuffixRepairs = []SuffixRepair{
	{Name: "stray quote after closing array and brace", Suffix: `]"}`, Replacement: `]}`},
	{Name: "stray quote before closing brace", Suffix: `"}`, Replacement: `}`, Guard: hasUnmatchedQuote},
	{Name: "stray quote after closing array", Suffix: `]"`, Replacement: `]`},
	{Name: "trailing lone quote", Suffix: `"`, Replacement: ``, Guard: hasSurplusQuotes},
}

var (
	// Matches an opening code fence with an optional language tag
	openingFencePattern = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	closingFencePattern = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// RepairAndParse turns agent text into a JSON document. It strips code
// fences, fixes known truncated suffixes and decodes one level of
// double-encoded JSON. Failures wrap domain.ErrMalformedPayload.
func RepairAndParse(text string) (json.RawMessage, error) {
	// Step 1: Trim surrounding whitespace
	cleaned := strings.TrimSpace(text)

	// Step 2: Strip code fences when both ends are fenced
	cleaned = stripFences(cleaned)

	// Step 3: Patch known suffix defects
	if !gjson.Valid(cleaned) {
		for _, rule := range SuffixRepairs {
			if repaired, ok := rule.Apply(cleaned); ok {
				cleaned = repaired
				break
			}
		}
	}

	// Step 4: Parse
	if cleaned == "" || !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedPayload, snippet(text, 500))
	}

	doc := gjson.Parse(cleaned)
	if doc.Type == gjson.String {
		inner := strings.TrimSpace(stripFences(strings.TrimSpace(doc.Str)))
		if inner != "" && gjson.Valid(inner) {
			return json.RawMessage(inner), nil
		}
	}

	return json.RawMessage(cleaned), nil
}

// stripFences removes a leading ``` marker (with optional language tag)
// and a trailing ``` marker, only when both are present
func stripFences(s string) string {
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	body := openingFencePattern.ReplaceAllString(s, "")
	body = closingFencePattern.ReplaceAllString(body, "")
	return strings.TrimSpace(body)
}

// hasUnmatchedQuote reports an odd number of unescaped double quotes
func hasUnmatchedQuote(s string) bool {
	count := 0
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			count++
		}
	}
	return count%2 == 1
}

// hasSurplusQuotes reports more double quotes than colons
func hasSurplusQuotes(s string) bool {
	return strings.Count(s, `"`) > strings.Count(s, ":")
}

// snippet shortens a payload for logging
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
