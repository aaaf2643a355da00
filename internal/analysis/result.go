package analysis

import (
	"regexp"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// TradeSummary is one completed analysis for one trade.
// ReferencedDivisions come from the model's output; CrossReferences are
// parsed from the analyzed text itself.
type TradeSummary struct {
	DivisionCode        string   `json:"division_code"`
	Trade               string   `json:"trade"`
	Summary             string   `json:"summary"`
	ReferencedDivisions []string `json:"referenced_divisions,omitempty"`
	CrossReferences     []string `json:"cross_referenced_divisions,omitempty"`
	DurationMs          int64    `json:"duration_ms"`
}

var referencedRe = regexp.MustCompile(`(?im)^Divisions referenced:\s*([0-9,\s]+)$`)

// ParseReferencedDivisions pulls the cross-referenced division codes out
// of a summary's "Divisions referenced:" line. Unknown codes are dropped.
func ParseReferencedDivisions(summary string) []string {
	m := referencedRe.FindStringSubmatch(summary)
	if len(m) < 2 {
		return nil
	}
	seen := make(map[string]bool)
	var codes []string
	for _, raw := range strings.Split(m[1], ",") {
		code := strings.TrimSpace(raw)
		if len(code) == 1 {
			code = "0" + code
		}
		if !divisions.ValidDivision(code) || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// CrossReferencedDivisions reduces text-level cross references to the
// distinct division codes they point at, excluding the trade's own code.
// Section references contribute their leading division pair.
func CrossReferencedDivisions(refs []document.CrossReference, selfCode string) []string {
	seen := map[string]bool{selfCode: true}
	var codes []string
	for _, r := range refs {
		code := r.Reference
		if r.Type == "section" && len(code) >= 2 {
			code = code[:2]
		}
		if !divisions.ValidDivision(code) || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}
