package analysis

import (
	"fmt"
	"strings"
)

// genericPreamble is the default bid-summary instruction for any trade.
const genericPreamble = `You are summarizing construction specifications for a subcontractor preparing a bid. Create a scannable summary that helps them price the job in minutes, not hours.

## OUTPUT FORMAT

### FUNDING & COMPLIANCE
Search for federal funding indicators (Davis-Bacon, Buy American, DBE/MBE goals, CWSRF, ARPA). If found, list source, wage requirements, and goals. If not found, state "No federal funding indicators detected - State/local project".

### QUOTE THESE ITEMS
One line per item: [Product] - [Manufacturer] - [Basis of Design?] - [Or Equal?]

### PREMIUM ALERTS
Items costing MORE than standard: [Item]: [Why premium, 5 words or less]

### COLORS & FINISHES
[Item]: [Color/Finish] - [Selected by]

### KEY DIMENSIONS
Sizes, gauges, spacing that affect pricing: [Item]: [Dimension]

### COORDINATE WITH THESE TRADES
[Division - Section]: [What to coordinate]

### OTHER DIVISIONS TO ANALYZE
List ALL division numbers mentioned in cross-references that affect this trade's scope, as one line:
Divisions referenced: [comma-separated list]

### CONTRACT ALERTS
Only items that affect bid price or create risk: [Item]: [Impact in 10 words or less]

## RULES
1. EACH ITEM APPEARS ONCE - in the most relevant section only
2. NO PARAGRAPHS - bullets and short lines only
3. MANUFACTURER NAMES always included when specified
4. SKIP items that do not affect pricing
5. If info is missing, say "Not specified" - do not guess`

// tradePreambles refine the generic instruction for trades where the
// scope matrix matters most. Keyed by division code.
var tradePreambles = map[string]string{
	"03": "Focus on mix designs, reinforcing grades and coatings, formwork finishes, joint layout, and who provides embeds and anchor bolts.",
	"05": "Focus on material grades, bolted vs welded connections, fabricator certification, coatings, and the miscellaneous metals scope matrix (lintels, shelf angles, embeds - who provides, who installs).",
	"07": "This division spans multiple trades. Map each spec section to the trade responsible, list the sealant matrix, and always clarify who provides and installs flashing.",
	"22": "Focus on fixture schedules, pipe materials by service, insulation requirements, and equipment connections provided by others.",
	"23": "Focus on major equipment schedules with capacities, ductwork gauges and sealing class, controls scope, and testing/balancing requirements.",
	"26": "Focus on service size and voltage, panel schedules, wire and conduit materials, fixture packages, and whether low-voltage scope (divisions 27/28) is in this contract or separate.",
}

// BuildTradePrompt assembles the full analysis prompt for a trade from
// the extracted division text. crossRefs are division codes the text
// itself points at, surfaced so the model checks them for scope.
func BuildTradePrompt(divisionCode, tradeName, provenanceNote string, crossRefs []string, specText string) string {
	var sb strings.Builder
	sb.WriteString(genericPreamble)
	if extra, ok := tradePreambles[divisionCode]; ok {
		sb.WriteString("\n\n## TRADE FOCUS\n")
		sb.WriteString(extra)
	}
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Trade: %s (Division %s)\n", tradeName, divisionCode))
	if provenanceNote != "" {
		sb.WriteString("Note: ")
		sb.WriteString(provenanceNote)
		sb.WriteString("\n")
	}
	if len(crossRefs) > 0 {
		sb.WriteString("Document cross-references divisions: ")
		sb.WriteString(strings.Join(crossRefs, ", "))
		sb.WriteString("\n")
	}
	sb.WriteString("---\n")
	sb.WriteString(specText)
	return sb.String()
}
