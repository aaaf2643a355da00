package document

import (
	"regexp"
	"strings"
)

var (
	pageOfRe     = regexp.MustCompile(`(?i)Page \d+ of \d+`)
	bareNumRe    = regexp.MustCompile(`\n\d+\n`)
	multiSpaceRe = regexp.MustCompile(` {2,}`)
	multiLineRe  = regexp.MustCompile(`\n{3,}`)
	zeroWidthRe  = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
)

// Clean removes extraction noise from page text: "Page X of Y" footers,
// standalone page-number lines, run-on whitespace.
func Clean(text string) string {
	text = pageOfRe.ReplaceAllString(text, "")
	text = bareNumRe.ReplaceAllString(text, "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiLineRe.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

var normalizer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"—", "-", "–", "-",
)

// Normalize standardizes quotes and dashes and strips zero-width
// characters so header patterns match OCR output consistently.
func Normalize(text string) string {
	text = normalizer.Replace(text)
	text = zeroWidthRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CrossReference is a mention of another section or division in body text.
type CrossReference struct {
	Type      string // "section" or "division"
	Reference string
	Context   string
}

var (
	sectionRefRe  = regexp.MustCompile(`(?i)(?:Section|Sec\.|§)\s*(\d{2}\s?\d{2}\s?\d{2})`)
	divisionRefRe = regexp.MustCompile(`(?i)(?:Division|Div\.)\s*(\d{2})`)
)

// FindCrossReferences collects "See Section 03 30 00" / "refer to
// Division 07" style mentions with a short context snippet.
func FindCrossReferences(text string) []CrossReference {
	var refs []CrossReference
	for _, m := range sectionRefRe.FindAllStringSubmatchIndex(text, -1) {
		num := strings.ReplaceAll(text[m[2]:m[3]], " ", "")
		if len(num) != 6 {
			continue
		}
		refs = append(refs, CrossReference{
			Type:      "section",
			Reference: num[:2] + " " + num[2:4] + " " + num[4:6],
			Context:   snippet(text, m[0], m[1]),
		})
	}
	for _, m := range divisionRefRe.FindAllStringSubmatchIndex(text, -1) {
		refs = append(refs, CrossReference{
			Type:      "division",
			Reference: text[m[2]:m[3]],
			Context:   snippet(text, m[0], m[1]),
		})
	}
	return refs
}

func snippet(text string, start, end int) string {
	s := start - 50
	if s < 0 {
		s = 0
	}
	e := end + 50
	if e > len(text) {
		e = len(text)
	}
	return text[s:e]
}
