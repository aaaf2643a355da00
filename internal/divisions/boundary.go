package divisions

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

var (
	endOfTOCRe  = regexp.MustCompile(`(?i)END OF TABLE OF CONTENTS`)
	tocMarkerRe = regexp.MustCompile(`(?i)TABLE OF CONTENTS|INDEX OF DRAWINGS|SPECIFICATION INDEX|DIVISION INDEX`)
)

// Header pattern variants applied in parallel over the body. Division
// headers come as the full word, abbreviated, or as a section number whose
// first pair is the division.
var (
	divisionHeaderRe = regexp.MustCompile(`(?i)\bDIVISION\s+0?(\d{1,2})\s*[-–—:]\s*([A-Z][A-Z &/,.\t ]{2,60})`)
	divAbbrevRe      = regexp.MustCompile(`(?i)\bD[IV]?V\.?\s+0?(\d{1,2})\s*[-–—:]\s*([A-Z][A-Z &/,.\t ]{2,60})`)
	// Anchored to line start: "SECTION 04 20 00" opening a line is a
	// header, "see Section 04 20 00" mid-sentence is a cross-reference.
	sectionHeaderRe = regexp.MustCompile(`(?im)^[ \t]*SECTION\s+(\d{2})\s*(\d{2})\s*(\d{2})(?:\.\d+)?[-–— \t]*([A-Z][A-Z &/,.\t ]{2,60})?`)
)

// structuralKeywords mark real section bodies. Any one in the trailing
// context is enough to accept a header.
var structuralKeywords = []string{"PART", "SECTION", "SCOPE", "PRODUCTS", "EXECUTION"}

// tocEchoRe flags contexts that continue like an index line: dot leaders
// or a bare page number right after the header.
var tocEchoRe = regexp.MustCompile(`\.{3,}|\d{1,3}\s*$`)

// BoundaryDetector scans the document body for in-line division headers
// and keeps only those that open real content. Index echoes, bare cover
// sheet headers, and date-like section numbers are rejected.
type BoundaryDetector struct {
	// ContextWindow is how far past a header to look for body evidence.
	ContextWindow int
	// MinContextChars is the least non-whitespace context a real section
	// body shows inside the window.
	MinContextChars int
	// MinSpan is the least byte distance between accepted neighbors;
	// closer pairs are a header re-announced, not two sections.
	MinSpan int
	// LeadingSkipFraction of the document is skipped when no explicit
	// end-of-contents sentinel exists. Front matter conventionally holds
	// the index, and index lines mimic real headers.
	LeadingSkipFraction float64
	// MinPagesForSkip disables the leading skip on short documents, which
	// may open directly with content.
	MinPagesForSkip int

	logger *slog.Logger
}

func NewBoundaryDetector(logger *slog.Logger) *BoundaryDetector {
	return &BoundaryDetector{
		ContextWindow:       1000,
		MinContextChars:     300,
		MinSpan:             4000,
		LeadingSkipFraction: 0.15,
		MinPagesForSkip:     20,
		logger:              logger.With("component", "boundary_detector"),
	}
}

type headerCandidate struct {
	code   string
	title  string
	offset int // start of the header match
	end    int // end of the header match; context evaluation begins here
}

// Detect returns a structural DivisionMap, or nil when no header survives
// classification.
func (d *BoundaryDetector) Detect(doc *document.Document) *DivisionMap {
	skip := d.bodyStart(doc.Text, doc.PageCount)
	tocStart, tocEnd := tocSpan(doc.Text)

	candidates := d.collect(doc.Text, skip)
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].offset < candidates[j].offset
	})

	var accepted []headerCandidate
	for _, c := range candidates {
		if c.offset >= tocStart && c.offset < tocEnd {
			continue
		}
		if !d.acceptContext(doc.Text, c.end) {
			continue
		}
		if n := len(accepted); n > 0 && c.offset-accepted[n-1].offset < d.MinSpan {
			continue
		}
		accepted = append(accepted, c)
	}
	if len(accepted) == 0 {
		return nil
	}

	entries := make([]DivisionEntry, 0, len(accepted))
	for _, c := range accepted {
		page := doc.PageAt(c.offset)
		entries = append(entries, DivisionEntry{
			Code:      c.code,
			Title:     c.title,
			StartPage: page,
			EndPage:   page,
		})
		d.logger.Debug("accepted header", "code", c.code, "title", c.title,
			"offset", c.offset, "page", page)
	}
	m := NewDivisionMap(MethodStructural, entries, len(entries), "")
	closeRanges(m.Entries, doc.PageCount)
	d.logger.Info("structural scan complete", "candidates", len(candidates),
		"accepted", len(accepted), "divisions", m.Len())
	return m
}

// bodyStart returns the offset where header scanning begins: just past an
// explicit end-of-contents sentinel when present, otherwise a fixed
// leading fraction on documents long enough to have front matter.
func (d *BoundaryDetector) bodyStart(text string, pageCount int) int {
	if loc := endOfTOCRe.FindStringIndex(text); loc != nil {
		return loc[1]
	}
	if pageCount < d.MinPagesForSkip {
		return 0
	}
	return int(float64(len(text)) * d.LeadingSkipFraction)
}

// tocSpan returns the byte span of an identified table-of-contents
// region, or an empty span when none exists.
func tocSpan(text string) (int, int) {
	loc := tocMarkerRe.FindStringIndex(text)
	if loc == nil {
		return 0, 0
	}
	if end := endOfTOCRe.FindStringIndex(text[loc[0]:]); end != nil {
		return loc[0], loc[0] + end[1]
	}
	// No sentinel: assume the index occupies a bounded window.
	span := loc[0] + 8000
	if span > len(text) {
		span = len(text)
	}
	return loc[0], span
}

func (d *BoundaryDetector) collect(text string, skip int) []headerCandidate {
	body := text[skip:]
	var out []headerCandidate

	for _, re := range []*regexp.Regexp{divisionHeaderRe, divAbbrevRe} {
		for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
			code := body[m[2]:m[3]]
			if len(code) == 1 {
				code = "0" + code
			}
			if !ValidDivision(code) {
				continue
			}
			out = append(out, headerCandidate{
				code:   code,
				title:  cleanHeaderTitle(body[m[4]:m[5]]),
				offset: skip + m[0],
				end:    skip + m[1],
			})
		}
	}

	for _, m := range sectionHeaderRe.FindAllStringSubmatchIndex(body, -1) {
		code := body[m[2]:m[3]]
		mid, _ := strconv.Atoi(body[m[4]:m[5]])
		last, _ := strconv.Atoi(body[m[6]:m[7]])
		if !validSectionNumber(code, mid, last) {
			continue
		}
		title := ""
		if m[8] >= 0 {
			title = cleanHeaderTitle(body[m[8]:m[9]])
		}
		out = append(out, headerCandidate{code: code, title: title, offset: skip + m[0], end: skip + m[1]})
	}
	return out
}

// acceptContext applies the body-evidence checks to the window following
// a header match ending at off. The window is sliced from the original
// text before uppercasing so offsets stay aligned on non-ASCII input.
func (d *BoundaryDetector) acceptContext(text string, off int) bool {
	end := off + d.ContextWindow
	if end > len(text) {
		end = len(text)
	}
	ctx := strings.ToUpper(text[off:end])

	// An index line keeps going with dot leaders or a bare page number
	// before the line break; real headers open into body text.
	rest := ctx
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	if tocEchoRe.MatchString(strings.TrimSpace(rest)) {
		return false
	}

	hasKeyword := false
	for _, kw := range structuralKeywords {
		if strings.Contains(ctx, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return false
	}

	nonWS := 0
	for _, r := range ctx {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			nonWS++
		}
	}
	return nonWS > d.MinContextChars
}

func cleanHeaderTitle(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, " .-–—\t")
}
