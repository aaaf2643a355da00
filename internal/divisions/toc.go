package divisions

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// tocMarkers in priority order. Earlier markers are more specific; the
// first one found wins.
var tocMarkers = []string{
	"TABLE OF CONTENTS",
	"INDEX OF DRAWINGS",
	"SPECIFICATION INDEX",
	"DIVISION INDEX",
}

// tocEntryRe matches one index line: a six-digit section number in compact
// or spaced form, title noise, then a page number at end of line.
// "04 22 00 CONCRETE UNIT MASONRY............120" and
// "SECTION 042200 - CONCRETE UNIT MASONRY  120" both match.
var tocEntryRe = regexp.MustCompile(`(?m)(\d{2})\s*(\d{2})\s*(\d{2})(?:\.(\d+))?([^\d\n]*?)(\d{1,4})\s*$`)

// TOCLocator parses a document's own table of contents into division
// start pages. A human-curated index beats any body-scanning heuristic,
// so this runs first in the cascade.
type TOCLocator struct {
	// WindowSize bounds how much text after the marker is parsed as index
	// lines, so body text never leaks into the result.
	WindowSize int

	logger *slog.Logger
}

func NewTOCLocator(logger *slog.Logger) *TOCLocator {
	return &TOCLocator{
		WindowSize: 8000,
		logger:     logger.With("component", "toc_locator"),
	}
}

// Locate returns a DivisionMap built from the document's index, or nil
// when no usable table of contents exists.
func (l *TOCLocator) Locate(doc *document.Document) *DivisionMap {
	upper := strings.ToUpper(doc.Text)

	markerEnd := -1
	marker := ""
	for _, m := range tocMarkers {
		if i := strings.Index(upper, m); i >= 0 {
			markerEnd = i + len(m)
			marker = m
			break
		}
	}
	if markerEnd < 0 {
		return nil
	}

	end := markerEnd + l.WindowSize
	if end > len(upper) {
		end = len(upper)
	}
	window := upper[markerEnd:end]

	type tocHit struct {
		code  string
		title string
		page  int
	}
	var hits []tocHit
	pages := make(map[string]int)
	for _, m := range tocEntryRe.FindAllStringSubmatch(window, -1) {
		code := m[1]
		if !ValidDivision(code) {
			continue
		}
		mid, _ := strconv.Atoi(m[2])
		last, _ := strconv.Atoi(m[3])
		if !validSectionNumber(code, mid, last) {
			continue
		}
		page, err := strconv.Atoi(m[6])
		if err != nil || page < 1 || page > 5000 {
			continue
		}
		if _, ok := pages[code]; ok {
			continue
		}
		pages[code] = page
		hits = append(hits, tocHit{code: code, title: cleanTOCTitle(m[5]), page: page})
	}
	if len(hits) == 0 {
		return nil
	}
	if !plausibleTOCPages(pages, doc.PageCount) {
		l.logger.Warn("rejecting index: page numbers look like index ordinals",
			"marker", marker, "entries", len(hits), "total_pages", doc.PageCount)
		return nil
	}

	entries := make([]DivisionEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, DivisionEntry{
			Code:      h.code,
			Title:     h.title,
			StartPage: h.page,
			EndPage:   h.page,
		})
	}
	m := NewDivisionMap(MethodTOC, entries, len(hits), "")
	closeRanges(m.Entries, doc.PageCount)
	l.logger.Info("index parsed", "marker", marker, "divisions", m.Len())
	return m
}

// plausibleTOCPages rejects parsed page numbers that are the index's own
// line ordering rather than document pages. Symptoms: every number tiny,
// or the listed range covering a sliver of the document.
func plausibleTOCPages(pages map[string]int, totalPages int) bool {
	minPage, maxPage := 0, 0
	for _, p := range pages {
		if minPage == 0 || p < minPage {
			minPage = p
		}
		if p > maxPage {
			maxPage = p
		}
	}
	if maxPage <= 20 && minPage <= 2 {
		return false
	}
	if maxPage < 10 {
		return false
	}
	if float64(maxPage) < float64(totalPages)*0.2 {
		return false
	}
	return true
}

// closeRanges turns per-entry start pages into inclusive ranges: each
// entry ends where the next begins, the last runs to the document end.
// Entries must already be ordered by distinct start pages, which
// NewDivisionMap guarantees.
func closeRanges(entries []DivisionEntry, totalPages int) {
	for i := range entries {
		if i+1 < len(entries) {
			entries[i].EndPage = entries[i+1].StartPage - 1
		} else {
			entries[i].EndPage = totalPages
		}
	}
}

func cleanTOCTitle(s string) string {
	return strings.Trim(s, " .-–—\t")
}
