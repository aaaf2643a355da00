// Package divisions locates CSI MasterFormat division boundaries in
// extracted specification text. Detection cascades from the document's own
// table of contents, to in-body header scanning, to keyword proximity
// search, and always produces a DivisionMap carrying its provenance.
package divisions

import (
	"fmt"
	"sort"
)

// DetectionMethod records which detector produced a DivisionMap. Downstream
// consumers use it to decide whether page ranges can be trusted.
type DetectionMethod string

const (
	MethodTOC        DetectionMethod = "toc"
	MethodStructural DetectionMethod = "structural"
	MethodKeyword    DetectionMethod = "keyword"
	MethodNone       DetectionMethod = "none"
)

// DivisionEntry is one detected division with its inclusive page range.
type DivisionEntry struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// DivisionMap is the resolved structure of a document: entries ordered by
// start page, plus provenance metadata. Immutable after construction.
type DivisionMap struct {
	Entries       []DivisionEntry `json:"entries"`
	Method        DetectionMethod `json:"detection_method"`
	SectionsFound int             `json:"sections_found"`
	Note          string          `json:"note,omitempty"`

	index map[string]int
}

// NewDivisionMap orders entries by start page, drops duplicates keeping
// the first occurrence, and builds the code lookup. Two entries on one
// start page cannot both hold a non-overlapping range there, so the
// second is dropped as well.
func NewDivisionMap(method DetectionMethod, entries []DivisionEntry, sectionsFound int, note string) *DivisionMap {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartPage < entries[j].StartPage
	})
	kept := entries[:0]
	seenCode := make(map[string]bool, len(entries))
	seenStart := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seenCode[e.Code] || seenStart[e.StartPage] {
			continue
		}
		seenCode[e.Code] = true
		seenStart[e.StartPage] = true
		kept = append(kept, e)
	}
	m := &DivisionMap{
		Entries:       kept,
		Method:        method,
		SectionsFound: sectionsFound,
		Note:          note,
	}
	m.buildIndex()
	return m
}

// EmptyMap is the terminal "no structural extraction possible" result.
func EmptyMap(note string) *DivisionMap {
	return NewDivisionMap(MethodNone, nil, 0, note)
}

func (m *DivisionMap) buildIndex() {
	m.index = make(map[string]int, len(m.Entries))
	for i, e := range m.Entries {
		if _, ok := m.index[e.Code]; !ok {
			m.index[e.Code] = i
		}
	}
}

// Lookup returns the entry for a division code.
func (m *DivisionMap) Lookup(code string) (DivisionEntry, bool) {
	if m.index == nil {
		m.buildIndex()
	}
	i, ok := m.index[code]
	if !ok {
		return DivisionEntry{}, false
	}
	return m.Entries[i], true
}

// Len reports the number of detected divisions.
func (m *DivisionMap) Len() int { return len(m.Entries) }

// Copy returns an independent copy safe to hand to a caller.
func (m *DivisionMap) Copy() *DivisionMap {
	entries := make([]DivisionEntry, len(m.Entries))
	copy(entries, m.Entries)
	c := &DivisionMap{
		Entries:       entries,
		Method:        m.Method,
		SectionsFound: m.SectionsFound,
		Note:          m.Note,
	}
	c.buildIndex()
	return c
}

// Validate checks the map's structural invariants.
func (m *DivisionMap) Validate() error {
	seen := make(map[string]bool, len(m.Entries))
	prevEnd := 0
	for _, e := range m.Entries {
		if e.StartPage > e.EndPage {
			return fmt.Errorf("division %s: start page %d after end page %d", e.Code, e.StartPage, e.EndPage)
		}
		if seen[e.Code] {
			return fmt.Errorf("division %s: duplicate code", e.Code)
		}
		seen[e.Code] = true
		if e.StartPage <= prevEnd {
			return fmt.Errorf("division %s: overlaps previous range ending at page %d", e.Code, prevEnd)
		}
		prevEnd = e.EndPage
	}
	return nil
}

// validDivisions is the CSI MasterFormat division code set. Anything
// outside it (dates, drawing numbers) is not a division.
var validDivisions = map[string]bool{
	"00": true, "01": true, "02": true, "03": true, "04": true,
	"05": true, "06": true, "07": true, "08": true, "09": true,
	"10": true, "11": true, "12": true, "13": true, "14": true,
	"21": true, "22": true, "23": true, "25": true, "26": true,
	"27": true, "28": true,
	"31": true, "32": true, "33": true, "34": true, "35": true,
	"40": true, "41": true, "42": true, "43": true, "44": true,
	"45": true, "46": true, "47": true, "48": true,
}

// ValidDivision reports whether code is a real CSI division code.
func ValidDivision(code string) bool { return validDivisions[code] }

// commonSectionMids are middle pairs that occur in real section numbers.
// Used to tell "04 20 25" the date from "04 20 00" the section.
var commonSectionMids = map[int]bool{
	0: true, 5: true, 10: true, 15: true, 20: true, 21: true, 22: true,
	23: true, 24: true, 25: true, 30: true, 35: true, 40: true, 50: true,
	60: true, 70: true, 80: true, 90: true,
}

// validSectionNumber reports whether a six-digit section number is a real
// CSI section rather than a date like "04 20 25" (April 20, 2025).
func validSectionNumber(divCode string, mid, last int) bool {
	if !validDivisions[divCode] {
		return false
	}
	if mid >= 1 && mid <= 31 && last >= 20 && last <= 35 {
		if !commonSectionMids[mid] && mid <= 28 {
			return false
		}
	}
	return true
}
