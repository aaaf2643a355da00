package divisions

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// Topic ties a trade label to its division and search keywords. Keyword
// tables are configuration, injected into the search rather than wired
// into detector logic, so new trades need no code changes.
type Topic struct {
	Division string   `json:"division"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// DefaultTopics covers the common construction trades.
var DefaultTopics = map[string]Topic{
	"masonry":    {Division: "04", Name: "Masonry", Keywords: []string{"MASONRY", "BRICK", "CMU", "MORTAR", "GROUT", "UNIT MASONRY"}},
	"concrete":   {Division: "03", Name: "Concrete", Keywords: []string{"CONCRETE", "CAST-IN-PLACE", "FORMWORK", "REINFORCEMENT"}},
	"steel":      {Division: "05", Name: "Structural Steel", Keywords: []string{"STRUCTURAL STEEL", "METAL FABRICATIONS", "STEEL JOISTS"}},
	"wood":       {Division: "06", Name: "Wood/Plastics/Composites", Keywords: []string{"ROUGH CARPENTRY", "FINISH CARPENTRY", "MILLWORK", "LUMBER"}},
	"thermal":    {Division: "07", Name: "Thermal & Moisture Protection", Keywords: []string{"WATERPROOFING", "INSULATION", "ROOFING", "SEALANTS", "FLASHING"}},
	"openings":   {Division: "08", Name: "Openings", Keywords: []string{"DOORS", "WINDOWS", "HARDWARE", "GLAZING", "FRAMES"}},
	"finishes":   {Division: "09", Name: "Finishes", Keywords: []string{"DRYWALL", "GYPSUM", "PAINTING", "FLOORING", "TILE", "CEILING"}},
	"plumbing":   {Division: "22", Name: "Plumbing", Keywords: []string{"PLUMBING", "PIPING", "FIXTURES", "PUMPS"}},
	"mechanical": {Division: "23", Name: "Mechanical/HVAC", Keywords: []string{"HVAC", "MECHANICAL", "DUCTWORK", "AIR HANDLING"}},
	"electrical": {Division: "26", Name: "Electrical", Keywords: []string{"ELECTRICAL", "WIRING", "CONDUCTORS", "PANELBOARDS"}},
	"sitework":   {Division: "31", Name: "Earthwork", Keywords: []string{"EARTHWORK", "GRADING", "EXCAVATION", "SITE"}},
	"general":    {Division: "", Name: "General", Keywords: nil},
}

// TopicForDivision finds the topic configured for a division code.
func TopicForDivision(topics map[string]Topic, code string) (string, Topic, bool) {
	if topics == nil {
		topics = DefaultTopics
	}
	for key, t := range topics {
		if t.Division == code {
			return key, t, true
		}
	}
	return "", Topic{}, false
}

// KeywordHit is one deduplicated evidence window around a keyword match.
// Offsets are byte positions in the document text.
type KeywordHit struct {
	Keyword string
	Start   int
	End     int
}

// KeywordNote is attached to keyword-derived maps so downstream consumers
// never mistake match counts for validated division boundaries.
const KeywordNote = "keyword fallback: matches are topic keyword occurrences, not validated division boundaries"

// KeywordSearch is the last-resort detector: when neither index nor body
// headers exist, it collects text windows around trade keywords.
type KeywordSearch struct {
	Topics map[string]Topic
	// Before and After bound each evidence window around a match.
	Before int
	After  int

	logger *slog.Logger
}

func NewKeywordSearch(topics map[string]Topic, logger *slog.Logger) *KeywordSearch {
	if topics == nil {
		topics = DefaultTopics
	}
	return &KeywordSearch{
		Topics: topics,
		Before: 300,
		After:  1500,
		logger: logger.With("component", "keyword_search"),
	}
}

// Search returns deduplicated evidence windows for the topic's keywords,
// or nil when the topic is unknown, has no keywords, or nothing matches.
// Matching is case-insensitive on the raw text, so hit offsets index
// doc.Text directly.
func (s *KeywordSearch) Search(doc *document.Document, topic string) []KeywordHit {
	t, ok := s.Topics[strings.ToLower(topic)]
	if !ok || len(t.Keywords) == 0 {
		return nil
	}

	var hits []KeywordHit
	for _, kw := range t.Keywords {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(kw))
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(doc.Text, -1) {
			start := loc[0] - s.Before
			if start < 0 {
				start = 0
			}
			end := loc[1] + s.After
			if end > len(doc.Text) {
				end = len(doc.Text)
			}
			hits = append(hits, KeywordHit{Keyword: kw, Start: start, End: end})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Start < hits[j].Start })
	merged := hits[:1]
	for _, h := range hits[1:] {
		last := &merged[len(merged)-1]
		if h.Start <= last.End {
			if h.End > last.End {
				last.End = h.End
			}
			continue
		}
		merged = append(merged, h)
	}
	s.logger.Info("keyword fallback matched", "topic", topic,
		"raw_hits", len(hits), "windows", len(merged))
	return merged
}

// MapFromHits wraps keyword evidence in a DivisionMap. The map carries no
// page-range entries: keyword proximity locates discussion of a trade, not
// section boundaries.
func MapFromHits(hits []KeywordHit) *DivisionMap {
	return NewDivisionMap(MethodKeyword, nil, len(hits), KeywordNote)
}
