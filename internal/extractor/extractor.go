// Package extractor slices resolved division page ranges out of a
// document for hand-off to downstream analysis.
package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// ExtractionRequest names the division codes the caller wants.
type ExtractionRequest struct {
	Codes []string `json:"codes"`
}

// ExtractionResult is the bounded text payload. Requested codes missing
// from the map are reported, never errored: one absent division must not
// fail the rest of the request.
type ExtractionResult struct {
	Text     string   `json:"text"`
	Found    []string `json:"found"`
	NotFound []string `json:"not_found"`
	// FullDocumentFallback is set when the map carries no page ranges and
	// the caller must analyze the whole document instead.
	FullDocumentFallback bool `json:"full_document_fallback"`
}

// GapDelimiter separates non-contiguous text slices in extracted output.
const GapDelimiter = "--- [GAP] ---"

// TargetedExtractor slices documents by division code.
type TargetedExtractor struct {
	logger *slog.Logger
}

func NewTargetedExtractor(logger *slog.Logger) *TargetedExtractor {
	return &TargetedExtractor{logger: logger.With("component", "extractor")}
}

// Extract returns the concatenated text of the requested divisions'
// page ranges. A map with no entries signals full-document fallback.
func (e *TargetedExtractor) Extract(doc *document.Document, m *divisions.DivisionMap, codes []string) ExtractionResult {
	res := ExtractionResult{Found: []string{}, NotFound: []string{}}

	if m == nil || m.Len() == 0 {
		res.FullDocumentFallback = true
		res.NotFound = append(res.NotFound, codes...)
		e.logger.Warn("no division ranges available, signaling full-document fallback",
			"hash", doc.Hash, "requested", len(codes))
		return res
	}

	var parts []string
	for _, code := range codes {
		entry, ok := m.Lookup(code)
		if !ok {
			res.NotFound = append(res.NotFound, code)
			e.logger.Debug("requested division absent from map", "hash", doc.Hash, "code", code)
			continue
		}
		span := doc.PageSpan(entry.StartPage, entry.EndPage)
		parts = append(parts, divisionHeader(entry)+"\n\n"+span)
		res.Found = append(res.Found, code)
	}
	res.Text = strings.Join(parts, "\n\n"+GapDelimiter+"\n\n")
	e.logger.Info("extraction complete", "hash", doc.Hash,
		"found", len(res.Found), "not_found", len(res.NotFound), "chars", len(res.Text))
	return res
}

func divisionHeader(e divisions.DivisionEntry) string {
	title := e.Title
	if title == "" {
		title = "DIVISION " + e.Code
	}
	return fmt.Sprintf("=== DIVISION %s - %s (PAGES %d-%d) ===", e.Code, title, e.StartPage, e.EndPage)
}
