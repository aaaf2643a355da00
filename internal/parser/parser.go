// Package parser converts uploaded specification files into page-marked
// plain text ready for division detection.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// ParsedDocument is extracted text with page sentinels embedded, plus the
// page count those sentinels describe.
type ParsedDocument struct {
	Title     string
	Text      string
	PageCount int
}

// Parser converts raw document bytes into a ParsedDocument.
type Parser interface {
	Parse(r io.Reader, filename string) (*ParsedDocument, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// pageCharBudget approximates one printed page for source formats that
// carry no page boundaries of their own.
const pageCharBudget = 3000

// paginate assembles cleaned text blocks into page-marked text, starting
// a new page whenever the running page exceeds the character budget.
func paginate(blocks []string) (string, int) {
	var b strings.Builder
	page := 0
	pageLen := 0
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if page == 0 || pageLen >= pageCharBudget {
			page++
			if page > 1 {
				b.WriteString("\n")
			}
			b.WriteString(document.PageMarker(page))
			b.WriteString("\n")
			pageLen = 0
		}
		b.WriteString(block)
		b.WriteString("\n")
		pageLen += len(block) + 1
	}
	return b.String(), page
}

// pagesToText joins per-page text under page sentinels, skipping blank
// pages but keeping their numbering.
func pagesToText(pages []string) (string, int) {
	var b strings.Builder
	count := 0
	for i, p := range pages {
		p = document.Clean(document.Normalize(p))
		if strings.TrimSpace(p) == "" {
			continue
		}
		if count > 0 {
			b.WriteString("\n")
		}
		b.WriteString(document.PageMarker(i + 1))
		b.WriteString("\n")
		b.WriteString(p)
		count = i + 1
	}
	return b.String(), count
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
