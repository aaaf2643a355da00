package document

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Document is an immutable extracted-text representation of a source
// document. Text carries "--- PAGE n ---" sentinels between pages so byte
// offsets can be translated back to page numbers.
type Document struct {
	Hash      string
	Text      string
	PageCount int

	// pageStarts[i] is the byte offset where page i+1 begins (just after
	// its sentinel, or 0 for text without a leading sentinel).
	pageStarts []int
	pageNums   []int
}

var pageMarkerRe = regexp.MustCompile(`(?i)---\s*PAGE\s+(\d+)\s*---`)

// PageMarker formats the sentinel inserted between pages.
func PageMarker(n int) string {
	return fmt.Sprintf("--- PAGE %d ---", n)
}

var (
	ErrEmptyText    = errors.New("document: empty text")
	ErrBadPageCount = errors.New("document: page count must be positive")
)

// New validates and indexes a document. Empty text or a non-positive page
// count is a rejected input, not a degraded document.
func New(hash, text string, pageCount int) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if pageCount <= 0 {
		return nil, ErrBadPageCount
	}
	d := &Document{Hash: hash, Text: text, PageCount: pageCount}
	d.indexPages()
	return d, nil
}

func (d *Document) indexPages() {
	locs := pageMarkerRe.FindAllStringSubmatchIndex(d.Text, -1)
	if len(locs) == 0 {
		d.pageStarts = []int{0}
		d.pageNums = []int{1}
		return
	}
	// Text before the first sentinel belongs to page 1.
	if locs[0][0] > 0 {
		d.pageStarts = append(d.pageStarts, 0)
		d.pageNums = append(d.pageNums, 1)
	}
	for _, loc := range locs {
		n, err := strconv.Atoi(d.Text[loc[2]:loc[3]])
		if err != nil || n < 1 {
			continue
		}
		d.pageStarts = append(d.pageStarts, loc[1])
		d.pageNums = append(d.pageNums, n)
	}
}

// PageAt translates a byte offset into a page number. Offsets before the
// first sentinel map to page 1; offsets past the end map to the last page.
func (d *Document) PageAt(offset int) int {
	if offset < 0 {
		offset = 0
	}
	i := sort.Search(len(d.pageStarts), func(i int) bool {
		return d.pageStarts[i] > offset
	})
	if i == 0 {
		return d.pageNums[0]
	}
	return d.pageNums[i-1]
}

// PageSpan returns the text of an inclusive page range. Pages outside the
// document clamp to its bounds.
func (d *Document) PageSpan(startPage, endPage int) string {
	if startPage > endPage {
		return ""
	}
	start := d.pageOffset(startPage)
	end := len(d.Text)
	if endPage < d.PageCount {
		if next := d.pageOffset(endPage + 1); next > start {
			end = next
		}
	}
	return d.Text[start:end]
}

// pageOffset returns the byte offset where the given page's content begins.
func (d *Document) pageOffset(page int) int {
	i := sort.Search(len(d.pageNums), func(i int) bool {
		return d.pageNums[i] >= page
	})
	if i >= len(d.pageStarts) {
		return len(d.Text)
	}
	return d.pageStarts[i]
}

// Window returns a bounded slice of text around center, clamped to the
// document. before and after are maximum byte counts on each side.
func (d *Document) Window(center, before, after int) string {
	start := center - before
	if start < 0 {
		start = 0
	}
	end := center + after
	if end > len(d.Text) {
		end = len(d.Text)
	}
	if start >= end {
		return ""
	}
	return d.Text[start:end]
}
