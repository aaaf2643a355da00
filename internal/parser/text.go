package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// TextParser handles plain text files. Form feeds are honored as page
// breaks; otherwise pages are synthesized from the character budget.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*ParsedDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var paragraphs []string
	var current strings.Builder
	sawFormFeed := false

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "\f") {
			sawFormFeed = true
		}
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var text string
	var pageCount int
	if sawFormFeed {
		joined := strings.Join(paragraphs, "\n\n")
		text, pageCount = pagesToText(strings.Split(joined, "\f"))
	} else {
		for i := range paragraphs {
			paragraphs[i] = document.Clean(document.Normalize(paragraphs[i]))
		}
		text, pageCount = paginate(paragraphs)
	}

	return &ParsedDocument{
		Title:     titleFromFilename(filename),
		Text:      text,
		PageCount: pageCount,
	}, nil
}
