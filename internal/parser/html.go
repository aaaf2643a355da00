package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// HTMLParser handles HTML files using golang.org/x/net/html.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*ParsedDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	title := findTitle(root)
	if title == "" {
		title = titleFromFilename(filename)
	}

	body := findBody(root)
	if body == nil {
		body = root
	}

	var blocks []string
	collectBlocks(body, &blocks)
	for i := range blocks {
		blocks[i] = document.Clean(document.Normalize(blocks[i]))
	}

	text, pageCount := paginate(blocks)
	return &ParsedDocument{
		Title:     title,
		Text:      text,
		PageCount: pageCount,
	}, nil
}

// collectBlocks walks the tree collecting block-level text, skipping
// non-content elements.
func collectBlocks(n *html.Node, blocks *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "aside":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "td", "th", "pre", "blockquote":
			if t := textContent(n); t != "" {
				*blocks = append(*blocks, t)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, blocks)
	}
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
