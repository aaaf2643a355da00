package parser

import (
	"strings"
	"testing"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

func TestMarkdownParser_HeadingsAndBodySurvive(t *testing.T) {
	input := `# DIVISION 04 - MASONRY

Mortar and grout requirements.

## SECTION 04 20 00

Unit masonry products and execution.
`
	p := &MarkdownParser{}
	parsed, err := p.Parse(strings.NewReader(input), "div04.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Title != "div04" {
		t.Errorf("expected title %q, got %q", "div04", parsed.Title)
	}
	if !strings.Contains(parsed.Text, "DIVISION 04 - MASONRY") {
		t.Errorf("expected heading preserved as text, got %q", parsed.Text)
	}
	if !strings.Contains(parsed.Text, "Mortar and grout requirements.") {
		t.Errorf("expected body text preserved, got %q", parsed.Text)
	}
	if !strings.HasPrefix(parsed.Text, document.PageMarker(1)) {
		t.Errorf("expected page sentinel at start, got %q", parsed.Text)
	}
}

func TestMarkdownParser_CodeBlockContentKept(t *testing.T) {
	input := "# Schedule\n\nRates below:\n\n```\n04 20 00  Unit Masonry\n07 21 00  Thermal Insulation\n```\n\nEnd of schedule.\n"
	p := &MarkdownParser{}
	parsed, err := p.Parse(strings.NewReader(input), "sched.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(parsed.Text, "04 20 00") {
		t.Errorf("expected code block content in text, got %q", parsed.Text)
	}
	if !strings.Contains(parsed.Text, "End of schedule.") {
		t.Errorf("expected post-code text, got %q", parsed.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	parsed, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.PageCount != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", parsed.PageCount)
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		parsed, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if parsed.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, parsed.Title)
		}
	}
}

func TestHTMLParser_SkipsChromeKeepsContent(t *testing.T) {
	input := `<html><head><title>Project Manual</title></head><body>
<nav>skip me</nav>
<h1>DIVISION 09 - FINISHES</h1>
<p>Gypsum board assemblies.</p>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	parsed, err := p.Parse(strings.NewReader(input), "manual.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Title != "Project Manual" {
		t.Errorf("expected title from <title>, got %q", parsed.Title)
	}
	if !strings.Contains(parsed.Text, "DIVISION 09 - FINISHES") {
		t.Errorf("expected heading text kept, got %q", parsed.Text)
	}
	if strings.Contains(parsed.Text, "skip me") || strings.Contains(parsed.Text, "var x") {
		t.Errorf("expected nav and script skipped, got %q", parsed.Text)
	}
}
