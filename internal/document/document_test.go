package document

import (
	"strings"
	"testing"
)

func pagedText(pages ...string) string {
	var b strings.Builder
	for i, p := range pages {
		b.WriteString(PageMarker(i + 1))
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

func TestNew_RejectsEmptyText(t *testing.T) {
	if _, err := New("h", "   \n ", 3); err != ErrEmptyText {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestNew_RejectsBadPageCount(t *testing.T) {
	if _, err := New("h", "some text", 0); err != ErrBadPageCount {
		t.Errorf("expected ErrBadPageCount, got %v", err)
	}
	if _, err := New("h", "some text", -4); err != ErrBadPageCount {
		t.Errorf("expected ErrBadPageCount, got %v", err)
	}
}

func TestDocument_PageAt(t *testing.T) {
	text := pagedText("alpha content", "beta content", "gamma content")
	doc, err := New("h", text, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		needle string
		want   int
	}{
		{"alpha", 1},
		{"beta", 2},
		{"gamma", 3},
	}
	for _, c := range cases {
		off := strings.Index(text, c.needle)
		if off < 0 {
			t.Fatalf("needle %q not in text", c.needle)
		}
		if got := doc.PageAt(off); got != c.want {
			t.Errorf("PageAt(%q): expected page %d, got %d", c.needle, c.want, got)
		}
	}
}

func TestDocument_PageAtNoMarkers(t *testing.T) {
	doc, err := New("h", "plain unmarked text", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.PageAt(5); got != 1 {
		t.Errorf("expected page 1, got %d", got)
	}
}

func TestDocument_PageSpan(t *testing.T) {
	doc, err := New("h", pagedText("one", "two", "three", "four"), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := doc.PageSpan(2, 3)
	if !strings.Contains(span, "two") || !strings.Contains(span, "three") {
		t.Errorf("expected span to contain pages 2-3, got %q", span)
	}
	if strings.Contains(span, "one") || strings.Contains(span, "four") {
		t.Errorf("expected span to exclude pages 1 and 4, got %q", span)
	}

	tail := doc.PageSpan(4, 9)
	if !strings.Contains(tail, "four") {
		t.Errorf("expected tail span to contain last page, got %q", tail)
	}
}

func TestDocument_WindowClamps(t *testing.T) {
	doc, err := New("h", "0123456789", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Window(2, 100, 3); got != "01234" {
		t.Errorf("expected %q, got %q", "01234", got)
	}
	if got := doc.Window(8, 2, 100); got != "6789" {
		t.Errorf("expected %q, got %q", "6789", got)
	}
}

func TestClean_RemovesFooterNoise(t *testing.T) {
	in := "body text Page 12 of 300 more   text\n\n\n\n7\nnext line"
	out := Clean(in)
	if strings.Contains(out, "Page 12 of 300") {
		t.Errorf("expected footer removed, got %q", out)
	}
	if strings.Contains(out, "   ") {
		t.Errorf("expected runs of spaces collapsed, got %q", out)
	}
}

func TestNormalize_QuotesAndDashes(t *testing.T) {
	in := "“MASONRY” — it’s 04​"
	out := Normalize(in)
	want := `"MASONRY" - it's 04`
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestFindCrossReferences(t *testing.T) {
	text := "Grout per Section 03 30 00. Flashing refer to Division 07 requirements."
	refs := FindCrossReferences(text)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].Type != "section" || refs[0].Reference != "03 30 00" {
		t.Errorf("expected section 03 30 00, got %+v", refs[0])
	}
	if refs[1].Type != "division" || refs[1].Reference != "07" {
		t.Errorf("expected division 07, got %+v", refs[1])
	}
}
