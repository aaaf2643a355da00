package extractor

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildDoc(t *testing.T, pages ...string) *document.Document {
	t.Helper()
	var b strings.Builder
	for i, p := range pages {
		b.WriteString(document.PageMarker(i + 1))
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString("\n")
	}
	doc, err := document.New("testhash", b.String(), len(pages))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return doc
}

func TestExtract_MissingCodeReportedNotErrored(t *testing.T) {
	doc := buildDoc(t, "intro", "masonry mortar requirements", "masonry grout requirements", "finishes")
	m := divisions.NewDivisionMap(divisions.MethodStructural, []divisions.DivisionEntry{
		{Code: "04", Title: "MASONRY", StartPage: 2, EndPage: 3},
	}, 1, "")

	res := NewTargetedExtractor(testLogger()).Extract(doc, m, []string{"04", "07"})

	if len(res.Found) != 1 || res.Found[0] != "04" {
		t.Errorf("expected found [04], got %v", res.Found)
	}
	if len(res.NotFound) != 1 || res.NotFound[0] != "07" {
		t.Errorf("expected not_found [07], got %v", res.NotFound)
	}
	if res.FullDocumentFallback {
		t.Error("expected no fallback with a populated map")
	}
	if !strings.Contains(res.Text, "mortar") || !strings.Contains(res.Text, "grout") {
		t.Errorf("expected division 04 pages in output, got %q", res.Text)
	}
	if strings.Contains(res.Text, "finishes") {
		t.Errorf("expected page 4 excluded, got %q", res.Text)
	}
}

func TestExtract_EmptyMapSignalsFullDocumentFallback(t *testing.T) {
	doc := buildDoc(t, "page one", "page two")
	m := divisions.EmptyMap("nothing detected")

	res := NewTargetedExtractor(testLogger()).Extract(doc, m, []string{"04"})

	if !res.FullDocumentFallback {
		t.Error("expected full-document fallback for empty map")
	}
	if res.Text != "" {
		t.Errorf("expected empty text, got %q", res.Text)
	}
	if len(res.NotFound) != 1 {
		t.Errorf("expected requested code reported not-found, got %v", res.NotFound)
	}
}

func TestExtract_MultipleDivisionsDelimited(t *testing.T) {
	doc := buildDoc(t, "intro", "masonry body", "thermal body", "tail")
	m := divisions.NewDivisionMap(divisions.MethodTOC, []divisions.DivisionEntry{
		{Code: "04", Title: "MASONRY", StartPage: 2, EndPage: 2},
		{Code: "07", Title: "THERMAL", StartPage: 3, EndPage: 3},
	}, 2, "")

	res := NewTargetedExtractor(testLogger()).Extract(doc, m, []string{"04", "07"})

	if len(res.Found) != 2 {
		t.Fatalf("expected 2 found, got %v", res.Found)
	}
	if !strings.Contains(res.Text, GapDelimiter) {
		t.Errorf("expected gap delimiter between divisions, got %q", res.Text)
	}
	if !strings.Contains(res.Text, "DIVISION 04 - MASONRY") {
		t.Errorf("expected division header in output, got %q", res.Text)
	}
	i04 := strings.Index(res.Text, "masonry body")
	i07 := strings.Index(res.Text, "thermal body")
	if i04 < 0 || i07 < 0 || i04 > i07 {
		t.Errorf("expected division 04 before 07 in output, got %q", res.Text)
	}
}

func TestExtract_NoRequestedCodes(t *testing.T) {
	doc := buildDoc(t, "one", "two")
	m := divisions.NewDivisionMap(divisions.MethodTOC, []divisions.DivisionEntry{
		{Code: "04", StartPage: 1, EndPage: 2},
	}, 1, "")

	res := NewTargetedExtractor(testLogger()).Extract(doc, m, nil)
	if res.Text != "" || len(res.Found) != 0 || len(res.NotFound) != 0 {
		t.Errorf("expected empty result for empty request, got %+v", res)
	}
	if res.FullDocumentFallback {
		t.Error("expected no fallback flag with a populated map")
	}
}
