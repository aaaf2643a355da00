package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/analysis"
	"github.com/Rshan11/submittal4subs-sub001/internal/divcache"
	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/extractor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM is called from the worker's concurrent analysis goroutines, so
// its state is synchronized.
type fakeLLM struct {
	summary string
	err     error
	calls   atomic.Int64

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) Summarize(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeLLM) promptsSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func newTestWorker(llm Summarizer) *Worker {
	log := testLogger()
	return NewWorker(
		divisions.NewResolver(nil, log),
		divcache.New(divcache.NewMemoryStore(), log),
		extractor.NewTargetedExtractor(log),
		llm,
		analysis.NewLLMStats(time.Hour),
		log,
		2,
		false,
	)
}

func newTestJob(filename, content string, targets []string) *Job {
	job := &Job{
		ID:              NewJobID(),
		Status:          StatusQueued,
		Phase:           "queued",
		Filename:        filename,
		TargetDivisions: targets,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	job.Progress.DivisionsRequested = len(targets)
	job.SetFileData([]byte(content))
	return job
}

func TestWorker_FullDocumentFallbackCompletes(t *testing.T) {
	llm := &fakeLLM{summary: "### QUOTE THESE ITEMS\n- Mortar - Spec Mix\n\nDivisions referenced: 03, 07"}
	w := newTestWorker(llm)

	content := strings.Repeat("The masonry mortar and grout shall comply with project requirements. ", 20)
	job := newTestJob("spec.txt", content, []string{"04"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if !snap.Progress.FullDocumentUsed {
		t.Error("expected full-document fallback for unstructured text")
	}
	if snap.ContentHash == "" || snap.PageCount == 0 {
		t.Errorf("expected document identity recorded, got hash=%q pages=%d", snap.ContentHash, snap.PageCount)
	}
	if len(snap.Summaries) != 1 || snap.Summaries[0].DivisionCode != "04" {
		t.Fatalf("expected one summary for division 04, got %+v", snap.Summaries)
	}
	if got := snap.Summaries[0].ReferencedDivisions; len(got) != 2 || got[0] != "03" || got[1] != "07" {
		t.Errorf("expected referenced divisions [03 07], got %v", got)
	}
}

func TestWorker_UnsupportedFormatFails(t *testing.T) {
	w := newTestWorker(&fakeLLM{summary: "ok"})
	job := newTestJob("spec.xlsx", "data", []string{"04"})

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed for unsupported extension, got %q", job.Snapshot().Status)
	}
}

func TestWorker_EmptyDocumentFails(t *testing.T) {
	w := newTestWorker(&fakeLLM{summary: "ok"})
	job := newTestJob("spec.txt", "   \n\n   ", []string{"04"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed for empty document, got %q", snap.Status)
	}
}

func TestWorker_AnalysisErrorFailsJob(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unavailable")}
	w := newTestWorker(llm)
	job := newTestJob("spec.txt", "masonry mortar grout cmu brick requirements throughout", []string{"04"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed when every analysis errors, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected analysis error recorded on job")
	}
	if got := llm.calls.Load(); got != 1 {
		t.Errorf("expected non-retryable error to stop after one call, got %d", got)
	}
}

func TestWorker_StructuralDocumentExtractsPerDivision(t *testing.T) {
	llm := &fakeLLM{summary: "### QUOTE THESE ITEMS\n- item"}
	w := newTestWorker(llm)

	filler := strings.Repeat("The work of this division includes products and execution requirements. ", 70)
	var b strings.Builder
	b.WriteString("DIVISION 04 - MASONRY\n")
	b.WriteString("PART 1 GENERAL\nScope of unit masonry, mortar, and grout.\n")
	b.WriteString(filler)
	b.WriteString("\n\n")
	b.WriteString("DIVISION 09 - FINISHES\n")
	b.WriteString("PART 1 GENERAL\nScope of gypsum board and painting products.\n")
	b.WriteString(filler)

	job := newTestJob("spec.txt", b.String(), []string{"04", "09"})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.DetectionMethod != divisions.MethodStructural {
		t.Errorf("expected structural detection, got %q", snap.DetectionMethod)
	}
	if len(snap.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(snap.Summaries))
	}
	if got := llm.calls.Load(); got != 2 {
		t.Errorf("expected one LLM call per division, got %d", got)
	}
}

func TestWorker_KeywordFallbackAnalyzesEvidenceWindows(t *testing.T) {
	llm := &fakeLLM{summary: "### QUOTE THESE ITEMS\n- item"}
	w := newTestWorker(llm)

	// Scattered trade keywords but no index or headers: the resolver lands
	// on the keyword method and analysis should see the evidence windows,
	// not the far-away text.
	pad := strings.Repeat("General conditions narrative without trade terms at all here. ", 60)
	content := "ZENITHMARK opening clause.\n\n" + pad +
		"\n\nThe unit masonry mortar shall be type S throughout.\n\n" + pad
	job := newTestJob("spec.txt", content, []string{"04"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.DetectionMethod != divisions.MethodKeyword {
		t.Fatalf("expected keyword detection, got %q", snap.DetectionMethod)
	}
	prompts := llm.promptsSeen()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(prompts))
	}
	if !strings.Contains(strings.ToLower(prompts[0]), "masonry mortar") {
		t.Error("expected keyword evidence window in prompt")
	}
	if strings.Contains(prompts[0], "ZENITHMARK") {
		t.Error("expected text outside evidence windows excluded from prompt")
	}
}

func TestWorker_SummaryCarriesDocumentCrossReferences(t *testing.T) {
	llm := &fakeLLM{summary: "### QUOTE THESE ITEMS\n- item"}
	w := newTestWorker(llm)

	content := strings.Repeat("The masonry mortar and grout shall comply with project requirements. ", 20) +
		"Flashing refer to Division 07 requirements. Grout per Section 03 30 00."
	job := newTestJob("spec.txt", content, []string{"04"})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if len(snap.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(snap.Summaries))
	}
	refs := snap.Summaries[0].CrossReferences
	if len(refs) != 2 || refs[0] != "03" || refs[1] != "07" {
		t.Errorf("expected document cross-references [03 07], got %v", refs)
	}
	prompts := llm.promptsSeen()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Document cross-references divisions: 03, 07") {
		t.Error("expected cross-reference hint carried into the prompt")
	}
}
