package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/analysis"
	"github.com/Rshan11/submittal4subs-sub001/internal/divcache"
	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/document"
	"github.com/Rshan11/submittal4subs-sub001/internal/extractor"
	"github.com/Rshan11/submittal4subs-sub001/internal/parser"
)

// Summarizer is the LLM call the worker depends on.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Worker processes a single specification analysis job.
type Worker struct {
	resolver *divisions.Resolver
	cache    *divcache.Cache
	extract  *extractor.TargetedExtractor
	llm      Summarizer
	stats    *analysis.LLMStats
	log      *slog.Logger

	maxConcurrentAnalyze int
	pdfFallback          bool
}

func NewWorker(resolver *divisions.Resolver, cache *divcache.Cache, extract *extractor.TargetedExtractor,
	llm Summarizer, stats *analysis.LLMStats, log *slog.Logger, maxAnalyze int, pdfFallback bool) *Worker {
	return &Worker{
		resolver:             resolver,
		cache:                cache,
		extract:              extract,
		llm:                  llm,
		stats:                stats,
		log:                  log,
		maxConcurrentAnalyze: maxAnalyze,
		pdfFallback:          pdfFallback,
	}
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pdfp, ok := p.(*parser.PDFParser); ok {
		pdfp.FallbackPdftotext = w.pdfFallback
	}

	parsed, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTitle(parsed.Title)

	hash := ContentHashHex([]byte(parsed.Text))
	doc, err := document.New(hash, parsed.Text, parsed.PageCount)
	if err != nil {
		log.Error("rejected parsed document", "error", err)
		job.AddError(fmt.Sprintf("document: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetDocumentInfo(hash, doc.PageCount)

	// Phase 2: Resolve the division map, through the cache.
	job.SetStatus(StatusResolving, "resolving")
	topicKey := w.primaryTopic(job.TargetDivisions)
	m, err := w.cache.GetOrCompute(ctx, hash, func(ctx context.Context) (*divisions.DivisionMap, int, error) {
		return w.resolver.Resolve(doc, topicKey), doc.PageCount, nil
	})
	if err != nil {
		if m == nil {
			log.Error("resolution failed", "error", err)
			job.AddError(fmt.Sprintf("resolve: %s", err))
			job.SetStatus(StatusFailed, "resolving")
			return
		}
		// Map computed but not persisted. Keep going.
		log.Warn("division map not persisted", "error", err)
		job.AddError(fmt.Sprintf("cache: %s", err))
	}
	log.Info("division map resolved", "method", m.Method, "divisions", m.Len())

	// Phase 3: Extract targeted division text.
	job.SetStatus(StatusExtract, "extracting")
	res := w.extract.Extract(doc, m, job.TargetDivisions)
	job.SetResolution(m.Method, res.Found, res.NotFound, res.FullDocumentFallback)

	// Phase 4: Analyze per trade with bounded concurrency.
	job.SetStatus(StatusAnalyzing, "analyzing")
	units := w.analysisUnits(doc, m, res, job.TargetDivisions)
	if len(units) == 0 {
		log.Warn("nothing to analyze")
		job.AddError("no divisions requested")
		job.SetStatus(StatusFailed, "analyzing")
		return
	}

	type analyzeResult struct {
		summary analysis.TradeSummary
		err     error
		code    string
	}
	results := make(chan analyzeResult, len(units))
	sem := make(chan struct{}, w.maxConcurrentAnalyze)

	for _, u := range units {
		sem <- struct{}{}
		go func(u analysisUnit) {
			defer func() { <-sem }()
			prompt := analysis.BuildTradePrompt(u.code, u.trade, u.note, u.crossRefs, u.text)

			var summary string
			var lastErr error
			started := time.Now()
			for attempt := 0; attempt < MaxRetries; attempt++ {
				summary, lastErr = w.llm.Summarize(ctx, prompt)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable analysis error", "division", u.code, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- analyzeResult{err: ctx.Err(), code: u.code}
					return
				}
			}
			elapsed := time.Since(started).Milliseconds()
			if lastErr != nil {
				results <- analyzeResult{err: lastErr, code: u.code}
				return
			}
			w.stats.Record(elapsed)
			results <- analyzeResult{
				code: u.code,
				summary: analysis.TradeSummary{
					DivisionCode:        u.code,
					Trade:               u.trade,
					Summary:             summary,
					ReferencedDivisions: analysis.ParseReferencedDivisions(summary),
					CrossReferences:     u.crossRefs,
					DurationMs:          elapsed,
				},
			}
		}(u)
	}

	done := 0
	failed := 0
	for range units {
		r := <-results
		if r.err != nil {
			log.Error("analysis failed", "division", r.code, "error", r.err)
			job.AddError(fmt.Sprintf("division %s: %s", r.code, r.err))
			failed++
			continue
		}
		job.AddSummary(r.summary)
		done++
	}

	log.Info("analysis complete", "summaries", done, "failed", failed)
	switch {
	case done == 0:
		job.SetStatus(StatusFailed, "analyzing")
	case failed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

type analysisUnit struct {
	code      string
	trade     string
	note      string
	text      string
	crossRefs []string
}

// analysisUnits builds one prompt input per requested division. With a
// populated map each division gets its own extracted slice. Without one,
// keyword evidence windows are preferred where they exist, then the full
// document. Each unit also carries the division codes its text
// cross-references.
func (w *Worker) analysisUnits(doc *document.Document, m *divisions.DivisionMap,
	res extractor.ExtractionResult, targets []string) []analysisUnit {
	var units []analysisUnit
	if res.FullDocumentFallback {
		note := "no division map detected; analyzing the full document"
		if m.Note != "" {
			note = m.Note
		}
		for _, code := range targets {
			text := doc.Text
			if m.Method == divisions.MethodKeyword {
				if ev := w.keywordEvidenceText(doc, code); ev != "" {
					text = ev
				}
			}
			units = append(units, analysisUnit{
				code:      code,
				trade:     w.tradeName(code),
				note:      note,
				text:      text,
				crossRefs: analysis.CrossReferencedDivisions(document.FindCrossReferences(text), code),
			})
		}
		return units
	}
	for _, code := range res.Found {
		single := w.extract.Extract(doc, m, []string{code})
		units = append(units, analysisUnit{
			code:      code,
			trade:     w.tradeName(code),
			note:      m.Note,
			text:      single.Text,
			crossRefs: analysis.CrossReferencedDivisions(document.FindCrossReferences(single.Text), code),
		})
	}
	return units
}

// keywordEvidenceText stitches the fallback search's evidence windows for
// a division's topic, or "" when no keyword evidence exists.
func (w *Worker) keywordEvidenceText(doc *document.Document, code string) string {
	key, _, ok := divisions.TopicForDivision(nil, code)
	if !ok {
		return ""
	}
	hits := w.resolver.KeywordEvidence(doc, key)
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, doc.Text[h.Start:h.End])
	}
	return strings.Join(parts, "\n\n"+extractor.GapDelimiter+"\n\n")
}

// primaryTopic picks the keyword-fallback topic for the first requested
// division that has one configured.
func (w *Worker) primaryTopic(targets []string) string {
	for _, code := range targets {
		if key, _, ok := divisions.TopicForDivision(nil, code); ok {
			return key
		}
	}
	return "general"
}

func (w *Worker) tradeName(code string) string {
	if _, t, ok := divisions.TopicForDivision(nil, code); ok {
		return t.Name
	}
	return "Division " + code
}
