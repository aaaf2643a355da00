package divisions

import (
	"log/slog"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
)

// Resolver runs the detectors in priority order and always produces a
// DivisionMap. A curated index outranks body scanning, body scanning
// outranks keyword proximity, and an empty result is still a valid map
// telling the caller to fall back to the full document.
type Resolver struct {
	toc      *TOCLocator
	boundary *BoundaryDetector
	keywords *KeywordSearch
	logger   *slog.Logger
}

func NewResolver(topics map[string]Topic, logger *slog.Logger) *Resolver {
	return &Resolver{
		toc:      NewTOCLocator(logger),
		boundary: NewBoundaryDetector(logger),
		keywords: NewKeywordSearch(topics, logger),
		logger:   logger.With("component", "resolver"),
	}
}

// Resolve never returns nil. The result's DetectionMethod tells the
// caller how much to trust it: toc and structural carry real page ranges,
// keyword is approximate evidence, none means use the whole document.
func (r *Resolver) Resolve(doc *document.Document, topic string) *DivisionMap {
	if m := r.toc.Locate(doc); m != nil && m.Len() > 0 {
		r.logger.Info("resolved via index", "hash", doc.Hash, "divisions", m.Len())
		return m
	}
	if m := r.boundary.Detect(doc); m != nil && m.Len() > 0 {
		r.logger.Info("resolved via structural scan", "hash", doc.Hash, "divisions", m.Len())
		return m
	}
	if hits := r.keywords.Search(doc, topic); len(hits) > 0 {
		r.logger.Info("resolved via keyword fallback", "hash", doc.Hash,
			"topic", topic, "windows", len(hits))
		return MapFromHits(hits)
	}
	r.logger.Warn("no structural evidence found", "hash", doc.Hash, "topic", topic)
	return EmptyMap("no table of contents, body headers, or keyword matches detected")
}

// KeywordEvidence re-runs the fallback search so callers holding a
// keyword-method map can retrieve the underlying evidence windows.
func (r *Resolver) KeywordEvidence(doc *document.Document, topic string) []KeywordHit {
	return r.keywords.Search(doc, topic)
}
