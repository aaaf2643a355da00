package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Rshan11/submittal4subs-sub001/internal/document"
	"github.com/Rshan11/submittal4subs-sub001/internal/pipeline"
)

// handleGetDivisions returns the cached division map for a document hash.
func (s *Server) handleGetDivisions(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	rec, err := s.orchestrator.Cache().Lookup(r.Context(), hash)
	if err != nil {
		jsonError(w, "cache lookup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "no cached division map for document", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// handleInvalidateDivisions drops the cached map so the next analysis
// recomputes it.
func (s *Server) handleInvalidateDivisions(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if err := s.orchestrator.Cache().Invalidate(r.Context(), hash); err != nil {
		jsonError(w, "invalidate failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "invalidated", "document_hash": hash})
}

type extractRequest struct {
	Codes []string `json:"codes"`
	// Text is the page-marked document text. The service is stateless
	// about document bodies; callers resupply the text and the hash in
	// the URL must match it.
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}

// handleExtract slices the requested divisions out of a resupplied
// document using its cached division map.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if pipeline.ContentHashHex([]byte(req.Text)) != hash {
		jsonError(w, "text does not match document hash", http.StatusBadRequest)
		return
	}

	codes, err := parseDivisionCodes(strings.Join(req.Codes, ","))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := document.New(hash, req.Text, req.PageCount)
	if err != nil {
		jsonError(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.orchestrator.Cache().Lookup(r.Context(), hash)
	if err != nil {
		jsonError(w, "cache lookup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "no cached division map for document; run an analysis first", http.StatusNotFound)
		return
	}

	res := s.orchestrator.Extractor().Extract(doc, rec.DivisionMap, codes)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
