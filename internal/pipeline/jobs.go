package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/analysis"
	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusResolving JobStatus = "resolving"
	StatusExtract   JobStatus = "extracting"
	StatusAnalyzing JobStatus = "analyzing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Job tracks the state of a single specification analysis.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	// Divisions the caller asked to analyze.
	TargetDivisions []string `json:"target_divisions"`

	Progress Progress `json:"progress"`

	ContentHash     string                    `json:"content_hash,omitempty"`
	PageCount       int                       `json:"page_count,omitempty"`
	DetectionMethod divisions.DetectionMethod `json:"detection_method,omitempty"`
	Summaries       []analysis.TradeSummary   `json:"summaries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	DivisionsRequested int      `json:"divisions_requested"`
	DivisionsFound     []string `json:"divisions_found"`
	DivisionsNotFound  []string `json:"divisions_not_found"`
	SummariesDone      int      `json:"summaries_done"`
	FullDocumentUsed   bool     `json:"full_document_used"`
	Errors             []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResolution records the division map provenance and extraction outcome.
func (j *Job) SetResolution(method divisions.DetectionMethod, found, notFound []string, fullDoc bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DetectionMethod = method
	j.Progress.DivisionsFound = found
	j.Progress.DivisionsNotFound = notFound
	j.Progress.FullDocumentUsed = fullDoc
	j.UpdatedAt = time.Now()
}

// AddSummary appends one completed trade summary.
func (j *Job) AddSummary(s analysis.TradeSummary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Summaries = append(j.Summaries, s)
	j.Progress.SummariesDone++
	j.UpdatedAt = time.Now()
}

// SetTitle records the parsed document title if none was provided.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" && title != "" {
		j.Title = title
		j.UpdatedAt = time.Now()
	}
}

// SetDocumentInfo records the parsed document identity.
func (j *Job) SetDocumentInfo(hash string, pageCount int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.PageCount = pageCount
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID              string                    `json:"job_id"`
	Status          JobStatus                 `json:"status"`
	Phase           string                    `json:"phase"`
	Filename        string                    `json:"filename"`
	Title           string                    `json:"title"`
	TargetDivisions []string                  `json:"target_divisions"`
	ContentHash     string                    `json:"content_hash,omitempty"`
	PageCount       int                       `json:"page_count,omitempty"`
	DetectionMethod divisions.DetectionMethod `json:"detection_method,omitempty"`
	Progress        Progress                  `json:"progress"`
	Summaries       []analysis.TradeSummary   `json:"summaries,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	summaries := make([]analysis.TradeSummary, len(j.Summaries))
	copy(summaries, j.Summaries)
	return JobSnapshot{
		ID:              j.ID,
		Status:          j.Status,
		Phase:           j.Phase,
		Filename:        j.Filename,
		Title:           j.Title,
		TargetDivisions: append([]string(nil), j.TargetDivisions...),
		ContentHash:     j.ContentHash,
		PageCount:       j.PageCount,
		DetectionMethod: j.DetectionMethod,
		Progress: Progress{
			DivisionsRequested: j.Progress.DivisionsRequested,
			DivisionsFound:     append([]string(nil), j.Progress.DivisionsFound...),
			DivisionsNotFound:  append([]string(nil), j.Progress.DivisionsNotFound...),
			SummariesDone:      j.Progress.SummariesDone,
			FullDocumentUsed:   j.Progress.FullDocumentUsed,
			Errors:             errs,
		},
		Summaries: summaries,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
