package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/analysis"
	"github.com/Rshan11/submittal4subs-sub001/internal/config"
	"github.com/Rshan11/submittal4subs-sub001/internal/divcache"
	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
	"github.com/Rshan11/submittal4subs-sub001/internal/extractor"
)

// Orchestrator manages the specification analysis pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	resolver *divisions.Resolver
	cache    *divcache.Cache
	extract  *extractor.TargetedExtractor
	llm      Summarizer
	stats    *analysis.LLMStats
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, cache *divcache.Cache, llm Summarizer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		resolver: divisions.NewResolver(nil, log),
		cache:    cache,
		extract:  extractor.NewTargetedExtractor(log),
		llm:      llm,
		stats:    analysis.NewLLMStats(time.Hour),
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and background housekeeping.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.resolver, o.cache, o.extract, o.llm, o.stats, o.log,
				o.cfg.MaxConcurrentAnalyze, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()

	// Division map cache sweep.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CacheSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cache.Sweep(workerCtx, o.cfg.CacheMaxAge, int64(o.cfg.CacheMinAccesses))
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Cache returns the division map cache for direct use by API handlers.
func (o *Orchestrator) Cache() *divcache.Cache {
	return o.cache
}

// Extractor returns the targeted extractor for direct use by API handlers.
func (o *Orchestrator) Extractor() *extractor.TargetedExtractor {
	return o.extract
}

// LLMStats returns the analysis latency tracker.
func (o *Orchestrator) LLMStats() *analysis.LLMStats {
	return o.stats
}

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return generateULID()
}
