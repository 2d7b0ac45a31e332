package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/doctimeline/internal/config"
	"github.com/dgallion1/doctimeline/internal/metrics"
)

// Orchestrator manages the document ingestion pipeline. Workers parse and
// extract in parallel; a single applier writes to the project in arrival
// order.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	applyCh chan *Extracted
	project *Project
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     config.Config

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	applierWg sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(cfg config.Config, project *Project, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		applyCh: make(chan *Extracted, cfg.MaxQueueSize),
		project: project,
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.log, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					x := w.Process(workerCtx, job)
					if x == nil {
						o.finish(job)
						continue
					}
					o.applyCh <- x
				}
			}
		}()
	}

	// The applier drains applyCh until every worker has exited.
	o.applierWg.Add(1)
	go func() {
		defer o.applierWg.Done()
		w := NewWorker(o.log, o.cfg.PDFFallbackPdftotext)
		for x := range o.applyCh {
			w.Apply(o.project, x)
			o.finish(x.Job)
		}
	}()

	// Start job store cleanup.
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
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
	close(o.applyCh)
	o.applierWg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		o.finish(job)
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

// Project returns the project jobs are applied to.
func (o *Orchestrator) Project() *Project {
	return o.project
}

func (o *Orchestrator) finish(job *Job) {
	snap := job.Snapshot()
	o.metrics.ObserveJob(string(snap.Status))
}
