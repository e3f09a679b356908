package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jfarrand/coursechunk/internal/config"
	"github.com/jfarrand/coursechunk/internal/converter"
	"github.com/jfarrand/coursechunk/internal/store"
)

// work is one queued unit: a file task and the job that owns it.
type work struct {
	job  *Job
	task *FileTask
}

// Orchestrator runs batch conversions on a bounded worker pool. File
// conversion is sequential internally; across files the pool is the
// only concurrency, and the dispatch table it shares is read-only.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan work
	registry *converter.Registry
	db       *store.DB
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. The converter registry must
// already be validated; a misconfigured dispatch table is a fatal
// startup error, not a per-file one.
func NewOrchestrator(cfg config.Config, registry *converter.Registry, db *store.DB, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan work, cfg.MaxQueueSize),
		registry: registry,
		db:       db,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and the job-store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.registry, o.db, o.cfg.OutputDir, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case item, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(item.job, item.task)
				}
			}
		}()
	}

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

// Stop shuts the pipeline down, draining in-flight work.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit registers a job and enqueues its file tasks. A full queue
// fails only the tasks that did not fit; their siblings still run.
func (o *Orchestrator) Submit(job *Job) error {
	if len(job.Files) == 0 {
		return fmt.Errorf("job has no files")
	}
	o.jobs.Put(job)
	for _, task := range job.Files {
		select {
		case o.queue <- work{job: job, task: task}:
		default:
			o.log.Warn("queue full, failing file", "job_id", job.ID, "file", task.Name)
			job.FinishFile(task, FileFailed, "", fmt.Sprintf("conversion queue is full (%d)", o.cfg.MaxQueueSize), 0, "")
		}
	}
	return nil
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// CancelJob cancels a job by ID. It reports false for unknown jobs.
func (o *Orchestrator) CancelJob(id string) bool {
	job := o.jobs.Get(id)
	if job == nil {
		return false
	}
	job.Cancel()
	return true
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
