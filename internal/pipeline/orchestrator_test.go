package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/jfarrand/coursechunk/internal/config"
	"github.com/jfarrand/coursechunk/internal/converter"
)

func testOrchestrator(t *testing.T, cfg config.Config) *Orchestrator {
	t.Helper()
	registry, err := converter.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize == 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL == 0 {
		cfg.JobTTL = time.Hour
	}
	return NewOrchestrator(cfg, registry, nil, testLogger())
}

func TestOrchestrator_RunsBatchToCompletion(t *testing.T) {
	o := testOrchestrator(t, config.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	defer o.Stop()

	tasks := []*FileTask{
		NewFileTask("a.md", []byte("# A\nalpha\n"), []byte("url: u\n")),
		NewFileTask("b.md", []byte("# B\nbeta\n"), []byte("url: u\n")),
		NewFileTask("c.md", []byte("# C\ngamma\n"), nil),
	}
	job := NewJob(ctx, tasks)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the batch")
	}

	snap := job.Snapshot()
	if snap.Status != JobCompleted {
		t.Errorf("expected completed, got %q", snap.Status)
	}
	if snap.Completed != 2 || snap.Failed != 1 {
		t.Errorf("unexpected counts: completed=%d failed=%d", snap.Completed, snap.Failed)
	}
	if got := o.GetJob(job.ID); got != job {
		t.Error("expected the job retrievable by id")
	}
}

func TestOrchestrator_SubmitEmptyJob(t *testing.T) {
	o := testOrchestrator(t, config.Config{})
	job := NewJob(context.Background(), nil)
	if err := o.Submit(job); err == nil {
		t.Error("expected an error for an empty job")
	}
}

func TestOrchestrator_CancelJob(t *testing.T) {
	o := testOrchestrator(t, config.Config{})
	job := NewJob(context.Background(), []*FileTask{NewFileTask("a.md", nil, nil)})
	o.jobs.Put(job)

	if !o.CancelJob(job.ID) {
		t.Error("expected cancel to find the job")
	}
	if !job.Cancelled() {
		t.Error("expected the job cancelled")
	}
	if o.CancelJob("missing") {
		t.Error("expected false for an unknown job")
	}
}

func TestOrchestrator_FullQueueFailsOverflowOnly(t *testing.T) {
	// No workers draining, queue of one: the second task cannot fit.
	o := testOrchestrator(t, config.Config{WorkerCount: 1, MaxQueueSize: 1})

	tasks := []*FileTask{
		NewFileTask("a.md", []byte("# A\na\n"), []byte("url: u\n")),
		NewFileTask("b.md", []byte("# B\nb\n"), []byte("url: u\n")),
	}
	job := NewJob(context.Background(), tasks)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if tasks[0].Status != FilePending {
		t.Errorf("expected first task queued, got %q", tasks[0].Status)
	}
	if tasks[1].Status != FileFailed {
		t.Errorf("expected overflow task failed, got %q", tasks[1].Status)
	}
}
