package pipeline

import (
	"context"
	"log/slog"

	"github.com/jfarrand/coursechunk/internal/converter"
	"github.com/jfarrand/coursechunk/internal/cverr"
	"github.com/jfarrand/coursechunk/internal/page"
	"github.com/jfarrand/coursechunk/internal/store"
)

// Worker converts a single file: load metadata, dispatch to the format
// adapter, and publish the chunk outputs. Failures are per-file; the
// worker never aborts a sibling task.
type Worker struct {
	registry *converter.Registry
	db       *store.DB
	outDir   string
	log      *slog.Logger
}

func NewWorker(registry *converter.Registry, db *store.DB, outDir string, log *slog.Logger) *Worker {
	return &Worker{registry: registry, db: db, outDir: outDir, log: log}
}

// Process runs one task to a terminal status.
func (w *Worker) Process(job *Job, task *FileTask) {
	log := w.log.With("job_id", job.ID, "file", task.Name)
	ctx := job.Context()

	if ctx.Err() != nil || job.Cancelled() {
		log.Info("file skipped, job cancelled")
		job.FinishFile(task, FileSkipped, "", "job cancelled", 0, "")
		return
	}
	job.StartFile(task)

	if !w.registry.Supported(task.Name) {
		log.Warn("unsupported file type, skipping")
		job.FinishFile(task, FileSkipped, "", "unsupported file type", 0, "")
		return
	}

	if !task.hasMeta {
		log.Error("sidecar descriptor missing")
		job.FinishFile(task, FileFailed, string(cverr.KindMetadata), "sidecar descriptor missing", 0, "")
		return
	}
	meta, err := page.ParseMetadata(task.meta)
	if err != nil {
		log.Error("descriptor invalid", "error", err)
		w.fail(job, task, err)
		return
	}

	conv, err := w.registry.ForFile(task.Name)
	if err != nil {
		job.FinishFile(task, FileSkipped, "", err.Error(), 0, "")
		return
	}

	chunks, err := conv.Convert(ctx, converter.Input{
		Name:    task.Name,
		Data:    task.data,
		Meta:    meta,
		PDFPath: task.pdfPath,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("conversion cancelled")
			job.FinishFile(task, FileSkipped, "", "job cancelled", 0, "")
			return
		}
		log.Error("conversion failed", "error", err)
		w.fail(job, task, err)
		return
	}

	// A cancelled conversion must not publish a partial chunk list.
	if ctx.Err() != nil {
		log.Info("conversion cancelled before publish")
		job.FinishFile(task, FileSkipped, "", "job cancelled", 0, "")
		return
	}

	outPath, err := store.WriteChunksJSON(w.outDir, task.FileID, chunks)
	if err != nil {
		log.Error("output write failed", "error", err)
		w.fail(job, task, err)
		return
	}
	if w.db != nil {
		url := meta.URL
		filetype := ""
		if len(chunks) > 0 {
			filetype = chunks[0].Filetype
		}
		if err := w.db.SaveChunks(context.WithoutCancel(ctx), task.FileID, task.Name, filetype, url, chunks); err != nil {
			log.Error("chunk store write failed", "error", err)
			w.fail(job, task, err)
			return
		}
	}

	log.Info("file converted", "chunks", len(chunks))
	job.FinishFile(task, FileCompleted, "", "", len(chunks), outPath)
}

// fail records a failed terminal status carrying the error kind. Errors
// without an explicit kind surfaced inside conversion are internal
// invariant violations.
func (w *Worker) fail(job *Job, task *FileTask, err error) {
	kind := cverr.KindOf(err)
	if kind == "" {
		kind = cverr.KindSegmentation
	}
	job.FinishFile(task, FileFailed, string(kind), err.Error(), 0, "")
}
