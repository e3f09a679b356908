package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfarrand/coursechunk/internal/config"
	"github.com/jfarrand/coursechunk/internal/converter"
	"github.com/jfarrand/coursechunk/internal/cverr"
	"github.com/jfarrand/coursechunk/internal/pipeline"
	"github.com/jfarrand/coursechunk/internal/store"
)

func convertCmd() *cobra.Command {
	var outDir string
	var dbPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "convert <input-dir>",
		Short: "Convert a directory of course materials into chunk files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], outDir, dbPath, workers)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "directory for chunk JSON output")
	cmd.Flags().StringVar(&dbPath, "db", "", "chunk database path (default <out>/chunks.db)")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent conversion workers")
	return cmd
}

func runConvert(inputDir, outDir, dbPath string, workers int) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if dbPath == "" {
		dbPath = filepath.Join(outDir, "chunks.db")
	}

	registry, err := converter.NewRegistry()
	if err != nil {
		return fmt.Errorf("converter registry: %w", err)
	}

	tasks, err := collectTasks(inputDir, registry)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no convertible files in %s", inputDir)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open chunk database: %w", err)
	}
	defer db.Close()

	cfg := config.Load()
	cfg.OutputDir = outDir
	cfg.DBPath = dbPath
	if workers > 0 {
		cfg.WorkerCount = workers
	}
	if cfg.MaxQueueSize < len(tasks) {
		cfg.MaxQueueSize = len(tasks)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := pipeline.NewOrchestrator(cfg, registry, db, log)
	orch.Start(ctx)
	defer orch.Stop()

	job := pipeline.NewJob(ctx, tasks)
	if err := orch.Submit(job); err != nil {
		return err
	}
	<-job.Done()

	snap := job.Snapshot()
	fmt.Fprintf(os.Stderr, "job %s: %s\n", snap.ID, snap.Status)
	for _, f := range snap.Files {
		switch f.Status {
		case pipeline.FileCompleted:
			fmt.Fprintf(os.Stderr, "  %-40s %d chunks -> %s\n", f.FileName, f.ChunkCount, f.OutputPath)
		case pipeline.FileSkipped:
			fmt.Fprintf(os.Stderr, "  %-40s skipped\n", f.FileName)
		default:
			fmt.Fprintf(os.Stderr, "  %-40s %s: %s\n", f.FileName, f.Status, f.Error)
		}
	}
	if snap.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", snap.Failed, len(snap.Files))
	}
	return nil
}

// collectTasks walks the input directory pairing each convertible file
// with its sidecar descriptor and, for OCR output, the original PDF.
func collectTasks(dir string, registry *converter.Registry) ([]*pipeline.FileTask, error) {
	var tasks []*pipeline.FileTask
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, "_metadata.yaml") || !registry.Supported(name) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return cverr.New(cverr.KindInputRead, "read %s: %v", path, err)
		}

		base := strings.TrimSuffix(path, filepath.Ext(path))
		meta, err := os.ReadFile(base + "_metadata.yaml")
		if err != nil && !os.IsNotExist(err) {
			return cverr.New(cverr.KindInputRead, "read sidecar for %s: %v", path, err)
		}

		task := pipeline.NewFileTask(name, data, meta)
		if strings.EqualFold(filepath.Ext(name), ".mmd") {
			if pdfPath := base + ".pdf"; fileExists(pdfPath) {
				task.SetPDFPath(pdfPath)
			}
		}
		tasks = append(tasks, task)
		return nil
	})
	return tasks, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
