package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jfarrand/coursechunk/internal/pipeline"
)

const metadataSuffix = "_metadata.yaml"

// handleCreateBatch accepts a multipart batch: content files plus their
// sidecar descriptors (<stem>_metadata.yaml). Files without a usable
// descriptor are still queued; they fail file-scoped with a metadata
// error rather than rejecting the batch.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	// First pass: read every part, separating descriptors and original
	// PDFs from content files.
	contents := make(map[string][]byte)  // filename -> payload
	sidecars := make(map[string][]byte)  // stem -> descriptor
	pdfs := make(map[string][]byte)      // stem -> original pdf
	var order []string

	for _, fh := range uploads {
		name := sanitizeFilename(fh.Filename)
		data, err := readUpload(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			jsonError(w, fmt.Sprintf("%s: %s", name, err), http.StatusRequestEntityTooLarge)
			return
		}
		switch {
		case strings.HasSuffix(name, metadataSuffix):
			sidecars[strings.TrimSuffix(name, metadataSuffix)] = data
		case strings.EqualFold(filepath.Ext(name), ".pdf"):
			pdfs[strings.TrimSuffix(name, filepath.Ext(name))] = data
		default:
			contents[name] = data
			order = append(order, name)
		}
	}
	if len(order) == 0 {
		jsonError(w, "batch contains only sidecar files", http.StatusBadRequest)
		return
	}

	var tasks []*pipeline.FileTask
	for _, name := range order {
		st := stem(name)
		task := pipeline.NewFileTask(name, contents[name], sidecars[st])
		if pdfData, ok := pdfs[st]; ok {
			if path, err := s.spoolPDF(task.FileID, pdfData); err == nil {
				task.SetPDFPath(path)
			} else {
				s.log.Warn("could not spool original pdf", "file", name, "error", err)
			}
		}
		tasks = append(tasks, task)
	}

	job := pipeline.NewJob(s.baseCtx, tasks)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":         job.ID,
		"status":         job.Snapshot().Status,
		"files_received": len(tasks),
		"poll_url":       fmt.Sprintf("/api/batches/%s", job.ID),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.CancelJob(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job := s.orchestrator.GetJob(jobID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// spoolPDF writes an uploaded original PDF where the OCR adapter can
// read it for missing-page patching.
// TODO: reap spooled PDFs when their job is evicted from the store.
func (s *Server) spoolPDF(fileID string, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.OutputDir, "spool")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileID+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload")
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", maxBytes)
	}
	return data, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
