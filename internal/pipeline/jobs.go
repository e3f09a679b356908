package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus is the state of a batch conversion job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// FileStatus is the state of one file within a batch.
type FileStatus string

const (
	FilePending    FileStatus = "pending"
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
	FileSkipped    FileStatus = "skipped"
)

// FileTask is one file queued for conversion. Exported fields are
// guarded by the owning Job's mutex once the job is submitted.
type FileTask struct {
	Name       string
	FileID     string
	Status     FileStatus
	ErrorKind  string
	Error      string
	ChunkCount int
	OutputPath string

	data    []byte
	meta    []byte
	hasMeta bool
	pdfPath string
}

// NewFileTask builds a pending task from the file payload and its
// (possibly absent) sidecar descriptor.
func NewFileTask(name string, data, meta []byte) *FileTask {
	return &FileTask{
		Name:    name,
		FileID:  generateULID(),
		Status:  FilePending,
		data:    data,
		meta:    meta,
		hasMeta: meta != nil,
	}
}

// SetPDFPath records the original PDF location for OCR-derived input.
func (t *FileTask) SetPDFPath(path string) { t.pdfPath = path }

// Job tracks one batch of files through conversion. A conversion batch
// runs each file independently: per-file failures never abort siblings,
// and the job completes (status completed) even when some files failed.
type Job struct {
	mu sync.Mutex

	ID        string
	Status    JobStatus
	Files     []*FileTask
	CreatedAt time.Time
	UpdatedAt time.Time

	remaining int
	cancelled bool
	cancel    context.CancelFunc
	ctx       context.Context
	done      chan struct{}
}

// NewJob creates a pending job owning the given tasks. The job context
// derives from parent; cancelling the job cancels in-flight conversions
// without publishing their partial output.
func NewJob(parent context.Context, files []*FileTask) *Job {
	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Status:    JobPending,
		Files:     files,
		CreatedAt: now,
		UpdatedAt: now,
		remaining: len(files),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Context returns the job's cancellable context.
func (j *Job) Context() context.Context { return j.ctx }

// Cancel marks the job cancelled. Queued files will be skipped and
// in-flight conversions stop without publishing chunks.
func (j *Job) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	j.UpdatedAt = time.Now()
	j.mu.Unlock()
	j.cancel()
}

// Cancelled reports whether Cancel has been called.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// Done is closed once every file has reached a terminal status.
func (j *Job) Done() <-chan struct{} { return j.done }

// StartFile marks a task processing (and the job, on its first file).
func (j *Job) StartFile(t *FileTask) {
	j.mu.Lock()
	defer j.mu.Unlock()
	t.Status = FileProcessing
	if j.Status == JobPending {
		j.Status = JobProcessing
	}
	j.UpdatedAt = time.Now()
}

// FinishFile records a terminal status for a task, exactly once per
// task. When the last task finishes, the job reaches its own terminal
// status: cancelled if Cancel was called, completed otherwise.
func (j *Job) FinishFile(t *FileTask, status FileStatus, errKind, errMsg string, chunkCount int, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	t.Status = status
	t.ErrorKind = errKind
	t.Error = errMsg
	t.ChunkCount = chunkCount
	t.OutputPath = outputPath
	t.data = nil
	t.meta = nil
	j.UpdatedAt = time.Now()

	j.remaining--
	if j.remaining == 0 {
		if j.cancelled {
			j.Status = JobCancelled
		} else {
			j.Status = JobCompleted
		}
		j.cancel()
		close(j.done)
	}
}

// Fail moves the whole job to failed. Used only for batch-level errors
// raised before any file is processed.
func (j *Job) Fail() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobFailed
	j.UpdatedAt = time.Now()
}

// FileResult is the JSON-safe terminal record for one file.
type FileResult struct {
	FileName   string     `json:"file_name"`
	FileID     string     `json:"file_uuid"`
	Status     FileStatus `json:"status"`
	ErrorKind  string     `json:"error_kind,omitempty"`
	Error      string     `json:"error,omitempty"`
	ChunkCount int        `json:"chunks_count"`
	OutputPath string     `json:"output_path,omitempty"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state with per-
// status summary counts.
type JobSnapshot struct {
	ID         string       `json:"job_id"`
	Status     JobStatus    `json:"status"`
	TotalFiles int          `json:"total_files"`
	Completed  int          `json:"completed_files"`
	Failed     int          `json:"failed_files"`
	Skipped    int          `json:"skipped_files"`
	Files      []FileResult `json:"files"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Snapshot copies the current job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	snap := JobSnapshot{
		ID:         j.ID,
		Status:     j.Status,
		TotalFiles: len(j.Files),
		Files:      make([]FileResult, 0, len(j.Files)),
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
	for _, t := range j.Files {
		switch t.Status {
		case FileCompleted:
			snap.Completed++
		case FileFailed:
			snap.Failed++
		case FileSkipped:
			snap.Skipped++
		}
		snap.Files = append(snap.Files, FileResult{
			FileName:   t.Name,
			FileID:     t.FileID,
			Status:     t.Status,
			ErrorKind:  t.ErrorKind,
			Error:      t.Error,
			ChunkCount: t.ChunkCount,
			OutputPath: t.OutputPath,
		})
	}
	return snap
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{jobs: make(map[string]*Job), ttl: ttl}
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

// Cleanup removes jobs idle past the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns it hex-encoded.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
