package job

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status describes the lifecycle state of a scoring job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job tracks a single scoring request from submission to completion
type Job struct {
	ID         string    `json:"job_id"`
	Status     Status    `json:"status"`
	Result     any       `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Registry is an in-memory store of jobs keyed by ID. All methods are safe
// for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty job registry
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

// Create registers a new pending job and returns it
func (r *Registry) Create() *Job {
	j := &Job{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()

	return j
}

// Get returns a copy of the job with the given ID
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, false
	}

	copied := *j
	return &copied, true
}

// SetProcessing marks the job as running
func (r *Registry) SetProcessing(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		j.Status = StatusProcessing
	}
}

// SetCompleted records a successful result
func (r *Registry) SetCompleted(id string, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		j.Status = StatusCompleted
		j.Result = result
		j.FinishedAt = time.Now()
	}
}

// SetFailed records a failure
func (r *Registry) SetFailed(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.FinishedAt = time.Now()
	}
}

// Scratch manages per-job temporary directories
type Scratch struct {
	baseDir string
}

// NewScratch creates a scratch manager rooted at baseDir
func NewScratch(baseDir string) *Scratch {
	return &Scratch{baseDir: baseDir}
}

// Dir creates and returns the scratch directory for a job
func (s *Scratch) Dir(jobID string) (string, error) {
	dir := filepath.Join(s.baseDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// Cleanup removes the scratch directory for a job
func (s *Scratch) Cleanup(jobID string) error {
	return os.RemoveAll(filepath.Join(s.baseDir, jobID))
}
