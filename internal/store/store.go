// Package store owns all task-scoped state: the task map and the on-disk
// artifacts. It is the only shared mutable structure in the service; a
// single RWMutex around the map is sufficient because compression work
// never runs under the lock.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docshrink/internal/models"
	"docshrink/internal/profile"
	"docshrink/internal/validation"
)

var ErrNotFound = errors.New("task not found")

type Store struct {
	mu        sync.RWMutex
	tasks     map[string]*models.Task
	baseDir   string
	maxSize   int64
	retention time.Duration
	logger    *zap.Logger
}

func New(baseDir string, maxSize int64, retention time.Duration, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{
		tasks:     make(map[string]*models.Task),
		baseDir:   baseDir,
		maxSize:   maxSize,
		retention: retention,
		logger:    logger,
	}, nil
}

// Create is the single validation point for uploads. It allocates an
// unguessable task id, persists the source bytes and registers the task as
// processing. Download URLs are bearer references, so the id is the only
// access control.
func (s *Store) Create(data []byte, filename string) (models.Task, error) {
	filename = filepath.Base(filename)

	format, err := validation.ValidateUpload(filename, data, s.maxSize)
	if err != nil {
		return models.Task{}, err
	}

	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.Task{}, fmt.Errorf("allocate task storage: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "original_"+filename), data, 0o644); err != nil {
		os.RemoveAll(dir)
		return models.Task{}, fmt.Errorf("persist source: %w", err)
	}

	task := &models.Task{
		ID:               id,
		OriginalFilename: filename,
		Format:           format,
		OriginalSize:     int64(len(data)),
		Dir:              dir,
		Status:           models.StatusProcessing,
		Outcomes:         make(map[profile.Level]models.Outcome),
		CreatedAt:        time.Now(),
	}

	s.mu.Lock()
	s.tasks[id] = task
	s.mu.Unlock()

	s.logger.Info("task created",
		zap.String("task_id", id),
		zap.String("filename", filename),
		zap.Int64("size", task.OriginalSize),
	)
	return snapshot(task), nil
}

// Get returns a snapshot of the task. Deleted tasks are a definitive
// not-found.
func (s *Store) Get(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.Status == models.StatusDeleted {
		return models.Task{}, ErrNotFound
	}
	return snapshot(t), nil
}

// ReadSource returns the uploaded bytes for a task.
func (s *Store) ReadSource(id string) ([]byte, error) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	if !ok || t.Status == models.StatusDeleted {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	path := filepath.Join(t.Dir, "original_"+t.OriginalFilename)
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// AttachOutcomes persists variant artifacts and records the per-profile
// outcomes. Attaching to a deleted or unknown task is silently dropped:
// in-flight work on a torn-down task finishes but its result is discarded.
// The task becomes complete when at least one profile produced an artifact,
// failed when all of them failed.
func (s *Store) AttachOutcomes(id string, outcomes []models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status == models.StatusDeleted {
		return nil
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Success() {
			if err := os.WriteFile(filepath.Join(t.Dir, o.Filename), o.Bytes, 0o644); err != nil {
				t.Status = models.StatusFailed
				t.ErrorMessage = "storage failure"
				return fmt.Errorf("persist artifact %s: %w", o.Filename, err)
			}
			succeeded++
		}
		o.Bytes = nil
		t.Outcomes[o.Level] = o
	}

	now := time.Now()
	t.CompletedAt = &now
	if succeeded > 0 {
		t.Status = models.StatusComplete
	} else {
		t.Status = models.StatusFailed
	}
	return nil
}

// Fail marks a task as failed for a process-level reason. No-op on deleted
// or unknown tasks.
func (s *Store) Fail(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status == models.StatusDeleted {
		return
	}
	now := time.Now()
	t.Status = models.StatusFailed
	t.ErrorMessage = reason
	t.CompletedAt = &now
}

// GetDownload resolves (task id, filename) to exactly one artifact: the
// source or a successful variant. Anything else is not found.
func (s *Store) GetDownload(id, filename string) ([]byte, error) {
	filename = filepath.Base(filename)

	s.mu.RLock()
	t, ok := s.tasks[id]
	if !ok || t.Status == models.StatusDeleted {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}

	known := filename == "original_"+t.OriginalFilename
	if !known {
		for _, o := range t.Outcomes {
			if o.Success() && o.Filename == filename {
				known = true
				break
			}
		}
	}
	path := filepath.Join(t.Dir, filename)
	s.mu.RUnlock()

	if !known {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// Delete synchronously removes all storage for the task. A tombstone stays
// in the map so repeated deletes are no-ops and late outcome attaches are
// dropped; the sweep prunes tombstones once the retention window passes.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status == models.StatusDeleted {
		return nil
	}

	if err := os.RemoveAll(t.Dir); err != nil {
		return fmt.Errorf("remove task storage: %w", err)
	}
	t.Status = models.StatusDeleted
	t.Outcomes = nil
	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}

// SweepExpired deletes tasks older than the retention window and prunes
// their map entries. It is the safety net against clients that never call
// Delete. Returns the number of entries removed.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.tasks {
		if now.Sub(t.CreatedAt) <= s.retention {
			continue
		}
		if t.Status != models.StatusDeleted {
			if err := os.RemoveAll(t.Dir); err != nil {
				s.logger.Warn("sweep: remove task storage",
					zap.String("task_id", id), zap.Error(err))
				continue
			}
		}
		delete(s.tasks, id)
		removed++
	}
	return removed
}

func snapshot(t *models.Task) models.Task {
	c := *t
	c.Outcomes = make(map[profile.Level]models.Outcome, len(t.Outcomes))
	for k, v := range t.Outcomes {
		c.Outcomes[k] = v
	}
	return c
}
