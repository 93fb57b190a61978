package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docshrink/internal/dto"
	"docshrink/internal/models"
	"docshrink/internal/pool"
	"docshrink/internal/profile"
	"docshrink/internal/stats"
	"docshrink/internal/store"
)

// TaskService is the core-facing boundary the HTTP layer talks to.
type TaskService struct {
	store     *store.Store
	pool      *pool.WorkerPool
	processor *Processor
	recorder  *stats.Recorder
	logger    *zap.Logger
}

func NewTaskService(st *store.Store, wp *pool.WorkerPool, processor *Processor, recorder *stats.Recorder, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:     st,
		pool:      wp,
		processor: processor,
		recorder:  recorder,
		logger:    logger,
	}
}

// Submit accepts an upload, creates the task and hands orchestration to the
// worker pool. The returned descriptor reports status processing; clients
// poll Status until the outcomes are in.
func (s *TaskService) Submit(ctx context.Context, data []byte, filename string) (*dto.TaskResponse, error) {
	task, err := s.store.Create(data, filename)
	if err != nil {
		return nil, err
	}

	// Processing outlives the upload request.
	s.pool.Submit(context.WithoutCancel(ctx), func(ctx context.Context) {
		s.processor.Process(ctx, task.ID)
	})

	return s.toResponse(task), nil
}

func (s *TaskService) Status(taskID string) (*dto.TaskResponse, error) {
	task, err := s.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(task), nil
}

func (s *TaskService) Download(taskID, filename string) ([]byte, error) {
	return s.store.GetDownload(taskID, filename)
}

func (s *TaskService) Delete(taskID string) error {
	return s.store.Delete(taskID)
}

func (s *TaskService) Stats() (*stats.Summary, error) {
	if s.recorder == nil {
		return &stats.Summary{}, nil
	}
	return s.recorder.Summary()
}

func (s *TaskService) toResponse(task models.Task) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:                    task.ID,
		OriginalFilename:      task.OriginalFilename,
		OriginalSize:          task.OriginalSize,
		OriginalSizeFormatted: dto.FormatFileSize(task.OriginalSize),
		Status:                string(task.Status),
		ErrorMessage:          task.ErrorMessage,
		CreatedAt:             task.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if task.CompletedAt != nil {
		formatted := task.CompletedAt.Format("2006-01-02T15:04:05Z")
		resp.CompletedAt = &formatted
	}

	for _, lvl := range profile.Levels() {
		o, ok := task.Outcomes[lvl]
		if !ok {
			continue
		}
		v := dto.VariantResponse{Level: string(lvl)}
		if o.Success() {
			v.Filename = o.Filename
			v.Size = o.Size
			v.SizeFormatted = dto.FormatFileSize(o.Size)
			v.CompressionRatio = fmt.Sprintf("%.1f%%", o.Ratio*100)
			v.DownloadURL = fmt.Sprintf("/api/download/%s/%s", task.ID, o.Filename)
		} else {
			v.Error = o.Err
		}
		resp.Files = append(resp.Files, v)
	}
	return resp
}
