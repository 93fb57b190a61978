package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docshrink/internal/document"
	"docshrink/internal/models"
	"docshrink/internal/profile"
	"docshrink/internal/stats"
	"docshrink/internal/store"
)

// Processor runs the three quality profiles against one task's source
// document and attaches the outcomes. Profile runs are independent: they
// share only the immutable source bytes, write to disjoint slots, and a
// failure in one never aborts the others.
type Processor struct {
	store    *store.Store
	recorder *stats.Recorder
	logger   *zap.Logger
}

func NewProcessor(st *store.Store, recorder *stats.Recorder, logger *zap.Logger) *Processor {
	return &Processor{
		store:    st,
		recorder: recorder,
		logger:   logger,
	}
}

func (p *Processor) Process(ctx context.Context, taskID string) {
	task, err := p.store.Get(taskID)
	if err != nil {
		// Torn down before processing started.
		return
	}

	src, err := p.store.ReadSource(taskID)
	if err != nil {
		p.store.Fail(taskID, "source unavailable")
		return
	}

	adapter, err := document.ForFormat(task.Format)
	if err != nil {
		// Intake validation is the only format gate; reaching this means
		// the store accepted a format the pipeline does not know.
		p.store.Fail(taskID, err.Error())
		return
	}

	levels := profile.Levels()
	outcomes := make([]models.Outcome, len(levels))

	g, ctx := errgroup.WithContext(ctx)
	for i, lvl := range levels {
		g.Go(func() error {
			outcomes[i] = p.runProfile(ctx, task, src, adapter, lvl)
			return nil
		})
	}
	g.Wait()

	if err := p.store.AttachOutcomes(task.ID, outcomes); err != nil {
		p.logger.Error("attach outcomes",
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		return
	}

	p.record(task, outcomes)

	p.logger.Info("task processed",
		zap.String("task_id", task.ID),
		zap.String("format", string(task.Format)),
		zap.Int64("original_size", task.OriginalSize),
	)
}

func (p *Processor) runProfile(ctx context.Context, task models.Task, src []byte, adapter document.Adapter, lvl profile.Level) models.Outcome {
	if err := ctx.Err(); err != nil {
		return models.Outcome{Level: lvl, Err: "canceled"}
	}

	prof, ok := profile.Get(lvl)
	if !ok {
		return models.Outcome{Level: lvl, Err: fmt.Sprintf("unknown profile %q", lvl)}
	}

	out, err := adapter.Compress(src, prof)
	if err != nil {
		p.logger.Warn("profile failed",
			zap.String("task_id", task.ID),
			zap.String("profile", string(lvl)),
			zap.Error(err),
		)
		return models.Outcome{Level: lvl, Err: err.Error()}
	}

	size := int64(len(out))
	ratio := 0.0
	if task.OriginalSize > 0 {
		ratio = 1 - float64(size)/float64(task.OriginalSize)
	}
	// The adapters' size floor guarantees size <= original; the clamp only
	// defends the reported number.
	if ratio < 0 {
		ratio = 0
	}

	return models.Outcome{
		Level:    lvl,
		Filename: variantFilename(task.OriginalFilename, lvl),
		Size:     size,
		Ratio:    ratio,
		Bytes:    out,
	}
}

func (p *Processor) record(task models.Task, outcomes []models.Outcome) {
	if p.recorder == nil {
		return
	}
	for _, o := range outcomes {
		if !o.Success() {
			continue
		}
		rec := &stats.Record{
			TaskID:         task.ID,
			Format:         string(task.Format),
			Level:          string(o.Level),
			OriginalSize:   task.OriginalSize,
			CompressedSize: o.Size,
			Ratio:          o.Ratio,
		}
		if err := p.recorder.Record(rec); err != nil {
			p.logger.Warn("record stats",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
		}
	}
}

func variantFilename(original string, lvl profile.Level) string {
	ext := filepath.Ext(original)
	stem := strings.TrimSuffix(original, ext)
	return fmt.Sprintf("%s_%s%s", stem, lvl, ext)
}
