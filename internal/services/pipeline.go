package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/models"
)

// Stage names a step of a labeling run.
type Stage string

const (
	StageFetching          Stage = "fetching"
	StagePersistingRaw     Stage = "persisting_raw"
	StageLabeling          Stage = "labeling"
	StagePersistingLabeled Stage = "persisting_labeled"
	StageDelivering        Stage = "delivering"
)

// StageError reports the stage a run stopped in. The classified cause is
// reachable with failure.KindOf.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// RunLedger keeps a status trail for each run. Ledger writes are best
// effort and never fail a run.
type RunLedger interface {
	Begin(ctx context.Context, run models.LabelRun) (string, error)
	Update(ctx context.Context, runID string, run models.LabelRun) error
}

// NopLedger discards all records.
type NopLedger struct{}

func (NopLedger) Begin(context.Context, models.LabelRun) (string, error) { return "", nil }

func (NopLedger) Update(context.Context, string, models.LabelRun) error { return nil }

// step is one hard gate of a run. run sees the state left by earlier steps.
type step struct {
	stage  Stage
	status string
	run    func(ctx context.Context) error
}

// runner executes steps strictly in order and stops at the first failure.
type runner struct {
	ledger RunLedger
	logger *zap.Logger
	now    func() time.Time
}

func newRunner(ledger RunLedger, logger *zap.Logger) runner {
	if ledger == nil {
		ledger = NopLedger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return runner{ledger: ledger, logger: logger, now: time.Now}
}

func (r runner) begin(ctx context.Context, logCtx *zap.Logger, run models.LabelRun) string {
	run.CreatedAt = r.now()
	runID, err := r.ledger.Begin(ctx, run)
	if err != nil {
		logCtx.Error("Failed to create run record.", zap.Error(err))
		return ""
	}
	return runID
}

// run drives steps; update returns the ledger fields known so far.
func (r runner) run(ctx context.Context, logCtx *zap.Logger, runID string, steps []step, update func() models.LabelRun) error {
	for _, s := range steps {
		r.record(ctx, logCtx, runID, s.status, update())

		start := r.now()
		err := s.run(ctx)
		metrics.ObserveStage(string(s.stage), time.Since(start))
		if err != nil {
			return r.handleError(ctx, logCtx, runID, s.stage, err, update())
		}
	}
	r.record(ctx, logCtx, runID, models.StatusDone, update())
	metrics.ObserveRun("done", "")
	return nil
}

func (r runner) handleError(ctx context.Context, logCtx *zap.Logger, runID string, stage Stage, originalErr error, run models.LabelRun) error {
	kind, ok := failure.KindOf(originalErr)
	if !ok {
		kind = "internal"
	}
	logCtx.Error("Run failed.",
		zap.String("stage", string(stage)),
		zap.String("kind", string(kind)),
		zap.Error(originalErr),
	)
	metrics.ObserveRun(string(stage), string(kind))

	run.FailedStage = string(stage)
	run.ErrorKind = string(kind)
	run.ErrorDetails = originalErr.Error()
	r.record(ctx, logCtx, runID, models.StatusFailed, run)
	return &StageError{Stage: stage, Err: originalErr}
}

func (r runner) record(ctx context.Context, logCtx *zap.Logger, runID, status string, run models.LabelRun) {
	if runID == "" {
		return
	}
	run.Status = status
	if err := r.ledger.Update(ctx, runID, run); err != nil {
		logCtx.Warn("Failed to update run record.", zap.String("status", status), zap.Error(err))
	}
}
