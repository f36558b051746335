package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/models"
)

// LabelingServiceConfig holds configuration for the labeling service.
type LabelingServiceConfig struct {
	DefaultLabelText string
}

// LabelingServiceFunction labels uploaded PDFs on behalf of remote callers.
type LabelingServiceFunction struct {
	store   artifacts.Store
	labeler labeler.Labeler
	runner  runner
	logger  *zap.Logger
	config  LabelingServiceConfig
}

// Upload is a PDF received from a caller.
type Upload struct {
	Filename string
	Data     []byte
}

// LabeledUpload is the labeling service's answer to an Upload.
type LabeledUpload struct {
	DownloadName        string
	Data                []byte
	LabelText           string
	ArtifactName        string
	LabeledArtifactName string
}

// NewLabelingService wires the labeling service.
func NewLabelingService(config LabelingServiceConfig, store artifacts.Store, lab labeler.Labeler, ledger RunLedger, logger *zap.Logger) (*LabelingServiceFunction, error) {
	if store == nil || lab == nil {
		return nil, fmt.Errorf("store and labeler are required")
	}
	if config.DefaultLabelText == "" {
		config.DefaultLabelText = "Processed by Labeling Service"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelingServiceFunction{
		store:   store,
		labeler: lab,
		runner:  newRunner(ledger, logger),
		logger:  logger,
		config:  config,
	}, nil
}

// DefaultLabelText is used when a caller sends no label text.
func (f *LabelingServiceFunction) DefaultLabelText() string {
	return f.config.DefaultLabelText
}

// Process persists the upload under a fresh name, labels it and persists the
// result as labeled_<name>.
func (f *LabelingServiceFunction) Process(ctx context.Context, upload Upload, labelText string) (*LabeledUpload, error) {
	if strings.TrimSpace(labelText) == "" {
		labelText = f.config.DefaultLabelText
	}
	logCtx := f.logger.With(zap.String("upload", upload.Filename))
	logCtx.Info("Processing labeling request.", zap.Int("bytes", len(upload.Data)))

	result := &LabeledUpload{
		DownloadName: artifacts.LabeledName(upload.Filename),
		LabelText:    labelText,
	}
	var labeled []byte

	steps := []step{
		{StagePersistingRaw, models.StatusPersistingRaw, func(ctx context.Context) error {
			name, err := artifacts.NewName()
			if err != nil {
				return failure.New(failure.KindPersist, "name artifact", err)
			}
			result.ArtifactName = name
			_, err = f.store.Put(ctx, name, upload.Data)
			return err
		}},
		{StageLabeling, models.StatusLabeling, func(ctx context.Context) error {
			var err error
			labeled, err = f.labeler.Label(ctx, labeler.Document{Name: result.ArtifactName, Data: upload.Data}, labelText)
			return err
		}},
		{StagePersistingLabeled, models.StatusPersistingLabeled, func(ctx context.Context) error {
			result.LabeledArtifactName = artifacts.LabeledName(result.ArtifactName)
			_, err := f.store.Put(ctx, result.LabeledArtifactName, labeled)
			return err
		}},
		{StageDelivering, models.StatusDelivering, func(context.Context) error {
			result.Data = labeled
			if n, err := labeler.PageCount(labeled); err == nil {
				metrics.ObservePages(n)
			}
			return nil
		}},
	}

	runID := f.runner.begin(ctx, logCtx, models.LabelRun{LabelText: labelText, Status: models.StatusPersistingRaw})
	if err := f.runner.run(ctx, logCtx, runID, steps, func() models.LabelRun {
		return models.LabelRun{ArtifactName: result.ArtifactName, LabeledArtifactName: result.LabeledArtifactName}
	}); err != nil {
		return nil, err
	}

	logCtx.Info("Upload labeled.", zap.String("labeledArtifact", result.LabeledArtifactName))
	return result, nil
}
