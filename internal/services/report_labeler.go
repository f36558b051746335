package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/models"
)

// RegionParam is the backend query parameter the region is sent in.
const RegionParam = "Region"

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ReportLabelerConfig holds configuration for the report labeling pipeline.
type ReportLabelerConfig struct {
	BackendBaseURL string
	// LabelTemplate may reference {region} and {sheet_name}.
	LabelTemplate string
}

// ReportLabelerFunction fetches a report view, labels every page and keeps
// both artifacts.
type ReportLabelerFunction struct {
	fetcher Fetcher
	store   artifacts.Store
	labeler labeler.Labeler
	runner  runner
	logger  *zap.Logger
	config  ReportLabelerConfig
}

// LabeledReport is what a successful run delivers.
type LabeledReport struct {
	Filename            string
	Data                []byte
	LabelText           string
	SourceURL           string
	ArtifactName        string
	ArtifactURI         string
	LabeledArtifactName string
	LabeledArtifactURI  string
	PageCount           int
}

// NewReportLabeler wires the pipeline. A nil ledger records nothing.
func NewReportLabeler(config ReportLabelerConfig, fetcher Fetcher, store artifacts.Store, lab labeler.Labeler, ledger RunLedger, logger *zap.Logger) (*ReportLabelerFunction, error) {
	if config.BackendBaseURL == "" {
		return nil, fmt.Errorf("backend base URL must be set")
	}
	if fetcher == nil || store == nil || lab == nil {
		return nil, fmt.Errorf("fetcher, store and labeler are required")
	}
	if config.LabelTemplate == "" {
		config.LabelTemplate = "Region: {region}"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportLabelerFunction{
		fetcher: fetcher,
		store:   store,
		labeler: lab,
		runner:  newRunner(ledger, logger),
		logger:  logger,
		config:  config,
	}, nil
}

// LabelText renders the label for one request.
func (f *ReportLabelerFunction) LabelText(params models.RequestParameters) string {
	return strings.NewReplacer("{region}", params.Region, "{sheet_name}", params.SheetName).Replace(f.config.LabelTemplate)
}

// SourceURL interpolates the region into the backend URL. The sheet name is
// not part of the target; each deployment serves one sheet.
func SourceURL(baseURL, region string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend URL: %w", err)
	}
	q := u.Query()
	q.Set(RegionParam, region)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Process runs fetch, persist, label, persist and deliver in that order.
// The first failing stage ends the run with a *StageError; the raw artifact
// is kept when a later stage fails.
func (f *ReportLabelerFunction) Process(ctx context.Context, params models.RequestParameters) (*LabeledReport, error) {
	logCtx := f.logger.With(zap.String("sheetName", params.SheetName), zap.String("region", params.Region))
	logCtx.Info("Processing report request.")

	report := &LabeledReport{LabelText: f.LabelText(params)}
	var source, labeled []byte

	steps := []step{
		{StageFetching, models.StatusFetching, func(ctx context.Context) error {
			target, err := SourceURL(f.config.BackendBaseURL, params.Region)
			if err != nil {
				return failure.New(failure.KindFetch, "build source URL", err)
			}
			report.SourceURL = target
			source, err = f.fetcher.Fetch(ctx, target)
			return err
		}},
		{StagePersistingRaw, models.StatusPersistingRaw, func(ctx context.Context) error {
			name, err := artifacts.NewName()
			if err != nil {
				return failure.New(failure.KindPersist, "name artifact", err)
			}
			report.ArtifactName = name
			report.ArtifactURI, err = f.store.Put(ctx, name, source)
			return err
		}},
		{StageLabeling, models.StatusLabeling, func(ctx context.Context) error {
			var err error
			labeled, err = f.labeler.Label(ctx, labeler.Document{Name: report.ArtifactName, Data: source}, report.LabelText)
			if err != nil {
				return err
			}
			// The labeler may be remote; hold its output to the source page count.
			pages, err := labeler.PageCount(source)
			if err != nil {
				return err
			}
			if err := labeler.VerifyPages(labeled, pages); err != nil {
				return err
			}
			report.PageCount = pages
			return nil
		}},
		{StagePersistingLabeled, models.StatusPersistingLabeled, func(ctx context.Context) error {
			var err error
			report.LabeledArtifactName = artifacts.LabeledName(report.ArtifactName)
			report.LabeledArtifactURI, err = f.store.Put(ctx, report.LabeledArtifactName, labeled)
			return err
		}},
		{StageDelivering, models.StatusDelivering, func(context.Context) error {
			report.Filename = params.DownloadName()
			report.Data = labeled
			metrics.ObservePages(report.PageCount)
			return nil
		}},
	}

	runID := f.runner.begin(ctx, logCtx, models.LabelRun{
		SheetName: params.SheetName,
		Region:    params.Region,
		LabelText: report.LabelText,
		Status:    models.StatusFetching,
	})
	ledgerView := func() models.LabelRun {
		return models.LabelRun{
			SourceURL:           report.SourceURL,
			ArtifactName:        report.ArtifactName,
			LabeledArtifactName: report.LabeledArtifactName,
		}
	}
	if err := f.runner.run(ctx, logCtx, runID, steps, ledgerView); err != nil {
		return nil, err
	}

	logCtx.Info("Report labeled.",
		zap.String("artifact", report.ArtifactName),
		zap.String("labeledArtifact", report.LabeledArtifactName),
		zap.Int("pageCount", report.PageCount),
	)
	return report, nil
}
