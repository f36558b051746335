package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/models"
)

// ObjectReader downloads whole objects from a bucket.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// UploadLabelerFunction labels PDFs as they land in a bucket.
type UploadLabelerFunction struct {
	reader    ObjectReader
	store     artifacts.Store
	labeler   labeler.Labeler
	logger    *zap.Logger
	labelText string
}

// NewUploadLabeler wires the upload labeler.
func NewUploadLabeler(reader ObjectReader, store artifacts.Store, lab labeler.Labeler, labelText string, logger *zap.Logger) (*UploadLabelerFunction, error) {
	if reader == nil || store == nil || lab == nil {
		return nil, fmt.Errorf("reader, store and labeler are required")
	}
	if strings.TrimSpace(labelText) == "" {
		return nil, fmt.Errorf("label text must be set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadLabelerFunction{reader: reader, store: store, labeler: lab, logger: logger, labelText: labelText}, nil
}

// ShouldLabel reports whether an uploaded object is an unlabeled PDF.
func ShouldLabel(object string) bool {
	base := path.Base(object)
	return strings.EqualFold(path.Ext(base), artifacts.Extension) && !artifacts.IsLabeled(base)
}

// Process labels the object named by e and stores labeled_<base name>.
// A redelivered event whose output already exists is skipped.
func (f *UploadLabelerFunction) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := f.logger.With(zap.String("gcsBucket", e.Bucket), zap.String("gcsObject", e.Name))
	if !ShouldLabel(e.Name) {
		logCtx.Info("Skipping object that is not an unlabeled PDF.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	data, err := f.reader.ReadObject(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source PDF.", zap.Error(err))
		metrics.ObserveRun(string(StageFetching), string(failure.KindFetch))
		return failure.New(failure.KindFetch, "read gs://"+e.Bucket+"/"+e.Name, err)
	}

	base := path.Base(e.Name)
	labeled, err := f.labeler.Label(ctx, labeler.Document{Name: base, Data: data}, f.labelText)
	if err != nil {
		kind, _ := failure.KindOf(err)
		logCtx.Error("Failed to label PDF.", zap.String("kind", string(kind)), zap.Error(err))
		metrics.ObserveRun(string(StageLabeling), string(kind))
		return err
	}

	name := artifacts.LabeledName(base)
	uri, err := f.store.Put(ctx, name, labeled)
	if err != nil {
		if failure.StatusCode(err) == http.StatusPreconditionFailed {
			logCtx.Info("Labeled object already exists. Skipping.", zap.String("labeledArtifact", name))
			return nil
		}
		logCtx.Error("Failed to store labeled PDF.", zap.Error(err))
		metrics.ObserveRun(string(StagePersistingLabeled), string(failure.KindPersist))
		return err
	}

	metrics.ObserveRun("done", "")
	logCtx.Info("Labeled upload stored.", zap.String("uri", uri))
	return nil
}
