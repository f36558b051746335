// Package app builds the long-lived dependencies of the report labeler from
// configuration and hands out the services that use them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/config"
	"github.com/Lllllllleong/reportlabeler/internal/fetcher"
	"github.com/Lllllllleong/reportlabeler/internal/gcp"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/services"
)

// App holds the shared clients, store, labeler and ledger.
type App struct {
	cfg             config.Config
	logger          *zap.Logger
	storageClient   *storage.Client
	firestoreLedger *gcp.FirestoreLedger
	store           artifacts.Store
	labeler         labeler.Labeler
	ledger          services.RunLedger
}

// New initializes every dependency the configuration asks for and fails
// fast when one cannot be built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	a := &App{cfg: cfg, logger: logger, ledger: services.NopLedger{}}

	switch cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := a.storage(ctx)
		if err != nil {
			return nil, err
		}
		store, err := artifacts.NewGCSStore(client, cfg.Storage.GCSBucket, cfg.Storage.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS artifact store: %w", err)
		}
		logger.Info("Using GCS artifact store.", zap.String("bucket", cfg.Storage.GCSBucket), zap.String("prefix", cfg.Storage.Prefix))
		a.store = store
	default:
		store, err := artifacts.NewLocalStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local artifact store: %w", err)
		}
		logger.Info("Using local artifact store.", zap.String("dir", store.Dir()))
		a.store = store
	}

	switch cfg.Labeling.Mode {
	case config.ModeRemote:
		logger.Info("Delegating labeling to remote service.", zap.String("url", cfg.Labeling.RemoteURL))
		a.labeler = labeler.NewRemote(labeler.RemoteConfig{
			Endpoint: cfg.Labeling.RemoteURL,
			MaxBytes: cfg.Backend.MaxDocumentBytes,
		}, &http.Client{Timeout: cfg.BackendTimeout()}, logger.Named("remote"))
	default:
		a.labeler = labeler.NewStamper(logger.Named("stamper"))
	}

	if cfg.Ledger.ProjectID != "" {
		ledger, err := gcp.OpenFirestoreLedger(ctx, cfg.Ledger.ProjectID, cfg.Ledger.Collection)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("Recording runs in Firestore.", zap.String("project", cfg.Ledger.ProjectID), zap.String("collection", cfg.Ledger.Collection))
		a.firestoreLedger = ledger
		a.ledger = ledger
	}

	return a, nil
}

func (a *App) storage(ctx context.Context) (*storage.Client, error) {
	if a.storageClient != nil {
		return a.storageClient, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	a.storageClient = client
	return client, nil
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the configured artifact store.
func (a *App) Store() artifacts.Store {
	return a.store
}

// Labeler returns the labeler selected by labeling.mode.
func (a *App) Labeler() labeler.Labeler {
	return a.labeler
}

// ReportLabeler builds the gateway pipeline.
func (a *App) ReportLabeler() (*services.ReportLabelerFunction, error) {
	if err := a.cfg.RequireBackend(); err != nil {
		return nil, err
	}
	f := fetcher.New(fetcher.Config{
		Timeout:  a.cfg.BackendTimeout(),
		MaxBytes: a.cfg.Backend.MaxDocumentBytes,
	}, nil, a.logger.Named("fetcher"))
	return services.NewReportLabeler(services.ReportLabelerConfig{
		BackendBaseURL: a.cfg.Backend.BaseURL,
		LabelTemplate:  a.cfg.Label.Template,
	}, f, a.store, a.labeler, a.ledger, a.logger.Named("gateway"))
}

// LabelingService builds the labeling endpoint's service. It always stamps
// in-process; a labeling service never delegates onward.
func (a *App) LabelingService() (*services.LabelingServiceFunction, error) {
	return services.NewLabelingService(services.LabelingServiceConfig{
		DefaultLabelText: a.cfg.Labeling.DefaultText,
	}, a.store, labeler.NewStamper(a.logger.Named("stamper")), a.ledger, a.logger.Named("labeling"))
}

// UploadLabeler builds the bucket-triggered labeler. Source objects are read
// through the storage client; outputs go to the artifact store.
func (a *App) UploadLabeler(ctx context.Context) (*services.UploadLabelerFunction, error) {
	client, err := a.storage(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewUploadLabeler(gcp.NewObjectReader(client), a.store,
		labeler.NewStamper(a.logger.Named("stamper")), a.cfg.Labeling.DefaultText, a.logger.Named("upload"))
}

// Ready checks that the artifact store can be reached.
func (a *App) Ready(ctx context.Context) error {
	switch store := a.store.(type) {
	case *artifacts.LocalStore:
		info, err := os.Stat(store.Dir())
		if err != nil {
			return fmt.Errorf("artifact directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("artifact path %s is not a directory", store.Dir())
		}
	case *artifacts.GCSStore:
		if _, err := a.storageClient.Bucket(a.cfg.Storage.GCSBucket).Attrs(ctx); err != nil {
			return fmt.Errorf("artifact bucket: %w", err)
		}
	}
	return nil
}

// Close releases the cloud clients.
func (a *App) Close() {
	if a.firestoreLedger != nil {
		if err := a.firestoreLedger.Close(); err != nil {
			a.logger.Warn("firestore client close failed", zap.Error(err))
		}
	}
	if a.storageClient != nil {
		if err := a.storageClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
}

// Serve runs handler on port until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, port int, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
