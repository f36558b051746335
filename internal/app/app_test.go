package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/config"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/models"
	"github.com/Lllllllleong/reportlabeler/internal/pdftest"
	"github.com/Lllllllleong/reportlabeler/internal/services"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server:   config.ServerConfig{Port: 5000},
		Backend:  config.BackendConfig{MaxDocumentBytes: 1 << 20},
		Label:    config.LabelConfig{Template: "Region: {region}"},
		Labeling: config.LabelingConfig{Mode: config.ModeLocal, DefaultText: "Processed by Labeling Service", Port: 5001},
		Storage:  config.StorageConfig{Backend: config.BackendLocal, Dir: filepath.Join(t.TempDir(), "artifacts")},
		Ledger:   config.LedgerConfig{Collection: "label_runs"},
	}
}

func TestNew_LocalDefaults(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.IsType(t, &labeler.Stamper{}, a.Labeler())
	assert.NotNil(t, a.Store())
	assert.NoError(t, a.Ready(context.Background()))
}

func TestNew_RemoteLabeling(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Labeling.Mode = config.ModeRemote
	cfg.Labeling.RemoteURL = "http://labeling.internal:5001/process"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.IsType(t, &labeler.Remote{}, a.Labeler())
}

func TestApp_ReportLabelerNeedsBackend(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.ReportLabeler()
	assert.Error(t, err)
}

func TestApp_ReportLabelerEndToEnd(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(services.RegionParam) != "APAC" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pdftest.Document(3))
	}))
	t.Cleanup(backend.Close)

	cfg := testConfig(t)
	cfg.Backend.BaseURL = backend.URL + "/views/Sales.pdf"
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	fn, err := a.ReportLabeler()
	require.NoError(t, err)
	report, err := fn.Process(context.Background(), models.RequestParameters{SheetName: "Overview", Region: "APAC"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.PageCount)
	assert.FileExists(t, filepath.Join(cfg.Storage.Dir, report.LabeledArtifactName))
}

func TestApp_LabelingService(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	svc, err := a.LabelingService()
	require.NoError(t, err)
	assert.Equal(t, "Processed by Labeling Service", svc.DefaultLabelText())
}

func TestApp_ReadyFailsWhenDirRemoved(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, os.RemoveAll(cfg.Storage.Dir))
	assert.Error(t, a.Ready(context.Background()))
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, 0, http.NotFoundHandler(), zap.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
