package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/api"
	"github.com/Lllllllleong/reportlabeler/internal/app"
	"github.com/Lllllllleong/reportlabeler/internal/config"
	"github.com/Lllllllleong/reportlabeler/internal/logging"
	"github.com/Lllllllleong/reportlabeler/internal/models"
	"github.com/Lllllllleong/reportlabeler/internal/services"
)

var (
	appInstance *app.App
	logger      *zap.Logger
	once        sync.Once
	initErr     error

	gatewayOnce    sync.Once
	gatewayHandler http.Handler
	gatewayErr     error

	labelingOnce    sync.Once
	labelingHandler http.Handler
	labelingErr     error

	uploadOnce     sync.Once
	uploadInstance *services.UploadLabelerFunction
	uploadErr      error
)

func init() {
	functions.HTTP("HandleLabelReport", handleLabelReport)
	functions.HTTP("HandleProcess", handleProcess)
	functions.CloudEvent("LabelOnUpload", labelOnUpload)
}

// main runs the functions locally; deployed functions are invoked by target.
func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := funcframework.Start(strconv.Itoa(cfg.Server.FunctionsPort)); err != nil {
		fmt.Fprintf(os.Stderr, "funcframework.Start: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(os.Getenv("REPORTLABELER_CONFIG"))
}

// initialize loads configuration from REPORTLABELER_* variables once per
// instance.
func initialize() error {
	once.Do(func() {
		cfg, err := loadConfig()
		if err != nil {
			initErr = err
			return
		}
		logger, err = logging.New(cfg.Logging.Development)
		if err != nil {
			initErr = fmt.Errorf("logger init failed: %w", err)
			return
		}
		appInstance, initErr = app.New(context.Background(), cfg, logger)
	})
	return initErr
}

func initFailed(w http.ResponseWriter, err error) {
	if logger != nil {
		logger.Error("Critical error during function initialization.", zap.Error(err))
	} else {
		fmt.Fprintf(os.Stderr, "function initialization failed: %v\n", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse("failed to initialize service"))
}

// handleLabelReport is the gateway webhook.
func handleLabelReport(w http.ResponseWriter, r *http.Request) {
	if err := initialize(); err != nil {
		initFailed(w, err)
		return
	}
	gatewayOnce.Do(func() {
		var fn *services.ReportLabelerFunction
		fn, gatewayErr = appInstance.ReportLabeler()
		if gatewayErr == nil {
			gatewayHandler = api.NewGatewayServer(fn, logger.Named("api")).WebhookHandler()
		}
	})
	if gatewayErr != nil {
		initFailed(w, gatewayErr)
		return
	}
	gatewayHandler.ServeHTTP(w, r)
}

// handleProcess is the multipart labeling endpoint.
func handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := initialize(); err != nil {
		initFailed(w, err)
		return
	}
	labelingOnce.Do(func() {
		var svc *services.LabelingServiceFunction
		svc, labelingErr = appInstance.LabelingService()
		if labelingErr == nil {
			labelingHandler = api.NewLabelingServer(svc, logger.Named("api")).ProcessHandler()
		}
	})
	if labelingErr != nil {
		initFailed(w, labelingErr)
		return
	}
	labelingHandler.ServeHTTP(w, r)
}

// labelOnUpload labels PDFs as they are finalized in a bucket.
func labelOnUpload(ctx context.Context, e cloudevents.Event) error {
	if err := initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "function initialization failed: %v\n", err)
		return err
	}
	uploadOnce.Do(func() {
		uploadInstance, uploadErr = appInstance.UploadLabeler(context.Background())
	})
	if uploadErr != nil {
		logger.Error("Critical error during upload labeler initialization.", zap.Error(uploadErr))
		return uploadErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		logger.Error("Failed to unmarshal event data", zap.Error(err), zap.String("data", string(e.Data())))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context inside Process.
	return uploadInstance.Process(ctx, gcsEvent)
}
