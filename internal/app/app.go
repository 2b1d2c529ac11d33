package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kiosk/internal/attention"
	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/route"
	"kiosk/internal/service"
	"kiosk/internal/service/capture"
	"kiosk/internal/service/render"
	"kiosk/internal/service/signal"
	"kiosk/internal/service/storage"
	"kiosk/internal/service/vision"
	"kiosk/internal/service/websocket"
)

// outputSignal is the attention output owned by the app.
type outputSignal interface {
	service.Signal
	Close() error
}

type App struct {
	config          *config.Config
	logger          *logger.Logger
	db              *sqlite.DB
	camera          *capture.Camera
	personDetector  *vision.SSDDetector
	faceDetector    *vision.SSDDetector
	dashboard       *render.Dashboard
	signal          outputSignal
	evidenceService *storage.EvidenceService
	hubService      *websocket.HubService
	manager         *service.Manager
	server          *http.Server
}

// NewApp loads the configuration and wires every component. Anything already
// opened is released when a later step fails.
func NewApp() (a *App, err error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	a = &App{config: cfg, logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.db, err = sqlite.New(cfg.DatabasePath); err != nil {
		return nil, err
	}
	impactRepo := sqlite.NewImpactRepository(a.db)
	detectionRepo := sqlite.NewDetectionRepository(a.db)

	if a.personDetector, err = vision.NewSSDDetector("person", cfg.PersonModelPath, cfg.PersonConfigPath, vision.PersonBlob, log); err != nil {
		return nil, err
	}
	if a.faceDetector, err = vision.NewSSDDetector("face", cfg.FaceModelPath, cfg.FaceConfigPath, vision.FaceBlob, log); err != nil {
		return nil, err
	}
	labels, err := vision.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	if a.camera, err = capture.Open(cfg.CameraDevice, cfg.ProcessingWidth, log); err != nil {
		return nil, err
	}

	if cfg.GPIOEnabled {
		gpio, err := signal.NewGPIOSignal(cfg.LEDPin, log)
		if err != nil {
			return nil, err
		}
		a.signal = gpio
	} else {
		a.signal = signal.NewLogSignal(log)
	}

	a.dashboard = render.NewDashboard(cfg.ScreenWidth, cfg.ScreenHeight, cfg.DisplayEnabled, log)
	a.evidenceService = storage.NewEvidenceService(cfg.EvidenceDirectory, cfg.EvidenceBufferLimit, log, impactRepo, detectionRepo)
	a.hubService = websocket.NewHubService(log)

	classifier := attention.NewClassifier(a.faceDetector, cfg.ClassifierConfig(), log)
	sampler := attention.NewSampler(a.personDetector, labels, classifier, cfg.SamplerConfig(), log)
	a.manager = service.NewManager(a.camera, sampler, a.dashboard, a.signal, a.evidenceService, a.hubService, cfg, log)

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: route.SetupRoutes(a.manager, a.hubService, cfg, log, impactRepo, detectionRepo),
	}

	return a, nil
}

// Run serves the operator API and runs the frame loop on the calling goroutine
// until ctx is cancelled, the operator quits or the camera stops.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.evidenceService.Run(ctx, a.config.EvidenceFlushInterval)
	}()
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	a.logger.Info("🚀 Attention kiosk")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📷 Camera: %s", a.config.CameraDevice)
	a.logger.Info("📁 Evidence: %s", a.config.EvidenceDirectory)

	err := a.manager.Run(ctx)
	if errors.Is(err, capture.ErrCaptureClosed) {
		a.logger.Warning("Camera stream ended")
		err = nil
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if shutdownErr := a.server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Error("HTTP server shutdown: %v", shutdownErr)
	}

	cancel()
	wg.Wait()

	select {
	case srvErr := <-serverErr:
		if err == nil {
			err = fmt.Errorf("http server: %w", srvErr)
		}
	default:
	}

	snapshot := a.manager.Snapshot()
	a.logger.Info("Total real impacts: %d", snapshot.Impacts)
	return err
}

// Close releases hardware, models and storage.
func (a *App) Close() {
	if a.signal != nil {
		if err := a.signal.Close(); err != nil {
			a.logger.Error("Failed to reset attention signal: %v", err)
		}
	}
	if a.dashboard != nil {
		a.dashboard.Close()
	}
	if a.camera != nil {
		a.camera.Close()
	}
	if a.faceDetector != nil {
		a.faceDetector.Close()
	}
	if a.personDetector != nil {
		a.personDetector.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Info("Kiosk closed")
	a.logger.Close()
}
