package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/golfcast/golfcast/internal/autocut"
	"github.com/golfcast/golfcast/internal/clipexport"
	"github.com/golfcast/golfcast/internal/clipexport/ffmpegclip"
	"github.com/golfcast/golfcast/internal/clipexport/overlay"
	"github.com/golfcast/golfcast/internal/config"
	"github.com/golfcast/golfcast/internal/database/migrations"
	"github.com/golfcast/golfcast/internal/device"
	"github.com/golfcast/golfcast/internal/device/ndi"
	"github.com/golfcast/golfcast/internal/device/sdi"
	"github.com/golfcast/golfcast/internal/device/srt"
	"github.com/golfcast/golfcast/internal/device/synthetic"
	internalhttp "github.com/golfcast/golfcast/internal/http"
	"github.com/golfcast/golfcast/internal/http/handlers"
	"github.com/golfcast/golfcast/internal/observability"
	"github.com/golfcast/golfcast/internal/recorder"
	"github.com/golfcast/golfcast/internal/repository"
	"github.com/golfcast/golfcast/internal/scheduler"
	"github.com/golfcast/golfcast/internal/sequence"
	"github.com/golfcast/golfcast/internal/switcher"
	"github.com/golfcast/golfcast/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the golfcastd daemon",
	Long: `Start golfcastd: capture device enumeration, the recorder, the
auto-cut controller wired to the program switcher, the swing-sequence
recorder, the clip export pipeline, and a thin HTTP status surface.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	sessionRepo := repository.NewSessionRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	overlayRepo := repository.NewOverlayConfigRepository(db)
	clipRepo := repository.NewClipRepository(db)
	recordingSessionRepo := repository.NewRecordingSessionRepository(db)

	deviceManager := buildDeviceManager(cfg.Capture, logger)
	deviceLookup := recorder.DeviceLookup(func(id string) (device.Device, bool) {
		d, err := deviceManager.GetDevice(id)
		if err != nil {
			return nil, false
		}
		return d, true
	})

	rec := recorder.New(deviceLookup, recordingSessionRepo, logger)

	autocutCfg := buildAutocutConfig(cfg.AutoCut)
	controller := autocut.New(autocutCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Capture.GolferDeviceID != "" && cfg.Capture.SimulatorDeviceID != "" {
		golferDev, err := deviceManager.GetDevice(cfg.Capture.GolferDeviceID)
		if err != nil {
			return fmt.Errorf("resolving capture.golfer_device_id %q: %w", cfg.Capture.GolferDeviceID, err)
		}
		simDev, err := deviceManager.GetDevice(cfg.Capture.SimulatorDeviceID)
		if err != nil {
			return fmt.Errorf("resolving capture.simulator_device_id %q: %w", cfg.Capture.SimulatorDeviceID, err)
		}
		go feedAutocut(ctx, controller, golferDev.Subscribe(), simDev.Subscribe(), logger)
	} else {
		logger.Warn("autocut live input not configured; set capture.golfer_device_id and capture.simulator_device_id")
	}

	progSwitcher := switcher.New()
	seqRecorder := sequence.New(sessionRepo, sequenceRepo, logger)
	seqRecorder.Attach(progSwitcher)

	controller.OnCut(func(cut autocut.Cut) {
		seqRecorder.SetLastCutReason(string(cut.Reason))
		progSwitcher.SetProgramSourceIndex(switcher.SourceIndex(cut.TargetSourceIndex))
	})

	clippingService := ffmpegclip.New(cfg.FFmpeg.BinaryPath, logger)
	overlayCompositor := overlay.New(cfg.FFmpeg.BinaryPath, logger)
	exportPipeline := clipexport.New(clipexport.Options{
		Clipping:       clippingService,
		Overlay:        overlayCompositor,
		Waiter:         clipexport.NewFSNotifyWaiter(logger),
		Sessions:       sessionRepo,
		Sequences:      sequenceRepo,
		OverlayConfigs: overlayRepo,
		Clips:            clipRepo,
		MaxConcurrent:    2,
		Logger:           logger,
		MaxRetentionSize: cfg.Storage.MaxRetentionSize.Bytes(),
	})
	seqRecorder.OnSequenceCompleted(exportPipeline.Export)

	recordingScheduler := scheduler.New(rec, logger)
	recordingScheduler.Start()
	defer recordingScheduler.Stop()

	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if serverConfig.Port == 0 {
		serverConfig = internalhttp.DefaultServerConfig()
		serverConfig.Host = cfg.Server.Host
	}

	server := internalhttp.NewServer(serverConfig, logger, version.Version)

	handlers.NewHealthHandler(version.Version).WithDB(db).WithDevices(deviceManager).Register(server.API())
	handlers.NewDevicesHandler(deviceManager).Register(server.API())
	handlers.NewRecordingHandler(rec, sessionRepo).Register(server.API())
	handlers.NewAutocutHandler(controller).Register(server.API())

	docsHandler := handlers.NewDocsHandler("golfcast API", "/openapi.yaml", handlers.WithSystemTheme())
	server.Router().Get("/docs", docsHandler.ServeHTTP)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting golfcastd",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Version),
	)

	if err := server.ListenAndServe(ctx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()
	return deviceManager.Shutdown(shutdownCtx)
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, nil
}

func runMigrations(db *gorm.DB, logger *slog.Logger) error {
	migrator := migrations.NewMigrator(db, logger)
	migrator.RegisterAll(migrations.AllMigrations())
	return migrator.Up(context.Background())
}

// buildDeviceManager wires one device.Manager per enabled capture
// family into a single device.CompositeManager, per §4.1.
func buildDeviceManager(cfg config.CaptureConfig, logger *slog.Logger) device.Manager {
	var managers []device.Manager

	if cfg.EnableSDI {
		managers = append(managers, sdi.NewManager([][2]int{{cfg.SDICardIndex, 0}}))
	}
	if cfg.EnableNDI {
		managers = append(managers, ndi.NewManager(cfg.NDISourceNames))
	}
	if cfg.EnableSRT {
		srtConfigs := make([]srt.Config, 0, len(cfg.SRTInputs))
		for _, in := range cfg.SRTInputs {
			srtConfigs = append(srtConfigs, srt.Config{
				ID:          fmt.Sprintf("srt-%s", in.Name),
				DisplayName: in.Name,
				MuxerPath:   "ffmpeg",
				MuxerArgs: []string{
					"-i", fmt.Sprintf("srt://0.0.0.0:%d?latency=%d", in.Port, in.LatencyMS),
				},
				Logger: logger,
			})
		}
		managers = append(managers, srt.NewManager(srtConfigs))
	}
	if cfg.EnableSynthetic {
		managers = append(managers, synthetic.NewManager(namedColors(cfg.Colors), nil))
	}

	return device.NewCompositeManager(managers...)
}

// namedColors resolves the configured color names to the raw UYVY
// fill values synthetic.NewColor expects. Unrecognized names are
// skipped with a log-free no-op; there's no still-image decoder wired
// in, so cfg.StillImages has nothing to resolve against yet.
func namedColors(names []string) map[string][3]byte {
	presets := map[string][3]byte{
		"red":    {81, 90, 240},
		"green":  {145, 54, 34},
		"blue":   {41, 240, 110},
		"white":  {235, 128, 128},
		"yellow": {210, 16, 146},
		"black":  {16, 128, 128},
	}
	colors := make(map[string][3]byte, len(names))
	for _, name := range names {
		if yuv, ok := presets[name]; ok {
			colors[name] = yuv
		}
	}
	return colors
}

// buildAutocutConfig maps the §4.6 config tunables onto
// autocut.Config, applying a sensitivity preset on top when one is
// named and leaving the rest of the tunables on the wire values.
func buildAutocutConfig(cfg config.AutoCutConfig) autocut.Config {
	c := autocut.DefaultConfig()
	if cfg.AnalysisWidth > 0 {
		c.AnalysisWidth = cfg.AnalysisWidth
	}
	if cfg.AnalysisHeight > 0 {
		c.AnalysisHeight = cfg.AnalysisHeight
	}
	if cfg.FrameSkip > 0 {
		c.FrameSkip = cfg.FrameSkip
	}
	if cfg.FrameCompareGap > 0 {
		c.FrameCompareGap = cfg.FrameCompareGap
	}
	if cfg.EMAAlpha > 0 {
		c.EMAAlpha = cfg.EMAAlpha
	}
	if cfg.SwingSpikeMultiplier > 0 {
		c.SwingSpikeMultiplier = cfg.SwingSpikeMultiplier
	}
	if cfg.MinimumSpikeThreshold > 0 {
		c.MinimumSpikeThreshold = cfg.MinimumSpikeThreshold
	}
	if cfg.ROIWidth > 0 {
		c.ROILeft = cfg.ROILeft
		c.ROITop = cfg.ROITop
		c.ROIWidth = cfg.ROIWidth
		c.ROIHeight = cfg.ROIHeight
	}
	if cfg.IdleSimilarityThreshold > 0 {
		c.IdleSimilarityThreshold = cfg.IdleSimilarityThreshold
	}
	if cfg.ConsecutiveIdleFrames > 0 {
		c.ConsecutiveIdleFramesNeeded = cfg.ConsecutiveIdleFrames
	}
	if cfg.StaticSceneThreshold > 0 {
		c.StaticSceneThreshold = cfg.StaticSceneThreshold
	}
	c.AudioEnabled = cfg.AudioEnabled
	c.AudioOnlyMode = cfg.AudioOnlyMode
	if cfg.AudioEMAAlpha > 0 {
		c.AudioEMAAlpha = cfg.AudioEMAAlpha
	}
	if cfg.AudioSpikeMultiplier > 0 {
		c.AudioSpikeMultiplier = cfg.AudioSpikeMultiplier
	}
	if cfg.MinimumAudioThresholdDB != 0 {
		c.MinimumAudioThresholdDB = cfg.MinimumAudioThresholdDB
	}
	if cfg.AudioVideoFusionWindow.Duration() > 0 {
		c.AudioVideoFusionWindow = cfg.AudioVideoFusionWindow.Duration()
	}
	if cfg.MaxSimulatorDuration.Duration() > 0 {
		c.MaxSimulatorDuration = cfg.MaxSimulatorDuration.Duration()
	}
	if cfg.PracticeSwingTimeout.Duration() > 0 {
		c.PracticeSwingTimeout = cfg.PracticeSwingTimeout.Duration()
	}
	if cfg.PostLandingDelay.Duration() > 0 {
		c.PostLandingDelay = cfg.PostLandingDelay.Duration()
	}
	if cfg.CooldownDuration.Duration() > 0 {
		c.CooldownDuration = cfg.CooldownDuration.Duration()
	}

	switch cfg.Sensitivity {
	case "high":
		c = autocut.ApplySensitivity(c, autocut.SensitivityHigh)
	case "low":
		c = autocut.ApplySensitivity(c, autocut.SensitivityLow)
	}
	return c
}

// feedAutocut routes golfer-camera frames into the swing detector,
// golfer-camera audio into the audio impact detector, and
// simulator-screen frames into the reset detector, per
// §4.6's source routing. It calibrates the reset detector's idle
// baseline from the first simulator frame seen, so an operator's
// later POST /api/v1/autocut/enable has a reference to gate on.
func feedAutocut(ctx context.Context, controller *autocut.Controller, golfer, simulator *device.Subscription, logger *slog.Logger) {
	defer golfer.Unsubscribe()
	defer simulator.Unsubscribe()

	calibrated := false
	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-golfer.VideoFrames():
			if !ok {
				return
			}
			controller.ProcessGolferFrame(frame.Bytes(), int(frame.Mode.Width), int(frame.Mode.Height))
			frame.Release()

		case audio, ok := <-golfer.AudioSamples():
			if !ok {
				return
			}
			controller.ProcessAudioBlock(autocut.DecodeInterleavedPCM16(audio.Samples, audio.Channels))

		case frame, ok := <-simulator.VideoFrames():
			if !ok {
				return
			}
			if !calibrated {
				controller.CalibrateIdleReference(frame.Bytes(), int(frame.Mode.Width), int(frame.Mode.Height))
				calibrated = true
			}
			controller.ProcessSimulatorFrame(frame.Bytes(), int(frame.Mode.Width), int(frame.Mode.Height))
			frame.Release()

		case status, ok := <-golfer.StatusChanges():
			if ok && status == device.StatusError {
				logger.Error("golfer capture device reported status error")
			}

		case status, ok := <-simulator.StatusChanges():
			if ok && status == device.StatusError {
				logger.Error("simulator capture device reported status error")
			}
		}
	}
}
