// SPDX-License-Identifier: MIT

// Command simbridge runs the HTTP control plane for a 3D simulation host:
// one server per extension (scene builder, camera, recorder, streamers), a
// shared main-thread dispatch loop and the cinematic shot engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentworld/simbridge/internal/api"
	"github.com/agentworld/simbridge/internal/api/middleware"
	"github.com/agentworld/simbridge/internal/cache"
	cam "github.com/agentworld/simbridge/internal/camera"
	"github.com/agentworld/simbridge/internal/capture"
	"github.com/agentworld/simbridge/internal/cinematic"
	"github.com/agentworld/simbridge/internal/config"
	"github.com/agentworld/simbridge/internal/dispatch"
	cameraext "github.com/agentworld/simbridge/internal/extensions/camera"
	"github.com/agentworld/simbridge/internal/extensions/recorder"
	"github.com/agentworld/simbridge/internal/extensions/streamerext"
	"github.com/agentworld/simbridge/internal/extensions/worldbuilder"
	"github.com/agentworld/simbridge/internal/host"
	xlog "github.com/agentworld/simbridge/internal/log"
	"github.com/agentworld/simbridge/internal/metrics"
	"github.com/agentworld/simbridge/internal/scene"
	"github.com/agentworld/simbridge/internal/security"
	"github.com/agentworld/simbridge/internal/streamer"
	"github.com/agentworld/simbridge/internal/telemetry"
	"github.com/agentworld/simbridge/internal/tracker"
	"github.com/agentworld/simbridge/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "simbridge.yaml", "path to daemon config (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("simbridge %s (api %s)\n", version.Version, version.APIVersion)
		os.Exit(0)
	}

	if wd, err := os.Getwd(); err == nil {
		config.LoadDotenv(wd)
	}

	cfg, err := config.LoadDaemonConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simbridge: %v\n", err)
		os.Exit(1)
	}

	xlog.Configure(xlog.Config{
		Level:   config.ParseString("AGENT_LOG_LEVEL", cfg.LogLevel),
		Service: "simbridge",
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api.SetTrustedProxies(config.ParseString("AGENT_EXT_TRUSTED_PROXIES", ""))

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "simbridge",
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xlog.FieldEvent, "telemetry.init_failed").Msg("telemetry init failed")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	httpCfg := config.NewHTTPConfigHolder(cfg.HTTPConfigPath)
	versions := config.LoadVersions(cfg.VersionsPath)

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			logger.Fatal().Err(err).Str(xlog.FieldPath, cfg.DataDir).Msg("data dir unusable")
		}
	}

	// scene store (worldbuilder state)
	scenePath := cfg.SceneStore.Path
	if scenePath == "" && cfg.SceneStore.Backend == "sqlite" {
		scenePath = filepath.Join(cfg.DataDir, "scene.db")
	}
	store, err := scene.Open(cfg.SceneStore.Backend, scenePath)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.SceneStore.Backend).Msg("scene store open failed")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("scene store close failed")
		}
	}()

	// asset-transform cache: redis when configured, in-process otherwise
	var transformCache cache.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using memory cache")
			transformCache = cache.NewMemory(time.Minute)
		} else {
			transformCache = rc
		}
	} else {
		transformCache = cache.NewMemory(time.Minute)
	}
	defer transformCache.Close()

	// main-thread plumbing
	queue := dispatch.New()
	loop := host.New(host.DefaultTickInterval, queue)

	cameraTracker := tracker.New()
	worldTracker := tracker.New()

	controller := cam.NewController(cam.NewSceneAssets(store, transformCache))
	engine := cinematic.NewEngine(controller.Apply,
		cinematic.WithAssetCenter(controller.AssetCenter),
		cinematic.WithCompletionHook(func(movementID string, err error) {
			cameraTracker.MarkCompleted(movementID, map[string]any{"movement_id": movementID}, err)
		}),
	)
	loop.Subscribe(engine)
	loop.Subscribe(host.SubscriberFunc(func(time.Time, time.Duration) {
		cameraTracker.Prune()
		worldTracker.Prune()
	}))

	// recorder plumbing
	journalPath := ""
	if cfg.DataDir != "" {
		journalPath = filepath.Join(cfg.DataDir, "recorder-journal")
	}
	journal, err := capture.OpenJournal(journalPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("recorder journal open failed")
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn().Err(err).Msg("journal close failed")
		}
	}()
	supervisor := capture.NewSupervisor(capture.Options{
		OutputRoot: filepath.Join(cfg.DataDir, "recordings"),
		Renderer:   viewportRenderer(),
		Journal:    journal,
	})

	dispatchTimeout := config.ParseDuration("AGENT_EXT_DISPATCH_TIMEOUT", 5*time.Second)

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(runCtx) })
	g.Go(func() error { return httpCfg.Watch(runCtx) })

	runServer := func(ext api.Extension, reg *metrics.Registry) {
		name := ext.Identity().Name
		sec := security.FromEnv(name)
		srv := api.NewServer(ext, sec, reg, httpCfg, api.Options{
			Stack: middleware.StackConfig{
				TracingService: tracingService(cfg, name),
				EnableLogging:  true,
			},
		})
		g.Go(func() error { return srv.Run(runCtx) })
	}

	if port := cfg.Extensions.Worldbuilder; port > 0 {
		reg := metrics.New("worldbuilder")
		runServer(worldbuilder.New(worldbuilder.Options{
			Identity:        config.IdentityFor("worldbuilder", port, versions),
			Store:           store,
			Queue:           queue,
			Tracker:         worldTracker,
			Metrics:         reg,
			DispatchTimeout: dispatchTimeout,
		}), reg)
	}
	if port := cfg.Extensions.Camera; port > 0 {
		reg := metrics.New("camera")
		runServer(cameraext.New(cameraext.Options{
			Identity:        config.IdentityFor("camera", port, versions),
			Controller:      controller,
			Engine:          engine,
			Queue:           queue,
			Tracker:         cameraTracker,
			Metrics:         reg,
			DispatchTimeout: dispatchTimeout,
		}), reg)
	}
	if port := cfg.Extensions.Recorder; port > 0 {
		reg := metrics.New("recorder")
		runServer(recorder.New(recorder.Options{
			Identity:        config.IdentityFor("recorder", port, versions),
			Supervisor:      supervisor,
			Queue:           queue,
			Metrics:         reg,
			DispatchTimeout: dispatchTimeout,
		}), reg)
	}
	if port := cfg.Extensions.RTMP; port > 0 {
		reg := metrics.New("rtmp")
		runServer(streamerext.New(streamerext.Options{
			Identity: config.IdentityFor("rtmp", port, versions),
			Protocol: streamer.ProtocolRTMP,
			Manager:  streamer.NewManager(streamer.NewEncoderPipeline(), "rtmp"),
			Metrics:  reg,
		}), reg)
	}
	if port := cfg.Extensions.SRT; port > 0 {
		reg := metrics.New("srt")
		runServer(streamerext.New(streamerext.Options{
			Identity: config.IdentityFor("srt", port, versions),
			Protocol: streamer.ProtocolSRT,
			Manager:  streamer.NewManager(streamer.NewEncoderPipeline(), "srt"),
			Metrics:  reg,
		}), reg)
	}

	logger.Info().
		Str(xlog.FieldEvent, "daemon.started").
		Str("version", version.Version).
		Msg("simbridge running")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
	logger.Info().Str(xlog.FieldEvent, "daemon.stopped").Msg("simbridge stopped")
}

func tracingService(cfg config.DaemonConfig, name string) string {
	if !cfg.Telemetry.Enabled {
		return ""
	}
	return "simbridge-" + name
}

// viewportRenderer is the host bridge point. Without a host binding the
// renderer writes empty frame files so the capture plumbing stays exercised.
func viewportRenderer() capture.Renderer {
	return capture.RendererFunc(func(path string) error {
		return os.WriteFile(path, nil, 0o644)
	})
}
