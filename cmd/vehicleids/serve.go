package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"vehicleids/config"
	"vehicleids/internal/analytics"
	"vehicleids/internal/api"
	"vehicleids/internal/auth"
	"vehicleids/internal/engine"
	"vehicleids/internal/generator"
	inputredis "vehicleids/internal/input/redis"
	"vehicleids/internal/logger"
	"vehicleids/internal/metrics"
	"vehicleids/internal/output/snapshothttp"
	"vehicleids/internal/output/snapshotjson"
	"vehicleids/internal/output/snapshotredis"
	"vehicleids/internal/output/wsstream"
	"vehicleids/internal/pipeline"
	"vehicleids/internal/rules"
	"vehicleids/internal/simrand"
)

func runServer(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	cfg, configPath, err := loadConfig(configArg)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	v := cfg.VehicleIDS

	if err := logger.Init(logger.Options{
		Enabled: v.Logging.Enabled,
		Level:   v.Logging.Level,
		File:    v.Logging.File,
		Console: v.Logging.Console,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Infof("VehicleIDS starting")
	if configPath != "" {
		logger.Infof("Config loaded from: %s", configPath)
	}

	var reg *metrics.Registry
	if v.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	writers, hub := buildWriters(v)
	var hooks pipeline.Hooks
	if reg != nil {
		hooks = reg
	}
	dispatcher := pipeline.NewDispatcher(pipeline.Config{
		QueueSize:     v.Sink.QueueSize,
		BatchSize:     v.Sink.BatchSize,
		FlushInterval: v.Sink.FlushInterval,
	}, writers, hooks)

	var rng simrand.Source
	if v.Simulation.Seed != 0 {
		rng = simrand.Seeded(v.Simulation.Seed)
		logger.Infof("Simulation seeded: %d", v.Simulation.Seed)
	}
	gen := generator.New(rng)

	agg := analytics.NewAggregator(analytics.Config{
		TimelineSize: v.Analytics.TimelineSize,
		TopN:         v.Analytics.TopN,
		MaxKeys:      v.Analytics.MaxKeys,
	})
	opts := engine.Options{
		Generator: gen,
		Evaluator: rules.NewEvaluator(gen.Source(), loadSignalRules(v.Rules)),
		Analytics: agg,
		Publisher: dispatcher,
	}
	if reg != nil {
		opts.Observer = reg
		reg.TrackAnalytics(agg)
	}
	eng := engine.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var consumer *inputredis.Consumer
	commandsDone := make(chan struct{})
	if v.Redis.Commands {
		consumer, err = inputredis.NewConsumer(inputredis.Config{
			Addr:         v.Redis.Addr,
			Password:     v.Redis.Password,
			DB:           v.Redis.DB,
			Key:          v.Redis.CommandKey,
			BlockTimeout: v.Redis.BlockTimeout,
		})
		if err != nil {
			logger.Errorf("Failed to create Redis command consumer: %v", err)
			log.Fatalf("Failed to create Redis command consumer: %v", err)
		}
		logger.Infof("Operator commands: redis list %s", consumer.Key())
		go func() {
			defer close(commandsDone)
			inputredis.NewCommandLoop(consumer, eng).Run(ctx)
		}()
	} else {
		close(commandsDone)
	}

	var authSvc *auth.Service
	if strings.TrimSpace(v.Auth.JWTSecret) != "" {
		authSvc, err = auth.NewService(v.Auth.JWTSecret, v.Auth.TokenTTL)
		if err != nil {
			log.Fatalf("Failed to initialize auth: %v", err)
		}
		logger.Infof("Operator auth enabled for POST /api/attack_mode")
	}

	gin.SetMode(gin.ReleaseMode)
	routerOpts := api.Options{
		Simulator:   eng,
		Auth:        authSvc,
		Metrics:     reg,
		MetricsPath: v.Metrics.Path,
		StaticDir:   v.Server.StaticDir,
		RateLimit:   api.RateLimitConfig{RPS: v.RateLimit.RPS, Burst: v.RateLimit.Burst},
		AccessLog:   v.Server.AccessLog,
	}
	if hub != nil {
		routerOpts.Stream = hub
	}
	srv := &http.Server{
		Addr:         v.Server.Addr,
		Handler:      api.NewRouter(routerOpts),
		ReadTimeout:  v.Server.ReadTimeout,
		WriteTimeout: v.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", v.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), v.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}

	cancel()
	<-commandsDone
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Errorf("Error closing Redis command consumer: %v", err)
		}
	}

	if err := dispatcher.Close(); err != nil {
		logger.Errorf("Error closing snapshot writers: %v", err)
	}
	if d := dispatcher.Dropped(); d > 0 {
		logger.Warnf("Snapshots dropped during run: %d", d)
	}

	logger.Infof("VehicleIDS stopped")
}

// buildWriters opens every enabled sink. A sink that cannot be opened is
// logged and skipped so the simulator still serves telemetry.
func buildWriters(v config.VehicleIDSConfig) ([]pipeline.NamedWriter, *wsstream.Hub) {
	var writers []pipeline.NamedWriter

	if v.TelemetryLog.Enabled {
		w, err := snapshotjson.NewWriter(v.TelemetryLog.Path)
		if err != nil {
			logger.Errorf("Telemetry log disabled: %v", err)
		} else {
			writers = append(writers, pipeline.NamedWriter{Name: "telemetry_log", Writer: w})
		}
	}

	if v.HTTPSink.Enabled {
		w, err := snapshothttp.NewWriter(snapshothttp.Config{
			URL:     v.HTTPSink.URL,
			Timeout: v.HTTPSink.Timeout,
			Headers: v.HTTPSink.Headers,
			Gzip:    v.HTTPSink.Gzip,
		})
		if err != nil {
			logger.Errorf("HTTP sink disabled: %v", err)
		} else {
			writers = append(writers, pipeline.NamedWriter{Name: "http", Writer: w})
			logger.Infof("HTTP sink: %s", v.HTTPSink.URL)
		}
	}

	if v.Redis.Enabled {
		w, err := snapshotredis.NewWriter(snapshotredis.Config{
			Addr:         v.Redis.Addr,
			Password:     v.Redis.Password,
			DB:           v.Redis.DB,
			KeyPrefix:    v.Redis.KeyPrefix,
			MaxSnapshots: v.Redis.MaxSnapshots,
		})
		if err != nil {
			logger.Errorf("Redis snapshot mirror disabled: %v", err)
		} else {
			writers = append(writers, pipeline.NamedWriter{Name: "redis", Writer: w})
			logger.Infof("Redis snapshot mirror: %s (prefix %s)", v.Redis.Addr, v.Redis.KeyPrefix)
		}
	}

	var hub *wsstream.Hub
	if v.WebSocket.Enabled {
		hub = wsstream.NewHub()
		writers = append(writers, pipeline.NamedWriter{Name: "websocket", Writer: hub})
	}
	return writers, hub
}

func loadSignalRules(cfg config.RulesConfig) rules.Engine {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; custom signal rules disabled")
		return nil
	}
	sigmaEngine, stats, err := rules.NewSigmaEngine(cfg.Path)
	if err != nil {
		logger.Errorf("Failed to load Sigma rules from %s: %v", cfg.Path, err)
		log.Fatalf("Failed to load Sigma rules: %v", err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; custom signal rules are effectively disabled")
		return nil
	}
	return sigmaEngine
}
