package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	printingapp "github.com/spoolgate/backend/internal/application/printing"
	"github.com/spoolgate/backend/internal/infrastructure/auth"
	"github.com/spoolgate/backend/internal/infrastructure/config"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/infrastructure/telemetry"
	"github.com/spoolgate/backend/internal/interfaces/http/server"
)

//go:generate swag init -g main.go -d ./,../../internal/interfaces/http,../../internal/domain/printing -o ../../docs

//	@title			Spoolgate Print Gateway API
//	@version		1.0
//	@description	HTTP gateway in front of a CUPS print spooler: upload, preview and print documents.

//	@contact.name	Spoolgate maintainers

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}". The auth-token cookie is accepted too.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log); err != nil {
		log.Error("Gateway stopped with error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry comes first so every later component logs through the bridge
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log = logger.Tee(log, providers.Logs.Core(logger.ParseLevel(cfg.Log.Level)))
	meter := providers.Meter.Meter(cfg.Telemetry.ServiceName)

	profiling := cfg.Telemetry.Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           profiling.Enabled,
		ServerAddress:     profiling.ServerAddress,
		ApplicationName:   profiling.ApplicationName,
		BasicAuthUser:     profiling.BasicAuthUser,
		BasicAuthPassword: profiling.BasicAuthPassword,
		Types:             profiling.Types,
		Tags:              map[string]string{"env": cfg.App.Env, "version": cfg.App.Version},
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler shutdown failed", zap.Error(err))
		}
	}()
	// span profiles need both a running profiler and exported traces
	if profiling.SpanProfiles && profiler.IsEnabled() {
		providers.Tracer.EnableSpanProfiles()
	}

	log.Info("Starting print gateway",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	spoolerMetrics, err := telemetry.NewSpoolerMetrics(telemetry.SpoolerMetricsConfig{Meter: meter, Logger: log})
	if err != nil {
		return err
	}

	// Spooler adapter
	adapter := spooler.NewCUPSAdapter(&spooler.CUPSConfig{
		LpPath:        cfg.Spooler.LpPath,
		LpstatPath:    cfg.Spooler.LpstatPath,
		LpinfoPath:    cfg.Spooler.LpinfoPath,
		LpoptionsPath: cfg.Spooler.LpoptionsPath,
		Timeout:       cfg.Spooler.CommandTimeout,
		Server:        cfg.Spooler.Server,
		Logger:        log,
	})
	if missing := spooler.MissingRequired(spooler.CheckBinaries(adapter.Requirements())); len(missing) > 0 {
		log.Warn("CUPS binaries not found; the spooler will report offline",
			zap.Strings("missing", missing))
	}

	// Upload storage
	store, err := storage.NewFileSystemStorage(&storage.FileSystemStorageConfig{
		Root:        cfg.Storage.Root,
		MaxFileSize: cfg.Storage.MaxFileSize,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	log.Info("Upload storage ready", zap.String("root", store.Root()))

	// Application services
	monitor, err := printingapp.NewStatusMonitor(adapter, printingapp.StatusMonitorConfig{
		Interval: cfg.Spooler.RefreshInterval,
		Logger:   log,
		Metrics:  spoolerMetrics,
	})
	if err != nil {
		return err
	}
	documents := printingapp.NewDocumentService(store, log, spoolerMetrics)
	submissions := printingapp.NewSubmissionService(store, adapter, monitor, printingapp.SubmissionServiceConfig{
		Timeout: cfg.Spooler.CommandTimeout,
		Logger:  log,
		Metrics: spoolerMetrics,
	})
	sweeper, err := printingapp.NewSweeper(documents, log, printingapp.SweeperConfig{
		Enabled:  cfg.Storage.SweepEnabled,
		Interval: cfg.Storage.SweepInterval,
		MaxAge:   cfg.Storage.SweepMaxAge,
	})
	if err != nil {
		return err
	}

	// Authentication
	credentials, err := auth.LoadCredentials(cfg.Auth.CredentialsFile, log)
	if err != nil {
		return err
	}
	var blacklist auth.TokenBlacklist
	if cfg.Auth.RedisEnabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			_ = redisBlacklist.Close()
		}()
		blacklist = redisBlacklist
		log.Info("Token blacklist backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("Token blacklist kept in memory; logouts are lost on restart")
	}
	identity := auth.NewIdentityProvider(auth.NewJWTService(cfg.Auth), credentials, blacklist, log)

	// HTTP server
	srv, err := server.New(cfg, server.Services{
		Identity:  identity,
		Documents: documents,
		Queries:   printingapp.NewQueryService(monitor, adapter),
		Jobs:      submissions,
		Sweeper:   documents,
		Status:    monitor,
	}, server.Options{
		Logger:         log,
		Meter:          meter,
		TracerProvider: providers.Tracer.Provider(),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := monitor.Start(gctx); err != nil {
		return err
	}
	if err := sweeper.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	err = g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	stopErr := errors.Join(monitor.Stop(stopCtx), sweeper.Stop(stopCtx))
	if stopErr != nil {
		log.Warn("Background tasks did not stop cleanly", zap.Error(stopErr))
	}

	log.Info("Print gateway stopped")
	return err
}
