// Package server assembles the gin engine and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spoolgate/backend/docs"
	"github.com/spoolgate/backend/internal/infrastructure/config"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/interfaces/http/handler"
	"github.com/spoolgate/backend/internal/interfaces/http/middleware"
	"github.com/spoolgate/backend/internal/interfaces/http/router"
)

// multipartOverhead is added to the file ceiling for boundaries and part headers
const multipartOverhead = 1 << 20

// Identity verifies tokens for the middleware and serves the auth endpoints
type Identity interface {
	middleware.TokenVerifier
	handler.IdentityService
}

// Services are the application services exposed over HTTP
type Services struct {
	Identity  Identity
	Documents handler.Documents
	Queries   handler.PrinterQueries
	Jobs      handler.JobSubmitter
	Sweeper   handler.Sweeper
	Status    handler.SnapshotSource
}

// Options holds the ambient collaborators of the server
type Options struct {
	Logger         *zap.Logger
	Meter          metric.Meter         // nil disables HTTP metrics
	TracerProvider trace.TracerProvider // nil disables request tracing
}

// Server is the gateway's HTTP server
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	logger   *zap.Logger
	limiters []*middleware.RateLimiter
	shutdown time.Duration
}

// New builds the engine with the full middleware stack and every route
func New(cfg *config.Config, services Services, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	s := &Server{
		engine:   gin.New(),
		logger:   log,
		shutdown: cfg.HTTP.ShutdownTimeout,
	}
	engine := s.engine

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	// Order: request id, tracing, profiling, recovery, logging, metrics, headers, rate limit
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        opts.TracerProvider != nil,
		TracerProvider: opts.TracerProvider,
		SkipPaths:      []string{"/health/live", "/health/ready"},
	}))
	engine.Use(middleware.SpanEnricher())
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Telemetry.Profiling.Enabled
	engine.Use(middleware.Profiling(profiling))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/health", "/health/live", "/health/ready"))
	engine.Use(middleware.HTTPMetrics(opts.Meter, log))
	security := middleware.DefaultSecurityConfig()
	if cfg.HTTP.SwaggerEnabled {
		security.CSPSkipPrefixes = []string{"/swagger/"}
	}
	engine.Use(middleware.SecureWithConfig(security))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.RateLimitEnabled {
		limiter := s.newLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	mw := handler.RouteMiddleware{
		Auth:        middleware.JWTAuthMiddleware(services.Identity, cfg.Auth.Cookie.Name, log),
		JSONLimit:   middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		UploadLimit: middleware.BodyLimit(cfg.Storage.MaxFileSize + multipartOverhead),
	}
	if cfg.HTTP.RateLimitEnabled {
		mw.LoginLimit = middleware.RateLimit(s.newLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow))
	}

	handler.RegisterSystemRoutes(engine, handler.NewSystemHandler(services.Status, cfg.App.Name, cfg.App.Version))
	if cfg.HTTP.SwaggerEnabled {
		if cfg.App.Version != "" {
			docs.SwaggerInfo.Version = cfg.App.Version
		}
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	groups := []*router.DomainGroup{
		handler.AuthRoutes(handler.NewAuthHandler(services.Identity, cfg.Auth.Cookie), mw),
		handler.PrintRoutes(handler.NewPrintHandler(services.Documents, services.Queries, services.Jobs), mw),
		handler.AdminRoutes(handler.NewAdminHandler(services.Sweeper, cfg.Storage.SweepMaxAge), mw),
	}
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, g := range groups {
		r.Register(g)
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("routes", g.Routes()))
	}
	r.Setup()

	s.http = &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}
	return s, nil
}

// corsConfig overlays the configured origins, methods and headers on the defaults
func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.ExposeHeaders = append(cors.ExposeHeaders, "Content-Disposition")
	return cors
}

func (s *Server) newLimiter(limit int, window time.Duration) *middleware.RateLimiter {
	l := middleware.NewRateLimiter(limit, window)
	s.limiters = append(s.limiters, l)
	return l
}

// Engine returns the gin engine, mainly for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.http.Addr
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", ln.Addr().String()))
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Server exited gracefully")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Close releases background resources. Serve calls it on return.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}
