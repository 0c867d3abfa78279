// Package server wires the fund connector together: database, mail, Redis,
// services and the HTTP and gRPC listeners, with graceful shutdown on
// SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/fundconnector/internal/logging"
	"github.com/dmitrijs2005/fundconnector/internal/server/auth"
	"github.com/dmitrijs2005/fundconnector/internal/server/config"
	"github.com/dmitrijs2005/fundconnector/internal/server/httpapi"
	"github.com/dmitrijs2005/fundconnector/internal/server/mailer"
	"github.com/dmitrijs2005/fundconnector/internal/server/metrics"
	"github.com/dmitrijs2005/fundconnector/internal/server/ratelimit"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"

	gs "github.com/dmitrijs2005/fundconnector/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rdb     *redis.Client
	metrics *metrics.Metrics

	Accounts  *services.AccountService
	Profiles  *services.ProfileService
	Directory *services.DirectoryService
	Documents *services.DocumentService
	tokens    *auth.TokenIssuer
	limiter   *ratelimit.Limiter
}

// NewApp opens the database, applies migrations and builds the services.
// Redis is optional; without it the auth endpoints are not rate limited.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
		tokens:  auth.NewTokenIssuer(c.SecretKey, c.AccessTokenValidityDuration),
	}

	if c.RedisAddr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		if err := app.rdb.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unreachable, rate limiting will fail open", "addr", c.RedisAddr, "error", err)
		}
		app.limiter = ratelimit.New(app.rdb, "", c.RateLimitRate, c.RateLimitBurst)
	} else {
		logger.Warn(ctx, "redis not configured, auth endpoints are not rate limited")
	}

	ml := mailer.New(mailer.Config{
		Host: c.SMTPHost,
		Port: c.SMTPPort,
		User: c.SMTPUser,
		Pass: c.SMTPPass,
		From: c.SMTPFrom,
	}, logger.With("module", "mailer"))

	app.Accounts = services.NewAccountService(db, rm, c, ml, logger)
	app.Profiles = services.NewProfileService(db, rm, logger)
	app.Directory = services.NewDirectoryService(db, rm)
	app.Documents = services.NewDocumentService(db, rm, c, logger)

	return app, nil
}

func (app *App) Logger() logging.Logger { return app.logger }

// Close releases the database pool and the Redis client.
func (app *App) Close() error {
	var errs []error
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	errs = append(errs, app.db.Close())
	return errors.Join(errs...)
}

func (app *App) healthChecks() []httpapi.HealthCheck {
	checks := []httpapi.HealthCheck{{Name: "postgres", Check: app.db.PingContext}}
	if app.rdb != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return app.rdb.Ping(ctx).Err()
		}})
	}
	return checks
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(httpapi.Deps{
		Accounts:  app.Accounts,
		Profiles:  app.Profiles,
		Directory: app.Directory,
		Documents: app.Documents,
		Tokens:    app.tokens,
		Limiter:   app.limiter,
		Metrics:   app.metrics,
		Logger:    app.logger,
		Health:    app.healthChecks(),
	})

	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	var checks []gs.Check
	for _, h := range app.healthChecks() {
		checks = append(checks, gs.Check{Name: h.Name, Probe: h.Check})
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, checks...)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until a termination signal arrives or one of the
// listeners fails, then shuts both down and closes the pools.
func (app *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := app.Accounts.WaitForMail(drainCtx); err != nil {
		app.logger.Warn(drainCtx, "pending verification mails dropped", "error", err)
	}
	cancel()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
