// Package server wires configuration, storage, the auth gateway and both
// transports together and runs them until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/cryptox"
	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/dmitrijs2005/rentdesk/internal/server/config"
	"github.com/dmitrijs2005/rentdesk/internal/server/httpapi"
	"github.com/dmitrijs2005/rentdesk/internal/server/metrics"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/dmitrijs2005/rentdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rentdesk/internal/server/repositories/users"
	"github.com/dmitrijs2005/rentdesk/internal/server/services"
	"github.com/dmitrijs2005/rentdesk/internal/server/sessions"
	"github.com/jonboulle/clockwork"

	gs "github.com/dmitrijs2005/rentdesk/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	httpServer  *httpapi.Server
	grpcServer  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	clock := clockwork.NewRealClock()

	var (
		db       *sql.DB
		store    sessions.Store
		userRepo users.Repository
		ready    httpapi.ReadinessFunc
	)

	if c.InMemory {
		logger.Warn(ctx, "sessions and users are kept in memory; state is lost on restart")
		mem := users.NewMemoryRepository()
		if _, err := mem.Add(models.User{
			UserName:     "admin",
			PasswordHash: cryptox.HashPassword([]byte(c.DevAdminPassword)),
			Roles:        []string{string(auth.RoleAdmin)},
		}); err != nil {
			return nil, err
		}
		userRepo = mem
		store = sessions.NewMemoryStore(clock)
	} else {
		var err error
		db, err = repomanager.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrations error: %w", err)
		}
		userRepo = rm.Users(db)
		store = sessions.NewDBStore(db, rm, clock, logger)
		ready = db.PingContext
	}

	reg := metrics.NewRegistry()
	issuer := auth.NewIssuer([]byte(c.SecretKey), clock)
	verifier := services.NewPasswordVerifier(userRepo, logger)
	as := services.NewAuthService(c, issuer, store, verifier, clock, metrics.NewAuthMetrics(reg), logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		authService: as,
		httpServer:  httpapi.NewServer(c, as, reg, ready, logger),
		grpcServer:  gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	if err := app.httpServer.Start(app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves both transports until a signal arrives or one of them fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
