// Package httpapi is the JSON-over-HTTP transport of the auth endpoints,
// built on echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"github.com/dmitrijs2005/rentdesk/internal/server/config"
	"github.com/dmitrijs2005/rentdesk/internal/server/metrics"
	"github.com/dmitrijs2005/rentdesk/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Gateway is what the handlers need from the authentication service.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(token string) (auth.Principal, error)
}

// ReadinessFunc reports whether backing services are reachable.
type ReadinessFunc func(ctx context.Context) error

type Server struct {
	echo    *echo.Echo
	gateway Gateway
	log     logging.Logger
	ready   ReadinessFunc

	cookiePath   string
	cookieSecure bool
	refreshTTL   time.Duration
}

// NewServer builds the echo instance and registers routes. reg receives the
// HTTP metrics and is served on /metrics; ready may be nil.
func NewServer(cfg *config.Config, gw Gateway, reg *prometheus.Registry, ready ReadinessFunc, log logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		gateway:      gw,
		log:          log.With("module", "http"),
		ready:        ready,
		cookiePath:   cfg.CookiePath,
		cookieSecure: cfg.CookieSecure,
		refreshTTL:   cfg.RefreshTokenValidityDuration,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(metrics.NewHTTPMetrics(reg).Middleware())

	s.registerRoutes(reg)
	return s
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug(c.Request().Context(), "request",
				"method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}

// ServeHTTP lets tests drive the server with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info(context.Background(), "starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
