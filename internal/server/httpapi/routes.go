package httpapi

import (
	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

func (s *Server) registerRoutes(reg *prometheus.Registry) {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))

	g := s.echo.Group(common.AuthPathPrefix)
	g.POST("/login", s.handleLogin)
	g.POST("/refresh", s.handleRefresh)
	g.POST("/logout", s.handleLogout)

	s.echo.GET("/api/me", s.handleMe, s.requireBearer)
}
