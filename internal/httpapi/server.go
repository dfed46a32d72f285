// Package httpapi exposes the proxy over HTTP (echo).
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kitbuilder587/searx-proxy/internal/metrics"
	"github.com/kitbuilder587/searx-proxy/internal/ratelimit"
	"github.com/kitbuilder587/searx-proxy/internal/service"
)

type Deps struct {
	Service service.ProxyService
	// Limiter nil - rate limit выключен
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Server struct {
	echo    *echo.Echo
	svc     service.ProxyService
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		echo:    echo.New(),
		svc:     deps.Service,
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  deps.Logger.With(zap.String("component", "httpapi")),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(s.accessLog)
	e.Use(middleware.Recover())

	e.GET("/health", s.health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	e.GET("/search", s.search, s.rateLimit)
	e.POST("/save", s.save, s.rateLimit)
	e.GET("/instances", s.instances, s.rateLimit)
	e.GET("/preferences", s.preferences, s.rateLimit)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
