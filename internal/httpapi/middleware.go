package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		// ошибку отдаем обработчику здесь, иначе статус в логе будет 200
		if err := next(c); err != nil {
			c.Error(err)
		}

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.RealIP()),
		)
		return nil
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter == nil {
			return next(c)
		}

		key := c.RealIP()
		if !s.limiter.Allow(key) {
			if s.metrics != nil {
				s.metrics.RecordRateLimitHit()
			}
			retry := int(math.Ceil(s.limiter.RetryAfter(key).Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(retry))
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}
