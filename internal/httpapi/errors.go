package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

var statusByError = []struct {
	err    error
	status int
}{
	{domain.ErrEmptyQuery, http.StatusBadRequest},
	{domain.ErrQueryTooLong, http.StatusBadRequest},
	{domain.ErrInvalidPreferences, http.StatusBadRequest},
	{domain.ErrDirectoryUnavailable, http.StatusBadGateway},
	{domain.ErrInstanceUnreachable, http.StatusBadGateway},
	{domain.ErrNoEligibleInstance, http.StatusServiceUnavailable},
}

// statusFor maps an error returned by a handler to an HTTP status.
func statusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// handleError отвечает text/plain с описанием ошибки
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	fields := []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.String(status, messageFor(err))
}
