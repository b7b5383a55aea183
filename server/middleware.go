package server

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/existflow/ohm/internal/controller"
	"github.com/existflow/ohm/internal/logger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

// requestLogger logs every request and its outcome
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		logger.Debug("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", req.RemoteAddr))

		err := next(c)

		res := c.Response()
		logger.Info("HTTP Response",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()))

		return err
	}
}

// allowOrigins refuses requests a browser makes on behalf of a site that is
// not in allowed. CLI and script clients send no Origin header and pass.
func allowOrigins(allowed []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" || slices.Contains(allowed, origin) {
				return next(c)
			}
			logger.Warn("Cross-origin request refused",
				logger.F("origin", origin),
				logger.F("uri", c.Request().RequestURI))
			return c.JSON(http.StatusForbidden, map[string]string{"error": "origin not allowed"})
		}
	}
}

// fail maps a board error to an HTTP status and writes it as JSON
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var verrs validation.Errors
	var verr validation.Error
	switch {
	case errors.Is(err, controller.ErrCardNotFound), errors.Is(err, controller.ErrCategoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, controller.ErrTransition):
		status = http.StatusConflict
	case errors.Is(err, controller.ErrNoCapacity),
		errors.As(err, &verrs), errors.As(err, &verr):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", logger.Err(err))
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
