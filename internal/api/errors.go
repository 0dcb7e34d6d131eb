package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"eshop/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

var errorStatus = []struct {
	err  error
	code int
}{
	{entity.ErrValidation, http.StatusBadRequest},
	{entity.ErrInsufficientStock, http.StatusBadRequest},
	{entity.ErrAuth, http.StatusUnauthorized},
	{entity.ErrForbidden, http.StatusForbidden},
	{entity.ErrNotFound, http.StatusNotFound},
	{entity.ErrConflict, http.StatusConflict},
	{context.DeadlineExceeded, http.StatusServiceUnavailable},
}

// writeError maps a service error to its status code. Anything outside the
// taxonomy is logged and reported as a bare 500.
func writeError(c echo.Context, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.JSON(m.code, map[string]string{"error": errorMessage(err, m.err)})
		}
	}

	logger.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("Request failed")
	msg := "internal server error"
	if errors.Is(err, entity.ErrIO) {
		msg = "could not store image"
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": msg})
}

// errorMessage drops the sentinel prefix for auth errors so clients see
// "Invalid credentials" rather than "unauthorized: Invalid credentials".
func errorMessage(err, sentinel error) string {
	switch sentinel {
	case entity.ErrAuth, entity.ErrForbidden:
		msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
		if msg == sentinel.Error() {
			return http.StatusText(statusOf(sentinel))
		}
		return msg
	case context.DeadlineExceeded:
		return "request timed out"
	}
	return err.Error()
}

func statusOf(sentinel error) int {
	for _, m := range errorStatus {
		if m.err == sentinel {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// httpErrorHandler renders echo's own errors (unknown route, bad method,
// timeouts) in the same {"error": ...} shape.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		logger.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error writing error response")
	}
}
