// Package handler holds the echo handlers.  Handlers bind and validate
// the request, call one service or repository method and map its error
// to a status code; they hold no business rules.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/payment"
	"github.com/iliyamo/yacht-charter/internal/repository"
	"github.com/iliyamo/yacht-charter/internal/service"
	"github.com/iliyamo/yacht-charter/internal/storage"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 10 * time.Second

// transferTimeout bounds requests that move file bytes to or from the
// object store.
const transferTimeout = 2 * time.Minute

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func transferCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), transferTimeout)
}

// bind decodes the body into dst and validates it.  On failure it returns
// the message for a 400 response.
func bind(c echo.Context, dst any) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid body", false
	}
	if err := c.Validate(dst); err != nil {
		if msg, ok := describeValidation(err); ok {
			return "validation failed: " + msg, false
		}
		return err.Error(), false
	}
	return "", true
}

// fail writes the status and message matching err.
func fail(c echo.Context, err error) error {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrTransitionNotAllowed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidBooking),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidBucket),
		errors.Is(err, payment.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal error"
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseUint reads a positive integer path or query value.
func parseUint(s string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// queryInt reads an optional integer query value.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
