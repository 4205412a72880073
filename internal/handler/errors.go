package handler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// respondError writes the JSON error body for err.  Unknown errors become
// a 500 and are logged with their stack.
func respondError(c echo.Context, err error) error {
	body := echo.Map{}
	status := http.StatusInternalServerError

	var (
		verr  *service.ValidationError
		taken *service.SeatUnavailableError
		herr  *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body["error"] = "validation failed"
		body["fields"] = verr.Fields
	case errors.As(err, &taken):
		status = http.StatusConflict
		body["error"] = "seat unavailable"
		body["unavailable"] = taken.SeatIDs
	case errors.Is(err, service.ErrSeatUnavailable):
		status = http.StatusConflict
		body["error"] = "seat unavailable"
	case errors.Is(err, service.ErrBookingExpired):
		status = http.StatusGone
		body["error"] = "booking expired"
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
		body["error"] = "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		body["error"] = "forbidden"
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		body["error"] = "not found"
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		body["error"] = "conflict"
	case errors.As(err, &herr):
		return err
	default:
		middleware.Logger(c, logrus.StandardLogger()).
			WithField("route", c.Path()).
			Errorf("internal error: %+v", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	if hint := errors.FlattenHints(err); hint != "" {
		body["detail"] = hint
	}
	return c.JSON(status, body)
}
