// Package handler exposes the services over HTTP with echo.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Invalid(name, "invalid "+name)
	}
	return id, nil
}

// queryID reads an optional positive integer query parameter.  Missing
// means 0.
func queryID(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, service.Invalid(name, "invalid "+name)
	}
	return id, nil
}

// orEmpty keeps list endpoints from answering null.
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
