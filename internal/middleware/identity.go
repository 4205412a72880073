package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// identityKey names the caller for cache and rate limit keys: the user id
// when authenticated, "guest" otherwise.
func identityKey(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
