package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID.  ok is false on routes
// without JWTAuth or for anonymous requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Email returns the email claim of the authenticated user.
func Email(c echo.Context) string {
	s, _ := c.Get(CtxEmail).(string)
	return s
}

// subject identifies the caller in Redis keys: the user ID when logged in,
// "anon" otherwise.
func subject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
