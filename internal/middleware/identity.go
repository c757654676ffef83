package middleware

import "github.com/labstack/echo/v4"

// userID returns the subject stored by JWTAuth, or "anon" for requests that
// did not go through it.  Rate limit keys use it to tell callers apart.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
