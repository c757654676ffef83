package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/handler"
)

// RegisterRoutes registers the routes that need no authentication: the
// health check and the timezone lookups.  cache wraps the lookups, whose
// answers only change with a new build.
func RegisterRoutes(e *echo.Echo, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	tz := e.Group("/v1/timezones")
	tz.GET("/departments/:code", handler.DepartmentTimezone, cache)
	tz.GET("/postal-codes/:code", handler.PostalCodeTimezone, cache)
}
