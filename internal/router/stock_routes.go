package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/handler"
	"github.com/iliyamo/stock-scheduler/internal/middleware"
	"github.com/iliyamo/stock-scheduler/internal/utils"
)

// RegisterStocks registers the stock endpoints under /v1.  Every route needs
// a valid JWT with the PRO or ADMIN role.  Reads go through cache and writes
// through limit.
func RegisterStocks(e *echo.Echo, h *handler.StockHandler, jwtSecret string, cache, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RolePro, utils.RoleAdmin),
	)

	// ---- Computation only ----
	g.POST("/stocks/preview", h.PreviewStock)

	// ---- Individual event stocks ----
	g.POST("/offers/:offer_id/stocks", h.CreateEventStock, limit)
	g.POST("/offers/:offer_id/stocks/recurrence", h.CreateRecurrence, limit)
	g.GET("/offers/:offer_id/stocks", h.ListOfferStocks, cache)
	g.GET("/stocks/:id", h.GetStock, cache)
	g.DELETE("/stocks/:id", h.DeleteStock, limit)

	// ---- Collective (educational) stocks ----
	g.POST("/offers/:offer_id/collective-stock", h.CreateCollectiveStock, limit)
	g.PATCH("/collective-stocks/:id", h.PatchCollectiveStock, limit)
	g.GET("/collective-stocks/:id/form", h.CollectiveStockForm)
}
