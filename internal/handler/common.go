package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/repository"
	"github.com/iliyamo/stock-scheduler/internal/service"
	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

// StockHandler serves the stock endpoints on top of a StockService.
type StockHandler struct {
	Svc service.StockService
}

// NewStockHandler constructs a StockHandler and panics if svc is nil.
func NewStockHandler(svc service.StockService) *StockHandler {
	if svc == nil {
		panic("nil service passed to NewStockHandler")
	}
	return &StockHandler{Svc: svc}
}

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func badID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
}

// writeError maps service and repository errors to responses.  Unexpected
// errors are returned for the echo error handler to log and render as 500.
func writeError(c echo.Context, err error) error {
	var inv *stockdate.InvalidInputError
	switch {
	case errors.As(err, &inv):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": inv.Error(), "fields": inv.Fields})
	case errors.Is(err, repository.ErrStockNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stock not found"})
	case errors.Is(err, service.ErrNotEducational):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "collective stock not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "stock has bookings"})
	}
	return err
}
