package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/timezone"
)

// DepartmentTimezone handles GET /v1/timezones/departments/:code.  Unknown
// codes answer with the default zone and known=false.
func DepartmentTimezone(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	return c.JSON(http.StatusOK, echo.Map{
		"department_code": code,
		"timezone":        timezone.ForDepartment(code),
		"known":           timezone.IsKnownDepartment(code),
	})
}

// PostalCodeTimezone handles GET /v1/timezones/postal-codes/:code.
func PostalCodeTimezone(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "postal code is required"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"postal_code": code,
		"timezone":    timezone.ForPostalCode(code),
	})
}
