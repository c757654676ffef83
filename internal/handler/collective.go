package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

// maxPatchBody bounds the body read by PatchCollectiveStock.
const maxPatchBody = 64 << 10

// collectiveRequest is the body of an educational stock creation.
type collectiveRequest struct {
	stockdate.CollectiveStockFormValues
	DepartmentCode string `json:"departmentCode"`
}

// CreateCollectiveStock handles POST /v1/offers/:offer_id/collective-stock.
func (h *StockHandler) CreateCollectiveStock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return badID(c, "offer_id")
	}
	var body collectiveRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in := body.Input(strings.TrimSpace(body.DepartmentCode))
	stock, err := h.Svc.CreateCollectiveStock(c.Request().Context(), offerID, in)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("handler: user %d created collective stock %d on offer %d", userID, stock.ID, offerID)
	return c.JSON(http.StatusCreated, stock)
}

// PatchCollectiveStock handles PATCH /v1/collective-stocks/:id.  Only the
// keys present in the body are edited; an explicit null booking limit resets
// it to the event start, an absent one keeps the stored value.
func (h *StockHandler) PatchCollectiveStock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var values stockdate.CollectiveStockFormValues
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&values); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names) // stable field order in errors
	changed := make([]stockdate.StockField, 0, len(names))
	for _, name := range names {
		f, err := stockdate.ParseStockField(name)
		if err != nil {
			return writeError(c, err)
		}
		changed = append(changed, f)
	}
	if len(changed) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	stock, err := h.Svc.PatchCollectiveStock(c.Request().Context(), id, values, changed)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("handler: user %d edited collective stock %d (%s)", userID, id, strings.Join(names, ","))
	return c.JSON(http.StatusOK, stock)
}

// CollectiveStockForm handles GET /v1/collective-stocks/:id/form and returns
// the local values an edit form starts from.  Id 0 returns the defaults of a
// new form.
func (h *StockHandler) CollectiveStockForm(c echo.Context) error {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		return badID(c, "id")
	}
	values, err := h.Svc.CollectiveFormValues(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, values)
}
