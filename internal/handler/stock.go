package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

// stockRequest is the body of an individual event stock.  Dates are
// "2006-01-02" and times "15:04", both in the venue's local time.
type stockRequest struct {
	EventDate            *stockdate.LocalDate `json:"eventDate"`
	EventTime            *stockdate.LocalTime `json:"eventTime"`
	BookingLimitDatetime *stockdate.LocalDate `json:"bookingLimitDatetime"` // null closes bookings at the event start
	DepartmentCode       string               `json:"departmentCode"`
	PriceCents           *uint32              `json:"priceCents"`
	Quantity             *uint32              `json:"quantity"` // null for unlimited
}

func (r stockRequest) input() stockdate.EventStockInput {
	return stockdate.EventStockInput{
		StockInput: stockdate.StockInput{
			EventDate:      r.EventDate,
			EventTime:      r.EventTime,
			BookingLimit:   r.BookingLimitDatetime,
			DepartmentCode: strings.TrimSpace(r.DepartmentCode),
		},
		PriceCents: r.PriceCents,
		Quantity:   r.Quantity,
	}
}

// recurrenceRequest is the body of POST /v1/offers/:offer_id/stocks/recurrence.
type recurrenceRequest struct {
	RecurrenceType           string                `json:"recurrenceType"`
	StartingDate             *stockdate.LocalDate  `json:"startingDate"`
	EndingDate               *stockdate.LocalDate  `json:"endingDate"`
	Days                     []string              `json:"days"` // "monday" ... "sunday", weekly only
	BeginningTimes           []stockdate.LocalTime `json:"beginningTimes"`
	BookingLimitDateInterval *int                  `json:"bookingLimitDateInterval"` // days before each event
	PriceCents               *uint32               `json:"priceCents"`
	Quantity                 *uint32               `json:"quantity"`
	DepartmentCode           string                `json:"departmentCode"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// rule converts the request into a RecurrenceRule.  It returns false with the
// offending day name when a day cannot be parsed.
func (r recurrenceRequest) rule() (stockdate.RecurrenceRule, string, bool) {
	rule := stockdate.RecurrenceRule{
		Kind:                   stockdate.RecurrenceKind(strings.ToUpper(strings.TrimSpace(r.RecurrenceType))),
		EndDate:                r.EndingDate,
		Beginnings:             r.BeginningTimes,
		BookingLimitDaysBefore: r.BookingLimitDateInterval,
		PriceCents:             r.PriceCents,
		Quantity:               r.Quantity,
	}
	if r.StartingDate != nil {
		rule.StartDate = *r.StartingDate
	}
	for _, d := range r.Days {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]
		if !ok {
			return stockdate.RecurrenceRule{}, d, false
		}
		rule.Weekdays = append(rule.Weekdays, wd)
	}
	return rule, "", true
}

// PreviewStock handles POST /v1/stocks/preview and returns the UTC payload a
// stock form would produce, without saving anything.
func (h *StockHandler) PreviewStock(c echo.Context) error {
	var body stockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, err := h.Svc.Preview(body.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// CreateEventStock handles POST /v1/offers/:offer_id/stocks.
func (h *StockHandler) CreateEventStock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return badID(c, "offer_id")
	}
	var body stockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	stock, err := h.Svc.CreateEventStock(c.Request().Context(), offerID, body.input())
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("handler: user %d created stock %d on offer %d", userID, stock.ID, offerID)
	return c.JSON(http.StatusCreated, stock)
}

// CreateRecurrence handles POST /v1/offers/:offer_id/stocks/recurrence and
// creates every stock of the rule in one transaction.
func (h *StockHandler) CreateRecurrence(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return badID(c, "offer_id")
	}
	var body recurrenceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rule, badDay, ok := body.rule()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day: " + badDay, "fields": []string{"days"}})
	}
	stocks, err := h.Svc.CreateRecurrence(c.Request().Context(), offerID, rule, strings.TrimSpace(body.DepartmentCode))
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("handler: user %d created %d recurring stocks on offer %d", userID, len(stocks), offerID)
	return c.JSON(http.StatusCreated, echo.Map{"count": len(stocks), "stocks": stocks})
}

// ListOfferStocks handles GET /v1/offers/:offer_id/stocks.
func (h *StockHandler) ListOfferStocks(c echo.Context) error {
	offerID, ok := parseIDParam(c, "offer_id")
	if !ok {
		return badID(c, "offer_id")
	}
	stocks, err := h.Svc.ListOfferStocks(c.Request().Context(), offerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": stocks})
}

// GetStock handles GET /v1/stocks/:id.
func (h *StockHandler) GetStock(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	stock, err := h.Svc.GetStock(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stock)
}

// DeleteStock handles DELETE /v1/stocks/:id.  Stocks with bookings are kept
// and answered with 409.
func (h *StockHandler) DeleteStock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.Svc.DeleteStock(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	log.Printf("handler: user %d deleted stock %d", userID, id)
	return c.NoContent(http.StatusNoContent)
}
