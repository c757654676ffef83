package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-scheduler/internal/handler"
	"github.com/iliyamo/stock-scheduler/internal/service"
	"github.com/iliyamo/stock-scheduler/internal/utils"
)

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, noop)
	h := handler.NewStockHandler(service.NewStockService(nil, nil))
	RegisterStocks(e, h, "secret", noop, noop)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /v1/timezones/departments/:code",
		"GET /v1/timezones/postal-codes/:code",
		"POST /v1/stocks/preview",
		"POST /v1/offers/:offer_id/stocks",
		"POST /v1/offers/:offer_id/stocks/recurrence",
		"POST /v1/offers/:offer_id/collective-stock",
		"PATCH /v1/collective-stocks/:id",
		"GET /v1/collective-stocks/:id/form",
		"GET /v1/offers/:offer_id/stocks",
		"GET /v1/stocks/:id",
		"DELETE /v1/stocks/:id",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestPreviewRequiresProToken(t *testing.T) {
	e := newServer()
	body := `{"eventDate":"2020-12-20","eventTime":"19:00","departmentCode":"973"}`
	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/stocks/preview", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, send("").Code)

	beneficiary, err := utils.NewAccessToken("secret", 1, "BENEFICIARY", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, send(beneficiary.Token).Code)

	pro, err := utils.NewAccessToken("secret", 1, utils.RolePro, 5)
	require.NoError(t, err)
	rec := send(pro.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"beginningDatetime":"2020-12-20T22:00:00Z","bookingLimitDatetime":"2020-12-20T22:00:00Z","priceCents":0,"quantity":null}`,
		rec.Body.String())
}

func TestTimezoneLookupIsPublic(t *testing.T) {
	e := newServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/timezones/departments/974", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Indian/Reunion")
}
