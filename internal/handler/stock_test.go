package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-scheduler/internal/model"
	"github.com/iliyamo/stock-scheduler/internal/repository"
	"github.com/iliyamo/stock-scheduler/internal/service"
	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

// --- Mock StockService ---

type mockStockService struct {
	previewFn          func(in stockdate.EventStockInput) (stockdate.EventStockPayload, error)
	createEventFn      func(ctx context.Context, offerID uint64, in stockdate.EventStockInput) (*model.Stock, error)
	createRecurrenceFn func(ctx context.Context, offerID uint64, rule stockdate.RecurrenceRule, dept string) ([]*model.Stock, error)
	createCollectiveFn func(ctx context.Context, offerID uint64, in stockdate.CollectiveStockInput) (*model.Stock, error)
	patchCollectiveFn  func(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error)
	collectiveFormFn   func(ctx context.Context, id uint64) (stockdate.CollectiveStockFormValues, error)
	getFn              func(ctx context.Context, id uint64) (*model.Stock, error)
	listFn             func(ctx context.Context, offerID uint64) ([]model.Stock, error)
	deleteFn           func(ctx context.Context, id uint64) error
}

func (m *mockStockService) Preview(in stockdate.EventStockInput) (stockdate.EventStockPayload, error) {
	return m.previewFn(in)
}
func (m *mockStockService) CreateEventStock(ctx context.Context, offerID uint64, in stockdate.EventStockInput) (*model.Stock, error) {
	return m.createEventFn(ctx, offerID, in)
}
func (m *mockStockService) CreateRecurrence(ctx context.Context, offerID uint64, rule stockdate.RecurrenceRule, dept string) ([]*model.Stock, error) {
	return m.createRecurrenceFn(ctx, offerID, rule, dept)
}
func (m *mockStockService) CreateCollectiveStock(ctx context.Context, offerID uint64, in stockdate.CollectiveStockInput) (*model.Stock, error) {
	return m.createCollectiveFn(ctx, offerID, in)
}
func (m *mockStockService) PatchCollectiveStock(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error) {
	return m.patchCollectiveFn(ctx, id, values, changed)
}
func (m *mockStockService) CollectiveFormValues(ctx context.Context, id uint64) (stockdate.CollectiveStockFormValues, error) {
	return m.collectiveFormFn(ctx, id)
}
func (m *mockStockService) GetStock(ctx context.Context, id uint64) (*model.Stock, error) {
	return m.getFn(ctx, id)
}
func (m *mockStockService) ListOfferStocks(ctx context.Context, offerID uint64) ([]model.Stock, error) {
	return m.listFn(ctx, offerID)
}
func (m *mockStockService) DeleteStock(ctx context.Context, id uint64) error {
	return m.deleteFn(ctx, id)
}

// --- Helpers ---

func newRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "5")
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func sampleStock() *model.Stock {
	return &model.Stock{
		ID:                   11,
		OfferID:              3,
		DepartmentCode:       "973",
		BeginningDatetime:    time.Date(2020, 12, 20, 22, 0, 0, 0, time.UTC),
		BookingLimitDatetime: time.Date(2020, 12, 20, 22, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestPreviewStock_Success(t *testing.T) {
	svc := &mockStockService{
		previewFn: func(in stockdate.EventStockInput) (stockdate.EventStockPayload, error) {
			return stockdate.BuildEventStockPayload(in)
		},
	}
	c, rec := newRequest(http.MethodPost, "/v1/stocks/preview",
		`{"eventDate":"2020-12-20","eventTime":"19:00","bookingLimitDatetime":"2020-12-19","departmentCode":"973"}`)

	err := NewStockHandler(svc).PreviewStock(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2020-12-20T22:00:00Z", resp["beginningDatetime"])
	assert.Equal(t, "2020-12-20T02:59:59Z", resp["bookingLimitDatetime"])
}

func TestPreviewStock_MissingDate(t *testing.T) {
	svc := &mockStockService{
		previewFn: func(in stockdate.EventStockInput) (stockdate.EventStockPayload, error) {
			return stockdate.BuildEventStockPayload(in)
		},
	}
	c, rec := newRequest(http.MethodPost, "/v1/stocks/preview", `{"eventTime":"19:00","departmentCode":"973"}`)

	err := NewStockHandler(svc).PreviewStock(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"eventDate"}, resp.Fields)
	assert.Contains(t, resp.Error, "eventDate")
}

func TestPreviewStock_BadDateFormat(t *testing.T) {
	c, rec := newRequest(http.MethodPost, "/v1/stocks/preview", `{"eventDate":"20/12/2020","eventTime":"19:00"}`)

	err := NewStockHandler(&mockStockService{}).PreviewStock(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEventStock_Handler_Success(t *testing.T) {
	svc := &mockStockService{
		createEventFn: func(ctx context.Context, offerID uint64, in stockdate.EventStockInput) (*model.Stock, error) {
			assert.Equal(t, uint64(3), offerID)
			assert.Equal(t, "973", in.DepartmentCode)
			require.NotNil(t, in.PriceCents)
			assert.Equal(t, uint32(1500), *in.PriceCents)
			return sampleStock(), nil
		},
	}
	c, rec := newRequest(http.MethodPost, "/v1/offers/3/stocks",
		`{"eventDate":"2020-12-20","eventTime":"19:00","departmentCode":" 973 ","priceCents":1500}`)
	withParam(c, "offer_id", "3")

	err := NewStockHandler(svc).CreateEventStock(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp model.Stock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(11), resp.ID)
}

func TestCreateEventStock_Handler_Unauthorized(t *testing.T) {
	c, rec := newRequest(http.MethodPost, "/v1/offers/3/stocks", `{}`)
	c.Set("user_id", nil)
	withParam(c, "offer_id", "3")

	require.NoError(t, NewStockHandler(&mockStockService{}).CreateEventStock(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateEventStock_Handler_BadOfferID(t *testing.T) {
	c, rec := newRequest(http.MethodPost, "/v1/offers/abc/stocks", `{}`)
	withParam(c, "offer_id", "abc")

	require.NoError(t, NewStockHandler(&mockStockService{}).CreateEventStock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecurrence_Handler(t *testing.T) {
	var got stockdate.RecurrenceRule
	svc := &mockStockService{
		createRecurrenceFn: func(ctx context.Context, offerID uint64, rule stockdate.RecurrenceRule, dept string) ([]*model.Stock, error) {
			got = rule
			return []*model.Stock{sampleStock(), sampleStock()}, nil
		},
	}
	c, rec := newRequest(http.MethodPost, "/v1/offers/3/stocks/recurrence",
		`{"recurrenceType":"weekly","startingDate":"2023-03-06","endingDate":"2023-03-19","days":["Monday","wednesday"],"beginningTimes":["10:00","20:30"],"departmentCode":"75"}`)
	withParam(c, "offer_id", "3")

	err := NewStockHandler(svc).CreateRecurrence(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, stockdate.RecurrenceWeekly, got.Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, got.Weekdays)
	assert.Equal(t, []stockdate.LocalTime{{Hour: 10}, {Hour: 20, Minute: 30}}, got.Beginnings)
	assert.Equal(t, "2023-03-06", got.StartDate.String())
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestCreateRecurrence_Handler_BadDay(t *testing.T) {
	c, rec := newRequest(http.MethodPost, "/v1/offers/3/stocks/recurrence",
		`{"recurrenceType":"WEEKLY","startingDate":"2023-03-06","days":["someday"]}`)
	withParam(c, "offer_id", "3")

	require.NoError(t, NewStockHandler(&mockStockService{}).CreateRecurrence(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCollectiveStock_Handler(t *testing.T) {
	svc := &mockStockService{
		createCollectiveFn: func(ctx context.Context, offerID uint64, in stockdate.CollectiveStockInput) (*model.Stock, error) {
			assert.Equal(t, "75", in.DepartmentCode)
			assert.Nil(t, in.TotalPriceCents)
			_, err := stockdate.BuildCollectiveStockPayload(in)
			return nil, err
		},
	}
	c, rec := newRequest(http.MethodPost, "/v1/offers/3/collective-stock",
		`{"eventDate":"2020-12-20","eventTime":"19:00","numberOfPlaces":25,"departmentCode":"75"}`)
	withParam(c, "offer_id", "3")

	require.NoError(t, NewStockHandler(svc).CreateCollectiveStock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "totalPrice")
}

func TestPatchCollectiveStock_Handler(t *testing.T) {
	t.Run("only present keys are changed", func(t *testing.T) {
		var gotChanged []stockdate.StockField
		var gotValues stockdate.CollectiveStockFormValues
		svc := &mockStockService{
			patchCollectiveFn: func(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error) {
				gotValues, gotChanged = values, changed
				return sampleStock(), nil
			},
		}
		c, rec := newRequest(http.MethodPatch, "/v1/collective-stocks/11",
			`{"eventTime":"20:00","bookingLimitDatetime":null}`)
		withParam(c, "id", "11")

		require.NoError(t, NewStockHandler(svc).PatchCollectiveStock(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.ElementsMatch(t, []stockdate.StockField{stockdate.FieldEventTime, stockdate.FieldBookingLimit}, gotChanged)
		assert.Nil(t, gotValues.BookingLimit)
		require.NotNil(t, gotValues.EventTime)
		assert.Equal(t, "20:00", gotValues.EventTime.String())
	})

	t.Run("unknown key", func(t *testing.T) {
		c, rec := newRequest(http.MethodPatch, "/v1/collective-stocks/11", `{"color":"red"}`)
		withParam(c, "id", "11")

		require.NoError(t, NewStockHandler(&mockStockService{}).PatchCollectiveStock(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		c, rec := newRequest(http.MethodPatch, "/v1/collective-stocks/11", `{}`)
		withParam(c, "id", "11")

		require.NoError(t, NewStockHandler(&mockStockService{}).PatchCollectiveStock(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("individual stock", func(t *testing.T) {
		svc := &mockStockService{
			patchCollectiveFn: func(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error) {
				return nil, service.ErrNotEducational
			},
		}
		c, rec := newRequest(http.MethodPatch, "/v1/collective-stocks/11", `{"totalPrice":100}`)
		withParam(c, "id", "11")

		require.NoError(t, NewStockHandler(svc).PatchCollectiveStock(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCollectiveStockForm_Handler(t *testing.T) {
	svc := &mockStockService{
		collectiveFormFn: func(ctx context.Context, id uint64) (stockdate.CollectiveStockFormValues, error) {
			assert.Equal(t, uint64(0), id)
			return stockdate.NewCollectiveStockFormDefaults(stockdate.WithDefaultPriceDetail("per pupil")).Values(), nil
		},
	}
	c, rec := newRequest(http.MethodGet, "/v1/collective-stocks/0/form", "")
	withParam(c, "id", "0")

	require.NoError(t, NewStockHandler(svc).CollectiveStockForm(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eventDate":null,"eventTime":null,"bookingLimitDatetime":null,"numberOfPlaces":null,"totalPrice":null,"priceDetail":"per pupil"}`, rec.Body.String())
}

func TestGetStock_Handler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &mockStockService{
			getFn: func(ctx context.Context, id uint64) (*model.Stock, error) { return sampleStock(), nil },
		}
		c, rec := newRequest(http.MethodGet, "/v1/stocks/11", "")
		withParam(c, "id", "11")

		require.NoError(t, NewStockHandler(svc).GetStock(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"beginning_datetime":"2020-12-20T22:00:00Z"`)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockStockService{
			getFn: func(ctx context.Context, id uint64) (*model.Stock, error) { return nil, repository.ErrStockNotFound },
		}
		c, rec := newRequest(http.MethodGet, "/v1/stocks/99", "")
		withParam(c, "id", "99")

		require.NoError(t, NewStockHandler(svc).GetStock(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unexpected error is returned", func(t *testing.T) {
		svc := &mockStockService{
			getFn: func(ctx context.Context, id uint64) (*model.Stock, error) { return nil, errors.New("db down") },
		}
		c, _ := newRequest(http.MethodGet, "/v1/stocks/1", "")
		withParam(c, "id", "1")

		assert.EqualError(t, NewStockHandler(svc).GetStock(c), "db down")
	})
}

func TestListOfferStocks_Handler(t *testing.T) {
	svc := &mockStockService{
		listFn: func(ctx context.Context, offerID uint64) ([]model.Stock, error) { return []model.Stock{}, nil },
	}
	c, rec := newRequest(http.MethodGet, "/v1/offers/3/stocks", "")
	withParam(c, "offer_id", "3")

	require.NoError(t, NewStockHandler(svc).ListOfferStocks(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestDeleteStock_Handler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"booked", repository.ErrConflict, http.StatusConflict},
		{"missing", repository.ErrStockNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStockService{
				deleteFn: func(ctx context.Context, id uint64) error { return tt.err },
			}
			c, rec := newRequest(http.MethodDelete, "/v1/stocks/11", "")
			withParam(c, "id", "11")

			require.NoError(t, NewStockHandler(svc).DeleteStock(c))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestTimezoneHandlers(t *testing.T) {
	c, rec := newRequest(http.MethodGet, "/v1/timezones/departments/973", "")
	withParam(c, "code", "973")
	require.NoError(t, DepartmentTimezone(c))
	assert.JSONEq(t, `{"department_code":"973","timezone":"America/Cayenne","known":true}`, rec.Body.String())

	c, rec = newRequest(http.MethodGet, "/v1/timezones/postal-codes/98800", "")
	withParam(c, "code", "98800")
	require.NoError(t, PostalCodeTimezone(c))
	assert.JSONEq(t, `{"postal_code":"98800","timezone":"Pacific/Noumea"}`, rec.Body.String())

	c, rec = newRequest(http.MethodGet, "/v1/timezones/departments/2A", "")
	withParam(c, "code", "2A")
	require.NoError(t, DepartmentTimezone(c))
	assert.JSONEq(t, `{"department_code":"2A","timezone":"Europe/Paris","known":false}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	c, rec := newRequest(http.MethodGet, "/healthz", "")
	require.NoError(t, Health(c))
	assert.Equal(t, "ok", rec.Body.String())
}
