// Package service orchestrates stock payload computation, persistence and
// event publishing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stock-scheduler/internal/clock"
	"github.com/iliyamo/stock-scheduler/internal/model"
	q "github.com/iliyamo/stock-scheduler/internal/queue"
	"github.com/iliyamo/stock-scheduler/internal/repository"
	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

// ErrNotEducational is returned when a collective-only operation targets an
// individual event stock.
var ErrNotEducational = errors.New("stock is not educational")

// StockStore is the persistence the service needs; *repository.StockRepo
// implements it.
type StockStore interface {
	Create(ctx context.Context, s *model.Stock) error
	CreateBulk(ctx context.Context, stocks []*model.Stock) error
	GetByID(ctx context.Context, id uint64) (*model.Stock, error)
	ListByOffer(ctx context.Context, offerID uint64) ([]model.Stock, error)
	Update(ctx context.Context, s *model.Stock) error
	Delete(ctx context.Context, id uint64) error
}

// StockService is the application API used by the HTTP handlers.
type StockService interface {
	Preview(in stockdate.EventStockInput) (stockdate.EventStockPayload, error)
	CreateEventStock(ctx context.Context, offerID uint64, in stockdate.EventStockInput) (*model.Stock, error)
	CreateRecurrence(ctx context.Context, offerID uint64, rule stockdate.RecurrenceRule, departmentCode string) ([]*model.Stock, error)
	CreateCollectiveStock(ctx context.Context, offerID uint64, in stockdate.CollectiveStockInput) (*model.Stock, error)
	PatchCollectiveStock(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error)
	CollectiveFormValues(ctx context.Context, id uint64) (stockdate.CollectiveStockFormValues, error)
	GetStock(ctx context.Context, id uint64) (*model.Stock, error)
	ListOfferStocks(ctx context.Context, offerID uint64) ([]model.Stock, error)
	DeleteStock(ctx context.Context, id uint64) error
}

type stockService struct {
	store     StockStore
	publisher EventPublisher
	clock     clock.Clock
	defaults  stockdate.CollectiveStockFormDefaults
}

// Option configures the service built by NewStockService.
type Option func(*stockService)

// WithClock overrides the system clock used to compute the venue's today.
func WithClock(c clock.Clock) Option {
	return func(s *stockService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithFormDefaults sets the values of an empty educational stock form.
func WithFormDefaults(d stockdate.CollectiveStockFormDefaults) Option {
	return func(s *stockService) { s.defaults = d }
}

// NewStockService builds the service.  publisher may be nil, in which case no
// event is sent.
func NewStockService(store StockStore, publisher EventPublisher, opts ...Option) StockService {
	s := &stockService{
		store:     store,
		publisher: publisher,
		clock:     clock.NewSystem(),
		defaults:  stockdate.NewCollectiveStockFormDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *stockService) Preview(in stockdate.EventStockInput) (stockdate.EventStockPayload, error) {
	return stockdate.BuildEventStockPayload(in)
}

// checkNotPast rejects event dates before the venue's current local date.
func (s *stockService) checkNotPast(date *stockdate.LocalDate, departmentCode string) error {
	if date == nil {
		return nil
	}
	if date.Before(stockdate.TodayIn(s.clock.Now(), departmentCode)) {
		return &stockdate.InvalidInputError{Fields: []string{"eventDate"}, Reason: "event date must not be in the past"}
	}
	return nil
}

func (s *stockService) CreateEventStock(ctx context.Context, offerID uint64, in stockdate.EventStockInput) (*model.Stock, error) {
	p, err := stockdate.BuildEventStockPayload(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotPast(in.EventDate, in.DepartmentCode); err != nil {
		return nil, err
	}
	stock, err := eventStockFromPayload(offerID, in.DepartmentCode, p)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("create stock: %w", err)
	}
	s.publish(ctx, q.StockCreated, stock)
	return stock, nil
}

func (s *stockService) CreateRecurrence(ctx context.Context, offerID uint64, rule stockdate.RecurrenceRule, departmentCode string) ([]*model.Stock, error) {
	if err := s.checkNotPast(&rule.StartDate, departmentCode); err != nil {
		return nil, err
	}
	payloads, err := stockdate.ExpandRecurrence(rule, departmentCode)
	if err != nil {
		return nil, err
	}
	stocks := make([]*model.Stock, 0, len(payloads))
	for _, p := range payloads {
		st, err := eventStockFromPayload(offerID, departmentCode, p)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, st)
	}
	if err := s.store.CreateBulk(ctx, stocks); err != nil {
		return nil, fmt.Errorf("create recurrence stocks: %w", err)
	}
	for _, st := range stocks {
		s.publish(ctx, q.StockCreated, st)
	}
	return stocks, nil
}

func (s *stockService) CreateCollectiveStock(ctx context.Context, offerID uint64, in stockdate.CollectiveStockInput) (*model.Stock, error) {
	p, err := stockdate.BuildCollectiveStockPayload(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotPast(in.EventDate, in.DepartmentCode); err != nil {
		return nil, err
	}
	beginning, limit, err := parsePayloadTimes(p.StockPayload)
	if err != nil {
		return nil, err
	}
	tickets := p.NumberOfTickets
	one := uint32(1)
	stock := &model.Stock{
		OfferID:              offerID,
		DepartmentCode:       in.DepartmentCode,
		BeginningDatetime:    beginning,
		BookingLimitDatetime: limit,
		PriceCents:           p.TotalPriceCents,
		Quantity:             &one, // an educational stock is booked once, by one school
		NumberOfTickets:      &tickets,
	}
	if p.EducationalPriceDetail != "" {
		detail := p.EducationalPriceDetail
		stock.EducationalPriceDetail = &detail
	}
	if err := s.store.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("create collective stock: %w", err)
	}
	s.publish(ctx, q.StockCreated, stock)
	return stock, nil
}

func (s *stockService) PatchCollectiveStock(ctx context.Context, id uint64, values stockdate.CollectiveStockFormValues, changed []stockdate.StockField) (*model.Stock, error) {
	stock, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stock.IsEducational() {
		return nil, ErrNotEducational
	}
	current := stockdate.InitialCollectiveStockFormValues(stock, s.defaults, stock.DepartmentCode)
	merged := mergeFormValues(current, values, changed)
	patch, err := stockdate.BuildPatchStockPayload(merged, changed, stock.DepartmentCode)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return stock, nil
	}
	if err := applyPatch(stock, patch); err != nil {
		return nil, err
	}
	if stock.BookingLimitDatetime.After(stock.BeginningDatetime) {
		return nil, &stockdate.InvalidInputError{Fields: []string{"bookingLimitDatetime"}, Reason: "booking limit must not be after the event date"}
	}
	if err := s.store.Update(ctx, stock); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return stock, nil
		}
		return nil, fmt.Errorf("update collective stock: %w", err)
	}
	s.publish(ctx, q.StockUpdated, stock)
	return stock, nil
}

func (s *stockService) CollectiveFormValues(ctx context.Context, id uint64) (stockdate.CollectiveStockFormValues, error) {
	if id == 0 {
		return s.defaults.Values(), nil
	}
	stock, err := s.store.GetByID(ctx, id)
	if err != nil {
		return stockdate.CollectiveStockFormValues{}, err
	}
	if !stock.IsEducational() {
		return stockdate.CollectiveStockFormValues{}, ErrNotEducational
	}
	return stockdate.InitialCollectiveStockFormValues(stock, s.defaults, stock.DepartmentCode), nil
}

func (s *stockService) GetStock(ctx context.Context, id uint64) (*model.Stock, error) {
	return s.store.GetByID(ctx, id)
}

func (s *stockService) ListOfferStocks(ctx context.Context, offerID uint64) ([]model.Stock, error) {
	return s.store.ListByOffer(ctx, offerID)
}

func (s *stockService) DeleteStock(ctx context.Context, id uint64) error {
	stock, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !stock.IsDeletable() {
		return repository.ErrConflict
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, q.StockDeleted, stock)
	return nil
}

// publish sends a stock event; failures are logged, never returned.
func (s *stockService) publish(ctx context.Context, kind string, st *model.Stock) {
	if s.publisher == nil {
		return
	}
	ev := q.StockSavedEvent{
		EventID:              uuid.NewString(),
		Kind:                 kind,
		StockID:              st.ID,
		OfferID:              st.OfferID,
		DepartmentCode:       st.DepartmentCode,
		BeginningDatetime:    stockdate.FormatUTC(st.BeginningDatetime),
		BookingLimitDatetime: stockdate.FormatUTC(st.BookingLimitDatetime),
		PriceCents:           st.PriceCents,
		Quantity:             st.Quantity,
		OccurredAt:           stockdate.FormatUTC(s.clock.Now()),
	}
	if err := s.publisher.PublishStockSaved(ctx, ev); err != nil {
		log.Printf("stock-service: publish %s event for stock %d failed: %v", kind, st.ID, err)
	}
}

func eventStockFromPayload(offerID uint64, departmentCode string, p stockdate.EventStockPayload) (*model.Stock, error) {
	beginning, limit, err := parsePayloadTimes(p.StockPayload)
	if err != nil {
		return nil, err
	}
	return &model.Stock{
		OfferID:              offerID,
		DepartmentCode:       departmentCode,
		BeginningDatetime:    beginning,
		BookingLimitDatetime: limit,
		PriceCents:           p.PriceCents,
		Quantity:             p.Quantity,
	}, nil
}

func parsePayloadTimes(p stockdate.StockPayload) (beginning, limit time.Time, err error) {
	if beginning, err = time.Parse(stockdate.PayloadLayout, p.BeginningDatetime); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse beginning: %w", err)
	}
	if limit, err = time.Parse(stockdate.PayloadLayout, p.BookingLimitDatetime); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse booking limit: %w", err)
	}
	return beginning, limit, nil
}

// mergeFormValues overlays the changed fields of req onto the stored values.
func mergeFormValues(cur, req stockdate.CollectiveStockFormValues, changed []stockdate.StockField) stockdate.CollectiveStockFormValues {
	out := cur
	for _, f := range changed {
		switch f {
		case stockdate.FieldEventDate:
			out.EventDate = req.EventDate
		case stockdate.FieldEventTime:
			out.EventTime = req.EventTime
		case stockdate.FieldBookingLimit:
			out.BookingLimit = req.BookingLimit
		case stockdate.FieldTotalPrice:
			out.TotalPriceCents = req.TotalPriceCents
		case stockdate.FieldNumberOfPlaces:
			out.NumberOfPlaces = req.NumberOfPlaces
		case stockdate.FieldPriceDetail:
			out.PriceDetail = req.PriceDetail
		}
	}
	return out
}

func applyPatch(st *model.Stock, p stockdate.PatchStockPayload) error {
	if p.BeginningDatetime != nil {
		t, err := time.Parse(stockdate.PayloadLayout, *p.BeginningDatetime)
		if err != nil {
			return fmt.Errorf("parse beginning: %w", err)
		}
		st.BeginningDatetime = t
	}
	if p.BookingLimitDatetime != nil {
		t, err := time.Parse(stockdate.PayloadLayout, *p.BookingLimitDatetime)
		if err != nil {
			return fmt.Errorf("parse booking limit: %w", err)
		}
		st.BookingLimitDatetime = t
	}
	if p.TotalPriceCents != nil {
		st.PriceCents = *p.TotalPriceCents
	}
	if p.NumberOfTickets != nil {
		n := *p.NumberOfTickets
		st.NumberOfTickets = &n
	}
	if p.EducationalPriceDetail != nil {
		if *p.EducationalPriceDetail == "" {
			st.EducationalPriceDetail = nil
		} else {
			d := *p.EducationalPriceDetail
			st.EducationalPriceDetail = &d
		}
	}
	return nil
}
