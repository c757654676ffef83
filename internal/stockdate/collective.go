package stockdate

import (
	"fmt"
	"strings"

	"github.com/iliyamo/stock-scheduler/internal/model"
	"github.com/iliyamo/stock-scheduler/internal/timezone"
)

// CollectiveStockInput holds the values of an educational (EAC) stock form.
type CollectiveStockInput struct {
	EventDate       *LocalDate
	EventTime       *LocalTime
	BookingLimit    *LocalDate
	NumberOfPlaces  *uint32
	TotalPriceCents *uint32
	PriceDetail     string
	DepartmentCode  string
}

// CollectiveStockPayload is the body sent when creating an educational stock.
type CollectiveStockPayload struct {
	StockPayload
	TotalPriceCents        uint32 `json:"totalPriceCents"`
	NumberOfTickets        uint32 `json:"numberOfTickets"`
	EducationalPriceDetail string `json:"educationalPriceDetail,omitempty"`
}

// BuildCollectiveStockPayload validates an educational stock form and
// computes its payload.  Every missing required value is reported in a single
// *InvalidInputError.
func BuildCollectiveStockPayload(in CollectiveStockInput) (CollectiveStockPayload, error) {
	var missing []string
	if in.EventDate == nil {
		missing = append(missing, "eventDate")
	}
	if in.EventTime == nil {
		missing = append(missing, "eventTime")
	}
	if in.NumberOfPlaces == nil {
		missing = append(missing, "numberOfPlaces")
	}
	if in.TotalPriceCents == nil {
		missing = append(missing, "totalPrice")
	}
	if len(missing) > 0 {
		return CollectiveStockPayload{}, missingValues(missing...)
	}
	p, err := BuildStockPayload(StockInput{
		EventDate:      in.EventDate,
		EventTime:      in.EventTime,
		BookingLimit:   in.BookingLimit,
		DepartmentCode: in.DepartmentCode,
	})
	if err != nil {
		return CollectiveStockPayload{}, err
	}
	return CollectiveStockPayload{
		StockPayload:           p,
		TotalPriceCents:        *in.TotalPriceCents,
		NumberOfTickets:        *in.NumberOfPlaces,
		EducationalPriceDetail: strings.TrimSpace(in.PriceDetail),
	}, nil
}

// CollectiveStockFormValues are the local values shown in an educational
// stock form.  Nil pointers are empty fields.
type CollectiveStockFormValues struct {
	EventDate       *LocalDate `json:"eventDate"`
	EventTime       *LocalTime `json:"eventTime"`
	BookingLimit    *LocalDate `json:"bookingLimitDatetime"`
	NumberOfPlaces  *uint32    `json:"numberOfPlaces"`
	TotalPriceCents *uint32    `json:"totalPrice"`
	PriceDetail     string     `json:"priceDetail"`
}

// Input turns form values into a creation input for the given department.
func (v CollectiveStockFormValues) Input(departmentCode string) CollectiveStockInput {
	return CollectiveStockInput{
		EventDate:       v.EventDate,
		EventTime:       v.EventTime,
		BookingLimit:    v.BookingLimit,
		NumberOfPlaces:  v.NumberOfPlaces,
		TotalPriceCents: v.TotalPriceCents,
		PriceDetail:     v.PriceDetail,
		DepartmentCode:  departmentCode,
	}
}

func (v CollectiveStockFormValues) clone() CollectiveStockFormValues {
	out := CollectiveStockFormValues{PriceDetail: v.PriceDetail}
	if v.EventDate != nil {
		d := *v.EventDate
		out.EventDate = &d
	}
	if v.EventTime != nil {
		t := *v.EventTime
		out.EventTime = &t
	}
	if v.BookingLimit != nil {
		d := *v.BookingLimit
		out.BookingLimit = &d
	}
	if v.NumberOfPlaces != nil {
		n := *v.NumberOfPlaces
		out.NumberOfPlaces = &n
	}
	if v.TotalPriceCents != nil {
		p := *v.TotalPriceCents
		out.TotalPriceCents = &p
	}
	return out
}

// CollectiveStockFormDefaults holds the values of an empty educational stock
// form.  It is read only: Values hands out a fresh copy each time.
type CollectiveStockFormDefaults struct {
	values CollectiveStockFormValues
}

// DefaultsOption customizes the defaults built by NewCollectiveStockFormDefaults.
type DefaultsOption func(*CollectiveStockFormValues)

// WithDefaultPriceDetail pre-fills the price detail field.
func WithDefaultPriceDetail(detail string) DefaultsOption {
	return func(v *CollectiveStockFormValues) { v.PriceDetail = detail }
}

// WithDefaultNumberOfPlaces pre-fills the number of places.
func WithDefaultNumberOfPlaces(n uint32) DefaultsOption {
	return func(v *CollectiveStockFormValues) { v.NumberOfPlaces = &n }
}

// NewCollectiveStockFormDefaults returns the defaults of an empty form: every
// field empty unless an option sets it.
func NewCollectiveStockFormDefaults(opts ...DefaultsOption) CollectiveStockFormDefaults {
	var v CollectiveStockFormValues
	for _, opt := range opts {
		opt(&v)
	}
	return CollectiveStockFormDefaults{values: v}
}

// Values returns a copy of the default form values.
func (d CollectiveStockFormDefaults) Values() CollectiveStockFormValues {
	return d.values.clone()
}

// InitialCollectiveStockFormValues pre-fills an educational stock form.  With
// no stored stock it returns the defaults; otherwise the stored UTC datetimes
// are converted back to the department's local date and time.  A booking
// limit equal to the beginning is shown as the event date.
func InitialCollectiveStockFormValues(stock *model.Stock, defaults CollectiveStockFormDefaults, departmentCode string) CollectiveStockFormValues {
	if stock == nil {
		return defaults.Values()
	}
	code := departmentCode
	if code == "" {
		code = stock.DepartmentCode
	}
	beginning := timezone.UTCToLocal(stock.BeginningDatetime, code)
	limit := timezone.UTCToLocal(stock.BookingLimitDatetime, code)
	date := DateOf(beginning)
	tod := TimeOf(beginning)
	limitDate := DateOf(limit)
	price := stock.PriceCents

	v := CollectiveStockFormValues{
		EventDate:       &date,
		EventTime:       &tod,
		BookingLimit:    &limitDate,
		TotalPriceCents: &price,
	}
	if stock.NumberOfTickets != nil {
		n := *stock.NumberOfTickets
		v.NumberOfPlaces = &n
	}
	if stock.EducationalPriceDetail != nil {
		v.PriceDetail = *stock.EducationalPriceDetail
	}
	return v
}

// StockField identifies an editable field of an educational stock form.
type StockField int

const (
	FieldEventDate StockField = iota
	FieldEventTime
	FieldBookingLimit
	FieldTotalPrice
	FieldNumberOfPlaces
	FieldPriceDetail
)

var stockFieldNames = [...]string{
	FieldEventDate:      "eventDate",
	FieldEventTime:      "eventTime",
	FieldBookingLimit:   "bookingLimitDatetime",
	FieldTotalPrice:     "totalPrice",
	FieldNumberOfPlaces: "numberOfPlaces",
	FieldPriceDetail:    "priceDetail",
}

func (f StockField) String() string {
	if f < 0 || int(f) >= len(stockFieldNames) {
		return fmt.Sprintf("StockField(%d)", int(f))
	}
	return stockFieldNames[f]
}

// ParseStockField maps a form field name to its StockField.
func ParseStockField(name string) (StockField, error) {
	for i, n := range stockFieldNames {
		if n == name {
			return StockField(i), nil
		}
	}
	return 0, invalidValue(name, "unknown stock field")
}

// PatchStockPayload carries only the stock attributes touched by an edit.
type PatchStockPayload struct {
	BeginningDatetime      *string `json:"beginningDatetime,omitempty"`
	BookingLimitDatetime   *string `json:"bookingLimitDatetime,omitempty"`
	TotalPriceCents        *uint32 `json:"totalPriceCents,omitempty"`
	NumberOfTickets        *uint32 `json:"numberOfTickets,omitempty"`
	EducationalPriceDetail *string `json:"educationalPriceDetail,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PatchStockPayload) IsEmpty() bool {
	return p == PatchStockPayload{}
}

// BuildPatchStockPayload serializes the changed fields of an educational stock
// form.  values must hold the whole form, since a change to the event date or
// time recomputes the beginning from both, and a booking limit change is
// resolved against the event datetime.  A nil booking limit resets it to the
// beginning.  When the event moves and the limit is left alone, a limit on
// the new event day follows the beginning.
func BuildPatchStockPayload(values CollectiveStockFormValues, changed []StockField, departmentCode string) (PatchStockPayload, error) {
	limitChanged := false
	for _, f := range changed {
		if f == FieldBookingLimit {
			limitChanged = true
		}
	}

	var out PatchStockPayload
	for _, f := range changed {
		switch f {
		case FieldEventDate, FieldEventTime:
			beginning, _, err := ResolveStockDatetimes(StockInput{
				EventDate:      values.EventDate,
				EventTime:      values.EventTime,
				DepartmentCode: departmentCode,
			})
			if err != nil {
				return PatchStockPayload{}, err
			}
			s := FormatUTC(beginning)
			out.BeginningDatetime = &s
			event := CombineLocalDateAndTime(*values.EventDate, *values.EventTime)
			if !limitChanged && ResolveBookingLimit(values.BookingLimit, event).SameDay(event) {
				l := s
				out.BookingLimitDatetime = &l
			}
		case FieldBookingLimit:
			_, limit, err := ResolveStockDatetimes(StockInput{
				EventDate:      values.EventDate,
				EventTime:      values.EventTime,
				BookingLimit:   values.BookingLimit,
				DepartmentCode: departmentCode,
			})
			if err != nil {
				return PatchStockPayload{}, err
			}
			s := FormatUTC(limit)
			out.BookingLimitDatetime = &s
		case FieldTotalPrice:
			if values.TotalPriceCents == nil {
				return PatchStockPayload{}, missingValues("totalPrice")
			}
			p := *values.TotalPriceCents
			out.TotalPriceCents = &p
		case FieldNumberOfPlaces:
			if values.NumberOfPlaces == nil {
				return PatchStockPayload{}, missingValues("numberOfPlaces")
			}
			n := *values.NumberOfPlaces
			out.NumberOfTickets = &n
		case FieldPriceDetail:
			d := strings.TrimSpace(values.PriceDetail)
			out.EducationalPriceDetail = &d
		default:
			return PatchStockPayload{}, invalidValue(f.String(), "unknown stock field")
		}
	}
	return out, nil
}
