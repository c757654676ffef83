package stockdate

import (
	"time"

	"github.com/iliyamo/stock-scheduler/internal/timezone"
)

// StockInput carries the values entered for one event stock.  EventDate and
// EventTime are required; a nil BookingLimit means the venue did not pick a
// booking limit and the stock closes when the event starts.
type StockInput struct {
	EventDate      *LocalDate
	EventTime      *LocalTime
	BookingLimit   *LocalDate
	DepartmentCode string
}

// StockPayload is the pair of UTC datetimes sent to persistence.
type StockPayload struct {
	BeginningDatetime    string `json:"beginningDatetime"`
	BookingLimitDatetime string `json:"bookingLimitDatetime"`
}

// CombineLocalDateAndTime joins a date and a time of day into a naive
// datetime with seconds set to zero.
func CombineLocalDateAndTime(date LocalDate, t LocalTime) LocalDateTime {
	return LocalDateTime{Date: date, Hour: t.Hour, Minute: t.Minute}
}

// ResolveBookingLimit applies the booking limit policy against the event's
// local start.  Without a limit, or with a limit on the event's own day, the
// stock closes exactly at the event start.  Any other day closes at 23:59:59
// local time on that day.
func ResolveBookingLimit(limit *LocalDate, event LocalDateTime) LocalDateTime {
	if limit == nil || *limit == event.Date {
		return event
	}
	return LocalDateTime{Date: *limit, Hour: 23, Minute: 59, Second: 59}
}

// ConvertLocalToUTC interprets dt as wall-clock time in the department's
// timezone and returns the UTC instant.  Empty or unknown department codes use
// Europe/Paris.
func ConvertLocalToUTC(dt LocalDateTime, departmentCode string) time.Time {
	return dt.In(timezone.DepartmentLocation(departmentCode)).UTC()
}

// FormatUTC renders t in UTC at second precision, e.g. 2020-12-20T22:00:00Z.
func FormatUTC(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(PayloadLayout)
}

// ResolveStockDatetimes returns the UTC beginning and booking limit instants
// for in.  It fails with an *InvalidInputError when the event date or time is
// missing, or when the booking limit falls after the event's day.
func ResolveStockDatetimes(in StockInput) (beginning, bookingLimit time.Time, err error) {
	var missing []string
	if in.EventDate == nil {
		missing = append(missing, "eventDate")
	}
	if in.EventTime == nil {
		missing = append(missing, "eventTime")
	}
	if len(missing) > 0 {
		return time.Time{}, time.Time{}, missingValues(missing...)
	}
	event := CombineLocalDateAndTime(*in.EventDate, *in.EventTime)
	if in.BookingLimit != nil && in.BookingLimit.After(event.Date) {
		return time.Time{}, time.Time{}, invalidValue("bookingLimitDatetime", "booking limit must not be after the event date")
	}
	limit := ResolveBookingLimit(in.BookingLimit, event)
	return ConvertLocalToUTC(event, in.DepartmentCode), ConvertLocalToUTC(limit, in.DepartmentCode), nil
}

// BuildStockPayload computes the persisted datetimes of an event stock.  No
// partial payload is returned on error.
func BuildStockPayload(in StockInput) (StockPayload, error) {
	beginning, limit, err := ResolveStockDatetimes(in)
	if err != nil {
		return StockPayload{}, err
	}
	return StockPayload{
		BeginningDatetime:    FormatUTC(beginning),
		BookingLimitDatetime: FormatUTC(limit),
	}, nil
}

// EventStockInput extends StockInput with the priced quantity of an
// individual (non-educational) event stock.
type EventStockInput struct {
	StockInput
	PriceCents *uint32
	Quantity   *uint32
}

// EventStockPayload is the full body of an individual event stock.  Quantity
// is nil for an unlimited stock.
type EventStockPayload struct {
	StockPayload
	PriceCents uint32  `json:"priceCents"`
	Quantity   *uint32 `json:"quantity"`
}

// BuildEventStockPayload builds the payload of an individual event stock.
// A missing price is sent as 0.
func BuildEventStockPayload(in EventStockInput) (EventStockPayload, error) {
	p, err := BuildStockPayload(in.StockInput)
	if err != nil {
		return EventStockPayload{}, err
	}
	out := EventStockPayload{StockPayload: p}
	if in.PriceCents != nil {
		out.PriceCents = *in.PriceCents
	}
	if in.Quantity != nil {
		q := *in.Quantity
		out.Quantity = &q
	}
	return out, nil
}
