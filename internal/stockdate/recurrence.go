package stockdate

import (
	"sort"
	"time"
)

// MaxRecurrenceStocks caps how many stocks a single recurrence may create.
const MaxRecurrenceStocks = 500

// RecurrenceKind selects how event dates repeat between StartDate and EndDate.
type RecurrenceKind string

const (
	RecurrenceUnique  RecurrenceKind = "UNIQUE"
	RecurrenceDaily   RecurrenceKind = "DAILY"
	RecurrenceWeekly  RecurrenceKind = "WEEKLY"
	RecurrenceMonthly RecurrenceKind = "MONTHLY"
)

// RecurrenceRule describes a batch of event stocks: every matching date is
// combined with every time in Beginnings.
//
// BookingLimitDaysBefore, when set, closes bookings that many days before
// each event (0 closes at the event start).  Monthly rules repeat on the start
// date's day of month and skip months that do not have that day.
type RecurrenceRule struct {
	Kind                   RecurrenceKind
	StartDate              LocalDate
	EndDate                *LocalDate
	Weekdays               []time.Weekday
	Beginnings             []LocalTime
	BookingLimitDaysBefore *int
	PriceCents             *uint32
	Quantity               *uint32
}

// Dates lists the local event dates matched by the rule in ascending order.
func (r RecurrenceRule) Dates() ([]LocalDate, error) {
	if r.StartDate.IsZero() {
		return nil, missingValues("startingDate")
	}
	if r.Kind == RecurrenceUnique || r.Kind == "" {
		return []LocalDate{r.StartDate}, nil
	}
	if r.EndDate == nil {
		return nil, missingValues("endingDate")
	}
	end := *r.EndDate
	if end.Before(r.StartDate) {
		return nil, invalidValue("endingDate", "ending date must not be before starting date")
	}

	var match func(LocalDate) bool
	switch r.Kind {
	case RecurrenceDaily:
		match = func(LocalDate) bool { return true }
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return nil, missingValues("days")
		}
		days := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			days[wd] = true
		}
		match = func(d LocalDate) bool { return days[d.Weekday()] }
	case RecurrenceMonthly:
		dom := r.StartDate.Day
		match = func(d LocalDate) bool { return d.Day == dom }
	default:
		return nil, invalidValue("recurrenceType", "unknown recurrence type")
	}

	var out []LocalDate
	for d := r.StartDate; !d.After(end); d = d.AddDays(1) {
		if match(d) {
			out = append(out, d)
		}
		if len(out) > MaxRecurrenceStocks {
			break // already too many, ExpandRecurrence rejects it
		}
	}
	return out, nil
}

// ExpandRecurrence builds one event stock payload per (date, time) pair of the
// rule, ordered by beginning.
func ExpandRecurrence(rule RecurrenceRule, departmentCode string) ([]EventStockPayload, error) {
	if len(rule.Beginnings) == 0 {
		return nil, missingValues("beginningTimes")
	}
	if rule.BookingLimitDaysBefore != nil && *rule.BookingLimitDaysBefore < 0 {
		return nil, invalidValue("bookingLimitDateInterval", "interval must not be negative")
	}
	dates, err := rule.Dates()
	if err != nil {
		return nil, err
	}
	if len(dates)*len(rule.Beginnings) > MaxRecurrenceStocks {
		return nil, invalidValue("recurrence", "too many stocks for a single recurrence")
	}

	type planned struct {
		at      time.Time
		payload EventStockPayload
	}
	plan := make([]planned, 0, len(dates)*len(rule.Beginnings))
	for _, d := range dates {
		date := d
		var limit *LocalDate
		if rule.BookingLimitDaysBefore != nil {
			l := date.AddDays(-*rule.BookingLimitDaysBefore)
			limit = &l
		}
		for _, b := range rule.Beginnings {
			tod := b
			in := EventStockInput{
				StockInput: StockInput{
					EventDate:      &date,
					EventTime:      &tod,
					BookingLimit:   limit,
					DepartmentCode: departmentCode,
				},
				PriceCents: rule.PriceCents,
				Quantity:   rule.Quantity,
			}
			p, err := BuildEventStockPayload(in)
			if err != nil {
				return nil, err
			}
			plan = append(plan, planned{
				at:      ConvertLocalToUTC(CombineLocalDateAndTime(date, tod), departmentCode),
				payload: p,
			})
		}
	}
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].at.Before(plan[j].at) })

	out := make([]EventStockPayload, len(plan))
	for i, p := range plan {
		out[i] = p.payload
	}
	return out, nil
}
