package model

import "time"

// Stock is a bookable quantity, price and time window attached to an offer.
// Datetimes are stored in UTC; DepartmentCode is kept so edits convert back to
// the venue's local time with the same zone that produced them.
//
// Fields:
//
//	ID                     - primary key identifier.
//	OfferID                - offer the stock belongs to.
//	DepartmentCode         - venue department used for timezone lookup.
//	BeginningDatetime      - when the event starts (UTC).
//	BookingLimitDatetime   - last instant a booking is accepted (UTC).
//	PriceCents             - price in cents (total price for educational stocks).
//	Quantity               - number of places, nil when unlimited.
//	NumberOfTickets        - participants covered by an educational stock.
//	EducationalPriceDetail - free-text price breakdown for schools.
//	BookingsQuantity       - bookings already taken on the stock.
//	CreatedAt              - creation timestamp.
//	UpdatedAt              - last update timestamp.
type Stock struct {
	ID                     uint64    `json:"id"`                                 // stocks.id
	OfferID                uint64    `json:"offer_id"`                           // stocks.offer_id
	DepartmentCode         string    `json:"department_code"`                    // stocks.department_code
	BeginningDatetime      time.Time `json:"beginning_datetime"`                 // stocks.beginning_datetime
	BookingLimitDatetime   time.Time `json:"booking_limit_datetime"`             // stocks.booking_limit_datetime
	PriceCents             uint32    `json:"price_cents"`                        // stocks.price_cents
	Quantity               *uint32   `json:"quantity"`                           // stocks.quantity
	NumberOfTickets        *uint32   `json:"number_of_tickets,omitempty"`        // stocks.number_of_tickets
	EducationalPriceDetail *string   `json:"educational_price_detail,omitempty"` // stocks.educational_price_detail
	BookingsQuantity       uint32    `json:"bookings_quantity"`                  // stocks.bookings_quantity
	CreatedAt              time.Time `json:"created_at"`                         // stocks.created_at
	UpdatedAt              time.Time `json:"updated_at"`                         // stocks.updated_at
}

// IsEducational reports whether the stock was created by the collective flow.
func (s *Stock) IsEducational() bool {
	return s.NumberOfTickets != nil
}

// IsDeletable reports whether no booking references the stock yet.
func (s *Stock) IsDeletable() bool {
	return s.BookingsQuantity == 0
}
