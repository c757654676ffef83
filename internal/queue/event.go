// Package queue defines message payloads exchanged over the message broker.
package queue

// Kinds of stock events.
const (
	StockCreated = "created"
	StockUpdated = "updated"
	StockDeleted = "deleted"
)

// StockQueueName is the durable queue carrying StockSavedEvent messages.
const StockQueueName = "stock.saved"

// StockSavedEvent is published after a stock is created, edited or deleted.
// Datetimes are the persisted UTC values formatted as 2006-01-02T15:04:05Z so
// downstream consumers never have to know the venue's timezone.
type StockSavedEvent struct {
	EventID              string  `json:"event_id"`
	Kind                 string  `json:"kind"`
	StockID              uint64  `json:"stock_id"`
	OfferID              uint64  `json:"offer_id"`
	DepartmentCode       string  `json:"department_code"`
	BeginningDatetime    string  `json:"beginning_datetime"`
	BookingLimitDatetime string  `json:"booking_limit_datetime"`
	PriceCents           uint32  `json:"price_cents"`
	Quantity             *uint32 `json:"quantity"`
	OccurredAt           string  `json:"occurred_at"`
}
