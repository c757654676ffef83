// Package repository contains data access logic for stocks.  A stock is a
// bookable quantity, price and time window attached to an offer.  Datetimes
// are written as UTC "2006-01-02 15:04:05" values; the connection is opened
// with parseTime=true&loc=UTC so they scan back into UTC time.Time.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions
	"time"         // time formats datetimes for the DB

	"github.com/iliyamo/stock-scheduler/internal/model"
)

// dbTimeLayout is the DATETIME format used for every stored instant.
const dbTimeLayout = "2006-01-02 15:04:05"

// ErrStockNotFound indicates that a stock was not located in the DB.
var ErrStockNotFound = errors.New("stock not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")

const stockColumns = `id, offer_id, department_code, beginning_datetime, booking_limit_datetime, price_cents,
       quantity, number_of_tickets, educational_price_detail, bookings_quantity, created_at, updated_at`

// StockRepo manages persistence for stocks.
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo constructs a StockRepo with the given DB handle.
func NewStockRepo(db *sql.DB) *StockRepo {
	return &StockRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(row rowScanner) (*model.Stock, error) {
	var (
		s        model.Stock
		quantity sql.NullInt64
		tickets  sql.NullInt64
		detail   sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.OfferID, &s.DepartmentCode, &s.BeginningDatetime, &s.BookingLimitDatetime, &s.PriceCents,
		&quantity, &tickets, &detail, &s.BookingsQuantity, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if quantity.Valid {
		q := uint32(quantity.Int64)
		s.Quantity = &q
	}
	if tickets.Valid {
		n := uint32(tickets.Int64)
		s.NumberOfTickets = &n
	}
	if detail.Valid {
		d := detail.String
		s.EducationalPriceDetail = &d
	}
	s.BeginningDatetime = s.BeginningDatetime.UTC()
	s.BookingLimitDatetime = s.BookingLimitDatetime.UTC()
	return &s, nil
}

func nullUint32(v *uint32) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func dbTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert writes s using q (the DB or a transaction) and reloads DB defaults.
func insert(ctx context.Context, q execQuerier, s *model.Stock) error {
	const ins = `INSERT INTO stocks (offer_id, department_code, beginning_datetime, booking_limit_datetime, price_cents,
                 quantity, number_of_tickets, educational_price_detail) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins,
		s.OfferID, s.DepartmentCode, dbTime(s.BeginningDatetime), dbTime(s.BookingLimitDatetime), s.PriceCents,
		nullUint32(s.Quantity), nullUint32(s.NumberOfTickets), nullString(s.EducationalPriceDetail),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId() // obtain the auto-incremented ID
	if err != nil {
		return err
	}
	// Fetch the freshly inserted row to populate default fields (bookings_quantity, created_at, updated_at)
	fresh, err := scanStock(q.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Create inserts a new stock and populates its ID and DB-default fields.
func (r *StockRepo) Create(ctx context.Context, s *model.Stock) error {
	return insert(ctx, r.db, s)
}

// CreateBulk inserts every stock inside one transaction so a recurrence is
// either stored entirely or not at all.
func (r *StockRepo) CreateBulk(ctx context.Context, stocks []*model.Stock) (err error) {
	if len(stocks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	for _, s := range stocks {
		if err = insert(ctx, tx, s); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a stock by its ID.  It returns ErrStockNotFound if
// there is no matching row.
func (r *StockRepo) GetByID(ctx context.Context, id uint64) (*model.Stock, error) {
	s, err := scanStock(r.db.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByOffer returns the stocks of an offer ordered by beginning ascending.
// When the offer has no stock it returns an empty slice and nil error.
func (r *StockRepo) ListByOffer(ctx context.Context, offerID uint64) ([]model.Stock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE offer_id = ? ORDER BY beginning_datetime ASC, id ASC`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes the editable attributes of s.  It only performs the UPDATE
// when at least one field differs; otherwise it returns ErrNoChange.  When
// the row does not exist it returns ErrStockNotFound.
func (r *StockRepo) Update(ctx context.Context, s *model.Stock) error {
	const q = `UPDATE stocks
               SET beginning_datetime = ?, booking_limit_datetime = ?, price_cents = ?, quantity = ?,
                   number_of_tickets = ?, educational_price_detail = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND NOT (beginning_datetime <=> ? AND booking_limit_datetime <=> ? AND price_cents <=> ?
                          AND quantity <=> ? AND number_of_tickets <=> ? AND educational_price_detail <=> ?)`
	begin, limit := dbTime(s.BeginningDatetime), dbTime(s.BookingLimitDatetime)
	qty, tickets, detail := nullUint32(s.Quantity), nullUint32(s.NumberOfTickets), nullString(s.EducationalPriceDetail)
	res, err := r.db.ExecContext(ctx, q,
		begin, limit, s.PriceCents, qty, tickets, detail, // SET
		s.ID,                                             // WHERE
		begin, limit, s.PriceCents, qty, tickets, detail, // only if at least one field differs
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Determine if it's "not found" or simply "no change".
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM stocks WHERE id = ? LIMIT 1`, s.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStockNotFound
		}
		return err
	}
	return ErrNoChange // row exists but values are identical
}

// Delete removes a stock that has no booking yet.  If the stock does not
// exist, ErrStockNotFound is returned; if bookings reference it, ErrConflict.
func (r *StockRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Ensure rollback or commit at the end
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var bookings uint32
	err = tx.QueryRowContext(ctx, `SELECT bookings_quantity FROM stocks WHERE id = ? FOR UPDATE`, id).Scan(&bookings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStockNotFound
		}
		return err
	}
	if bookings > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM stocks WHERE id = ?`, id)
	return err
}
