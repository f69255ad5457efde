package db

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"event-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// availabilityQuery derives per-tier remaining capacity: configured tickets
// minus the summed booked quantities. The LEFT JOIN keeps events with zero
// bookings, where COALESCE turns the null sums into zero.
const availabilityQuery = `
SELECT e.*,
       e.full_price_tickets - COALESCE(SUM(b.full_price_quantity), 0) AS remaining_full_price,
       e.concession_tickets - COALESCE(SUM(b.concession_quantity), 0) AS remaining_concession
FROM events AS e
LEFT JOIN bookings AS b ON b.event_id = e.id
WHERE e.id = ?
GROUP BY e.id`

// GetAvailability → event plus remaining tier capacity, any status.
// Returns sql.ErrNoRows when no event matches.
func (d *DB) GetAvailability(ctx context.Context, eventID int64) (*models.EventAvailability, error) {
	var availability models.EventAvailability
	err := d.Bun.NewRaw(availabilityQuery, eventID).Scan(ctx, &availability)
	if err != nil {
		return nil, err
	}
	return &availability, nil
}

// GetPublishedAvailability → same as GetAvailability but only for published
// events, for the attendee-facing detail page.
func (d *DB) GetPublishedAvailability(ctx context.Context, eventID int64) (*models.EventAvailability, error) {
	var availability models.EventAvailability
	err := d.Bun.NewRaw(`
SELECT e.*,
       e.full_price_tickets - COALESCE(SUM(b.full_price_quantity), 0) AS remaining_full_price,
       e.concession_tickets - COALESCE(SUM(b.concession_quantity), 0) AS remaining_concession
FROM events AS e
LEFT JOIN bookings AS b ON b.event_id = e.id
WHERE e.id = ? AND e.status = ?
GROUP BY e.id`, eventID, models.EventStatusPublished).Scan(ctx, &availability)
	if err != nil {
		return nil, err
	}
	return &availability, nil
}

// InsertIfAvailable appends a booking only if both requested quantities still
// fit the remaining capacity, as a single conditional INSERT..SELECT so the
// capacity check and the write cannot interleave with another booking.
// Returns false when the guard rejected the row (event gone or sold short).
//
// SQLite serializes the statement through its single writer. Postgres under
// READ COMMITTED would let two concurrent inserts compute their sums before
// either commits, so there the event row is locked first, which serializes
// bookings per event.
func (d *DB) InsertIfAvailable(ctx context.Context, booking models.Booking) (bool, error) {
	var inserted bool
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if d.Bun.Dialect().Name() == dialect.PG {
			if _, err := tx.ExecContext(ctx,
				"SELECT id FROM events WHERE id = ? FOR UPDATE", booking.EventID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO bookings (reference, event_id, attendee_name, full_price_quantity, concession_quantity, booking_date)
SELECT ?, e.id, ?, ?, ?, ?
FROM events AS e
LEFT JOIN bookings AS b ON b.event_id = e.id
WHERE e.id = ?
GROUP BY e.id
HAVING e.full_price_tickets - COALESCE(SUM(b.full_price_quantity), 0) >= ?
   AND e.concession_tickets - COALESCE(SUM(b.concession_quantity), 0) >= ?`,
			booking.Reference,
			booking.AttendeeName,
			booking.FullPriceQuantity,
			booking.ConcessionQuantity,
			booking.BookingDate,
			booking.EventID,
			booking.FullPriceQuantity,
			booking.ConcessionQuantity,
		)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = rows == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetBookingByReference → fetch one booking by its public reference
func (d *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("reference = ?", reference).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListBookingsByEvent → fetch the ledger rows for one event, oldest first
func (d *DB) ListBookingsByEvent(ctx context.Context, eventID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("event_id = ?", eventID).
		Order("booking_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
