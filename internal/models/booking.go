package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Booking is one row of the append-only ticket ledger. Rows are never
// updated or deleted once written.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID                 int64     `bun:"id,pk,autoincrement" json:"id"`
	Reference          string    `bun:"reference,notnull" json:"reference"`
	EventID            int64     `bun:"event_id,notnull" json:"event_id"`
	AttendeeName       string    `bun:"attendee_name,notnull" json:"attendee_name"`
	FullPriceQuantity  int       `bun:"full_price_quantity,notnull" json:"full_price_quantity"`
	ConcessionQuantity int       `bun:"concession_quantity,notnull" json:"concession_quantity"`
	BookingDate        time.Time `bun:"booking_date,notnull" json:"booking_date"`
}
