package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID                 int64     `bun:"id,pk,autoincrement" json:"id"`
	Name               string    `bun:"name,notnull" json:"name"`
	Description        string    `bun:"description" json:"description"`
	Date               time.Time `bun:"date,notnull" json:"date"`
	Artist             string    `bun:"artist,notnull" json:"artist"`
	Status             string    `bun:"status,notnull" json:"status"`
	FullPriceTickets   int       `bun:"full_price_tickets,notnull" json:"full_price_tickets"`
	FullPrice          float64   `bun:"full_price,notnull" json:"full_price"`
	ConcessionTickets  int       `bun:"concession_tickets,notnull" json:"concession_tickets"`
	ConcessionPrice    float64   `bun:"concession_price,notnull" json:"concession_price"`
	CreatedAt          time.Time `bun:"created_at,notnull" json:"created_at"`
	LastModified       time.Time `bun:"last_modified,notnull" json:"last_modified"`
}

// EventAvailability is an Event joined with its booking ledger: the remaining
// counts are tier capacity minus the summed booked quantities.
type EventAvailability struct {
	Event `bun:",extend"`

	RemainingFullPrice  int `bun:"remaining_full_price,scanonly" json:"remaining_full_price"`
	RemainingConcession int `bun:"remaining_concession,scanonly" json:"remaining_concession"`
}
