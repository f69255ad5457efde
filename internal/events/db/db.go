package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"event-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// CreateEvent → insert a new draft; the generated ID is written back into
// the model.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// GetEventForArtist → fetch one event scoped to its owner. ErrNoRows covers
// both "absent" and "owned by someone else".
func (d *DB) GetEventForArtist(ctx context.Context, id int64, artist string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Where("artist = ?", artist).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEventsByStatus → one organiser's events in a given lifecycle state
func (d *DB) ListEventsByStatus(ctx context.Context, artist, status string) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("artist = ?", artist).
		Where("status = ?", status).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListPublishedUpcoming → the attendee home listing: published events dated
// today or later, soonest first.
func (d *DB) ListPublishedUpcoming(ctx context.Context, from time.Time) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.EventStatusPublished).
		Where("date >= ?", from).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent → full replace of the editable fields, stamping last_modified.
// Scoped to the owner; returns the number of rows touched so the caller can
// distinguish "not yours" from success.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event, artist string) (int64, error) {
	event.LastModified = time.Now()
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("name", "description", "date", "full_price_tickets", "full_price",
			"concession_tickets", "concession_price", "last_modified").
		Where("id = ?", event.ID).
		Where("artist = ?", artist).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteEvent → remove an event scoped to its owner
func (d *DB) DeleteEvent(ctx context.Context, id int64, artist string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Where("artist = ?", artist).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PublishEvent → flip draft to published, scoped to the owner like every
// other mutation.
func (d *DB) PublishEvent(ctx context.Context, id int64, artist string) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusPublished).
		Set("last_modified = ?", time.Now()).
		Where("id = ?", id).
		Where("artist = ?", artist).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HasBookings → whether any ledger rows reference the event
func (d *DB) HasBookings(ctx context.Context, eventID int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("event_id = ?", eventID).
		Exists(ctx)
}
