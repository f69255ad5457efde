package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event-booking/internal/models"
)

var (
	// ErrEventNotFound → no event matches the ID for this organiser.
	ErrEventNotFound = errors.New("event not found")
	// ErrHasBookings → the event has ledger rows and cannot be deleted.
	ErrHasBookings = errors.New("event has bookings and cannot be deleted")
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventForArtist(ctx context.Context, id int64, artist string) (*models.Event, error)
	ListEventsByStatus(ctx context.Context, artist, status string) ([]models.Event, error)
	ListPublishedUpcoming(ctx context.Context, from time.Time) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event, artist string) (int64, error)
	DeleteEvent(ctx context.Context, id int64, artist string) (int64, error)
	PublishEvent(ctx context.Context, id int64, artist string) (int64, error)
	HasBookings(ctx context.Context, eventID int64) (bool, error)
}

type KafkaPublisher interface {
	PublishEventPublished(event models.Event) error
}

type Service struct {
	DB    DBLayer
	Kafka KafkaPublisher
}

func NewService(db DBLayer, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Kafka: kafka}
}

// EventInput carries the organiser's form fields for create and edit.
type EventInput struct {
	Name              string
	Description       string
	Date              time.Time
	FullPriceTickets  int
	FullPrice         float64
	ConcessionTickets int
	ConcessionPrice   float64
}

// CreateDraft inserts a new event in the draft state for the given organiser.
func (s *Service) CreateDraft(ctx context.Context, artist string, input EventInput) (*models.Event, error) {
	now := time.Now()
	event := &models.Event{
		Name:              input.Name,
		Description:       input.Description,
		Date:              input.Date,
		Artist:            artist,
		Status:            models.EventStatusDraft,
		FullPriceTickets:  input.FullPriceTickets,
		FullPrice:         input.FullPrice,
		ConcessionTickets: input.ConcessionTickets,
		ConcessionPrice:   input.ConcessionPrice,
		CreatedAt:         now,
		LastModified:      now,
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// Home returns the organiser's published and draft events as two lists.
func (s *Service) Home(ctx context.Context, artist string) (published, drafts []models.Event, err error) {
	published, err = s.DB.ListEventsByStatus(ctx, artist, models.EventStatusPublished)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list published events: %w", err)
	}
	drafts, err = s.DB.ListEventsByStatus(ctx, artist, models.EventStatusDraft)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list draft events: %w", err)
	}
	return published, drafts, nil
}

// Upcoming lists published, future-dated events for the attendee home page.
func (s *Service) Upcoming(ctx context.Context) ([]models.Event, error) {
	// Midnight today, so events happening later today still show.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, err := s.DB.ListPublishedUpcoming(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetForEdit fetches one event scoped to its owner.
func (s *Service) GetForEdit(ctx context.Context, artist string, id int64) (*models.Event, error) {
	event, err := s.DB.GetEventForArtist(ctx, id, artist)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return event, nil
}

// Update replaces the editable fields of an owned event.
func (s *Service) Update(ctx context.Context, artist string, id int64, input EventInput) error {
	event := models.Event{
		ID:                id,
		Name:              input.Name,
		Description:       input.Description,
		Date:              input.Date,
		FullPriceTickets:  input.FullPriceTickets,
		FullPrice:         input.FullPrice,
		ConcessionTickets: input.ConcessionTickets,
		ConcessionPrice:   input.ConcessionPrice,
	}
	rows, err := s.DB.UpdateEvent(ctx, event, artist)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes an owned event. Events with bookings are kept: the ledger
// is append-only and deleting its event would orphan the sale records.
func (s *Service) Delete(ctx context.Context, artist string, id int64) error {
	if _, err := s.GetForEdit(ctx, artist, id); err != nil {
		return err
	}
	hasBookings, err := s.DB.HasBookings(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check bookings: %w", err)
	}
	if hasBookings {
		return ErrHasBookings
	}
	rows, err := s.DB.DeleteEvent(ctx, id, artist)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Publish flips an owned draft to published.
func (s *Service) Publish(ctx context.Context, artist string, id int64) error {
	rows, err := s.DB.PublishEvent(ctx, id, artist)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}

	if s.Kafka != nil {
		event, err := s.DB.GetEventForArtist(ctx, id, artist)
		if err == nil {
			if err := s.Kafka.PublishEventPublished(*event); err != nil {
				fmt.Printf("Kafka publish error (event published): %v\n", err)
			}
		}
	}
	return nil
}
