package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"event-booking/internal/models"
)

var (
	// ErrMissingDetails → attendee name empty or no tickets requested.
	ErrMissingDetails = errors.New("missing attendee name or ticket quantity")
	// ErrEventNotFound → no event matches the requested ID.
	ErrEventNotFound = errors.New("event not found")
	// ErrNotEnoughTickets → a requested quantity exceeds remaining capacity.
	ErrNotEnoughTickets = errors.New("not enough tickets available")
	// ErrBookingNotFound → no booking matches the requested reference.
	ErrBookingNotFound = errors.New("booking not found")
)

type DBLayer interface {
	GetAvailability(ctx context.Context, eventID int64) (*models.EventAvailability, error)
	GetPublishedAvailability(ctx context.Context, eventID int64) (*models.EventAvailability, error)
	InsertIfAvailable(ctx context.Context, booking models.Booking) (bool, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	ListBookingsByEvent(ctx context.Context, eventID int64) ([]models.Booking, error)
}

type KafkaPublisher interface {
	PublishBookingCreated(booking models.Booking) error
}

type Service struct {
	DB    DBLayer
	Kafka KafkaPublisher
}

func NewService(db DBLayer, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Kafka: kafka}
}

// BookingRequest carries the attendee's form fields for one submission.
type BookingRequest struct {
	EventID            int64
	AttendeeName       string
	FullPriceQuantity  int
	ConcessionQuantity int
}

// Submit runs a booking through Requested → Validated → Accepted|Rejected.
//
// Validation rechecks availability against the ledger, and the accepting
// insert re-applies the same guard inside one storage operation, so two
// submissions racing for the last tickets cannot both be accepted.
func (s *Service) Submit(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	// Requested: both tiers empty or an anonymous attendee is rejected
	// before touching the store.
	if strings.TrimSpace(req.AttendeeName) == "" {
		return nil, ErrMissingDetails
	}
	if req.FullPriceQuantity <= 0 && req.ConcessionQuantity <= 0 {
		return nil, ErrMissingDetails
	}
	if req.FullPriceQuantity < 0 || req.ConcessionQuantity < 0 {
		return nil, ErrMissingDetails
	}

	// Validated: recompute remaining capacity from the ledger.
	availability, err := s.DB.GetAvailability(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if req.FullPriceQuantity > availability.RemainingFullPrice ||
		req.ConcessionQuantity > availability.RemainingConcession {
		return nil, ErrNotEnoughTickets
	}

	// Accepted: append to the ledger. The conditional insert can still come
	// back empty if a concurrent booking took the tickets first.
	booking := models.Booking{
		Reference:          uuid.NewString(),
		EventID:            req.EventID,
		AttendeeName:       strings.TrimSpace(req.AttendeeName),
		FullPriceQuantity:  req.FullPriceQuantity,
		ConcessionQuantity: req.ConcessionQuantity,
		BookingDate:        time.Now(),
	}
	ok, err := s.DB.InsertIfAvailable(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to record booking: %w", err)
	}
	if !ok {
		return nil, ErrNotEnoughTickets
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCreated(booking); err != nil {
			fmt.Printf("Kafka publish error (booking created): %v\n", err)
		}
	}

	return &booking, nil
}

// EventDetail returns a published event with its remaining tier capacity,
// for the attendee-facing detail page.
func (s *Service) EventDetail(ctx context.Context, eventID int64) (*models.EventAvailability, error) {
	availability, err := s.DB.GetPublishedAvailability(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return availability, nil
}

// GetByReference resolves a booking reference, for the confirmation QR.
func (s *Service) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}
