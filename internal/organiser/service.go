package organiser

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"event-booking/internal/models"
)

var (
	// ErrMissingFields → a required form field was empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrPasswordMismatch → password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrDuplicateUsername → the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials → unknown username or wrong password. The two
	// cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type DBLayer interface {
	GetOrganiser(ctx context.Context, username string) (*models.Organiser, error)
	CreateOrganiser(ctx context.Context, organiser models.Organiser) error
	GetSiteSettings(ctx context.Context, artist string) (*models.SiteSettings, error)
	GetFirstSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	UpsertSiteSettings(ctx context.Context, settings models.SiteSettings) error
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

// Register creates a new organiser account. Only the bcrypt hash of the
// password is stored.
func (s *Service) Register(ctx context.Context, username, password, confirmPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirmPassword == "" {
		return ErrMissingFields
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	_, err := s.DB.GetOrganiser(ctx, username)
	if err == nil {
		return ErrDuplicateUsername
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	organiser := models.Organiser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.DB.CreateOrganiser(ctx, organiser); err != nil {
		return fmt.Errorf("failed to create organiser: %w", err)
	}
	return nil
}

// Login verifies a password against the stored hash for that exact username.
func (s *Service) Login(ctx context.Context, username, password string) error {
	organiser, err := s.DB.GetOrganiser(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to look up organiser: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(organiser.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SiteSettings returns the organiser's site settings, falling back to the
// defaults when none have been saved yet.
func (s *Service) SiteSettings(ctx context.Context, artist string) (models.SiteSettings, error) {
	settings, err := s.DB.GetSiteSettings(ctx, artist)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSiteSettings(artist), nil
		}
		return models.SiteSettings{}, fmt.Errorf("failed to fetch site settings: %w", err)
	}
	return *settings, nil
}

// LandingSettings returns the site settings shown to attendees, with a
// generic fallback when no organiser has saved any.
func (s *Service) LandingSettings(ctx context.Context) (models.SiteSettings, error) {
	settings, err := s.DB.GetFirstSiteSettings(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SiteSettings{
				Name:        "Event Booking Site",
				Description: "Welcome to our events!",
			}, nil
		}
		return models.SiteSettings{}, fmt.Errorf("failed to fetch site settings: %w", err)
	}
	return *settings, nil
}

// SaveSiteSettings upserts the organiser's settings row.
func (s *Service) SaveSiteSettings(ctx context.Context, artist, name, description string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" {
		return ErrMissingFields
	}
	settings := models.SiteSettings{
		Artist:      artist,
		Name:        name,
		Description: description,
	}
	if err := s.DB.UpsertSiteSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save site settings: %w", err)
	}
	return nil
}
