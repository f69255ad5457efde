package db

import (
	"context"

	"github.com/uptrace/bun"

	"event-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORGANISERS ----------------

// GetOrganiser → fetch one account by username
func (d *DB) GetOrganiser(ctx context.Context, username string) (*models.Organiser, error) {
	var organiser models.Organiser
	err := d.Bun.NewSelect().
		Model(&organiser).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &organiser, nil
}

// CreateOrganiser → insert a new account
func (d *DB) CreateOrganiser(ctx context.Context, organiser models.Organiser) error {
	_, err := d.Bun.NewInsert().Model(&organiser).Exec(ctx)
	return err
}

// ---------------- SITE SETTINGS ----------------

// GetSiteSettings → one organiser's site settings row
func (d *DB) GetSiteSettings(ctx context.Context, artist string) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := d.Bun.NewSelect().
		Model(&settings).
		Where("artist = ?", artist).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetFirstSiteSettings → the settings row shown on the attendee landing
// pages, which are effectively single-tenant.
func (d *DB) GetFirstSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := d.Bun.NewSelect().
		Model(&settings).
		Order("artist ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpsertSiteSettings → insert or replace the per-organiser settings row
func (d *DB) UpsertSiteSettings(ctx context.Context, settings models.SiteSettings) error {
	_, err := d.Bun.NewInsert().
		Model(&settings).
		On("CONFLICT (artist) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("description = EXCLUDED.description").
		Exec(ctx)
	return err
}
