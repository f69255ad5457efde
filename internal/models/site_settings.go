package models

import "github.com/uptrace/bun"

type SiteSettings struct {
	bun.BaseModel `bun:"table:site_settings"`

	Artist      string `bun:"artist,pk" json:"artist"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,notnull" json:"description"`
}

// DefaultSiteSettings fills in the fallbacks shown before an organiser has
// saved their own settings.
func DefaultSiteSettings(artist string) SiteSettings {
	return SiteSettings{
		Artist:      artist,
		Name:        artist + "'s Event Page",
		Description: "Welcome to my event page!",
	}
}
