package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Organiser struct {
	bun.BaseModel `bun:"table:organisers"`

	Username     string    `bun:"username,pk" json:"username"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}
