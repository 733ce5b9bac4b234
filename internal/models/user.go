package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:user"`
	ID            int64     `bun:"id,pk" json:"id"`
	FirstName     string    `bun:"first_name" json:"first_name"`
	LastName      string    `bun:"last_name" json:"last_name"`
	Username      string    `bun:"username" json:"username"`
	LanguageCode  string    `bun:"language_code" json:"language_code"`
	PhotoURL      string    `bun:"photo_url" json:"photo_url"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`

	TONWallet    *string `bun:"-" json:"ton_wallet"`
	SolanaWallet *string `bun:"-" json:"sol_wallet"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
}
