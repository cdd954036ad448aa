package models

import "time"

// Account is a per-user ledger record of remaining usage credits.
// Balance never goes negative; LastGrantAt tracks the rolling daily
// free-allowance window.
type Account struct {
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	LastGrantAt time.Time `json:"last_grant_at"`
}
