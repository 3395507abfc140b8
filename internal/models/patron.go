package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PATRON_TIER_BASIC   = "basic"
	PATRON_TIER_PREMIUM = "premium"
)

type Patron struct {
	bun.BaseModel `bun:"table:patron"`
	AccountID     int64     `bun:"account_id,pk" json:"account_id"`
	Tier          string    `bun:"tier" json:"tier"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
