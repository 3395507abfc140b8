package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DailyClaim struct {
	bun.BaseModel `bun:"table:daily_claim"`
	ID            uuid.UUID         `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	AccountID     int64             `bun:"account_id" json:"account_id" msgpack:"account_id"`
	Amount        int64             `bun:"amount" json:"amount" msgpack:"amount"`
	Multiplier    float64           `bun:"multiplier" json:"multiplier" msgpack:"multiplier"`
	Modifiers     []AppliedModifier `bun:"modifiers,type:jsonb" json:"modifiers" msgpack:"modifiers"`
	ClaimedAt     time.Time         `bun:"claimed_at" json:"claimed_at" msgpack:"claimed_at"`
}

// AppliedModifier describes one bonus that contributed to a payout.
type AppliedModifier struct {
	ID          string  `json:"id" msgpack:"id"`
	Effect      string  `json:"effect" msgpack:"effect"`
	Multiplier  float64 `json:"multiplier" msgpack:"multiplier"`
	Description string  `json:"description,omitempty" msgpack:"description,omitempty"`
}
