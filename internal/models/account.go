package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrClaimConflict is returned by a ledger when the stored last claim moved since it was read.
	ErrClaimConflict  = errors.New("claim conflict")
	ErrNegativeCredit = errors.New("credit amount must not be negative")
)

type Account struct {
	bun.BaseModel `bun:"table:account"`
	ID            int64      `bun:"id,pk" json:"id"`
	Balance       int64      `bun:"balance,notnull,default:0" json:"balance"`
	LastClaimAt   *time.Time `bun:"last_claim_at" json:"last_claim_at"`
	// LastClaimID is the receipt id of the last claim.
	LastClaimID *uuid.UUID `bun:"last_claim_id,type:uuid" json:"last_claim_id,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

// HasClaimed reports whether the stored last claim is the one stamped at claimAt
// with receipt claimID.
func (account *Account) HasClaimed(claimAt time.Time, claimID uuid.UUID) bool {
	return account.LastClaimAt != nil && account.LastClaimAt.Equal(claimAt) &&
		account.LastClaimID != nil && *account.LastClaimID == claimID
}
