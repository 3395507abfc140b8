package datastore

import (
	"context"
	"time"

	"dice/internal/models"

	"github.com/uptrace/bun"
)

// Ledger is the Postgres implementation of interfaces.Ledger.
type Ledger struct {
	db *bun.DB
}

func NewLedger(db *bun.DB) *Ledger {
	return &Ledger{db}
}

func (ledger *Ledger) Get(ctx context.Context, accountID int64) (*models.Account, error) {
	return GetOrCreateAccount(ctx, ledger.db, accountID)
}

func (ledger *Ledger) CreditAndStamp(ctx context.Context, accountID int64, amount int64, claimAt time.Time, expectedLastClaim *time.Time, receipt *models.DailyClaim) (*models.Account, error) {
	if amount < 0 {
		return nil, models.ErrNegativeCredit
	}

	// the row must exist for the conditional update to see it
	if _, err := GetOrCreateAccount(ctx, ledger.db, accountID); err != nil {
		return nil, err
	}

	return CreditAndStampAccount(ctx, ledger.db, accountID, amount, claimAt, expectedLastClaim, receipt)
}

func (ledger *Ledger) Credit(ctx context.Context, accountID int64, amount int64) error {
	return CreditAccount(ctx, ledger.db, accountID, amount)
}
