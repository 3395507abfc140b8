package datastore

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"dice/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var claimAt = time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC)

// newTestDB connects to the Postgres in DB_DSN and gives the test a fresh account id.
func newTestDB(t *testing.T) (*bun.DB, int64) {
	t.Helper()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set")
	}

	ctx := context.Background()
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	)), pgdialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateTableAccount(ctx, db))
	require.NoError(t, CreateTableDailyClaim(ctx, db))

	accountID := time.Now().UnixNano()
	t.Cleanup(func() {
		//nolint:errcheck
		db.NewDelete().Model((*models.DailyClaim)(nil)).Where("account_id = ?", accountID).Exec(ctx)
		//nolint:errcheck
		db.NewDelete().Model((*models.Account)(nil)).Where("id = ?", accountID).Exec(ctx)
	})

	return db, accountID
}

func receiptFor(accountID int64, amount int64, at time.Time) *models.DailyClaim {
	return &models.DailyClaim{
		ID:         uuid.New(),
		AccountID:  accountID,
		Amount:     amount,
		Multiplier: 1,
		Modifiers:  []models.AppliedModifier{},
		ClaimedAt:  at,
	}
}

func TestPostgresLedgerCreditAndStamp(t *testing.T) {
	ctx := context.Background()
	db, accountID := newTestDB(t)
	ledger := NewLedger(db)

	account, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Zero(t, account.Balance)
	assert.Nil(t, account.LastClaimAt)

	receipt := receiptFor(accountID, 1000, claimAt)
	updated, err := ledger.CreditAndStamp(ctx, accountID, 1000, claimAt, nil, receipt)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), updated.Balance)
	assert.True(t, updated.HasClaimed(claimAt, receipt.ID))

	// a NULL token no longer matches once the account claimed
	_, err = ledger.CreditAndStamp(ctx, accountID, 1000, claimAt.Add(time.Hour), nil, receiptFor(accountID, 1000, claimAt.Add(time.Hour)))
	assert.ErrorIs(t, err, models.ErrClaimConflict)

	stored, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance)
	assert.True(t, stored.HasClaimed(claimAt, receipt.ID))

	next := claimAt.Add(23 * time.Hour)
	updated, err = ledger.CreditAndStamp(ctx, accountID, 2000, next, stored.LastClaimAt, receiptFor(accountID, 2000, next))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), updated.Balance)

	claims, err := GetDailyClaimsByAccount(ctx, db, accountID, 10)
	require.NoError(t, err)
	require.Len(t, claims, 2, "conflicting claims write no receipt")
	assert.Equal(t, int64(2000), claims[0].Amount)
	assert.Equal(t, receipt.ID, claims[1].ID)
}

func TestPostgresLedgerReceiptFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db, accountID := newTestDB(t)
	ledger := NewLedger(db)

	receipt := receiptFor(accountID, 1000, claimAt)
	first, err := ledger.CreditAndStamp(ctx, accountID, 1000, claimAt, nil, receipt)
	require.NoError(t, err)

	// reusing the receipt id makes the insert fail after the update ran
	next := claimAt.Add(23 * time.Hour)
	duplicate := receiptFor(accountID, 1000, next)
	duplicate.ID = receipt.ID
	_, err = ledger.CreditAndStamp(ctx, accountID, 1000, next, first.LastClaimAt, duplicate)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrClaimConflict)

	stored, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Balance)
	assert.True(t, stored.HasClaimed(claimAt, receipt.ID))
}

func TestPostgresLedgerConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	db, accountID := newTestDB(t)
	ledger := NewLedger(db)

	_, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.CreditAndStamp(ctx, accountID, 1000, claimAt, nil, receiptFor(accountID, 1000, claimAt))
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, models.ErrClaimConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	account, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)
}

func TestPostgresLedgerCredit(t *testing.T) {
	ctx := context.Background()
	db, accountID := newTestDB(t)
	ledger := NewLedger(db)

	require.NoError(t, ledger.Credit(ctx, accountID, 500))
	require.NoError(t, ledger.Credit(ctx, accountID, 250))
	assert.ErrorIs(t, ledger.Credit(ctx, accountID, -1), models.ErrNegativeCredit)

	_, err := ledger.CreditAndStamp(ctx, accountID, -1, claimAt, nil, nil)
	assert.ErrorIs(t, err, models.ErrNegativeCredit)

	account, err := ledger.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), account.Balance)
	assert.Nil(t, account.LastClaimAt)
}
