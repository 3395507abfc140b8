package datastore

import (
	"context"
	"database/sql"
	"time"

	"dice/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func CreateTableAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Account)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table "account"
			add column if not exists last_claim_id uuid;
		alter table "account"
			drop constraint if exists account_balance_non_negative;
		alter table "account"
			add constraint account_balance_non_negative check (balance >= 0);`).Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Account)(nil)).Index("index_account_last_claim_at").IfNotExists().Column("last_claim_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindAccountByID(ctx context.Context, db bun.IDB, accountID int64) (*models.Account, error) {
	var account models.Account
	err := db.NewSelect().Model(&account).Where("id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetOrCreateAccount never returns sql.ErrNoRows: a missing account is inserted with a zero balance.
func GetOrCreateAccount(ctx context.Context, db bun.IDB, accountID int64) (*models.Account, error) {
	account := &models.Account{ID: accountID}
	_, err := db.NewInsert().Model(account).
		Column("id").
		On("conflict (id) DO nothing").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "insert account %d", accountID)
	}

	account, err = FindAccountByID(ctx, db, accountID)
	if err != nil {
		return nil, errors.Wrapf(err, "find account %d", accountID)
	}

	return account, nil
}

// CreditAndStampAccount applies a claim only if last_claim_at still equals expectedLastClaim.
// The receipt is written in the same transaction and its id stamped as last_claim_id.
// Returns models.ErrClaimConflict when the token moved; nothing is written in that case.
func CreditAndStampAccount(ctx context.Context, db *bun.DB, accountID int64, amount int64, claimAt time.Time, expectedLastClaim *time.Time, receipt *models.DailyClaim) (*models.Account, error) {
	var claimID *uuid.UUID
	if receipt != nil {
		claimID = &receipt.ID
	}

	account := &models.Account{ID: accountID}
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewUpdate().
			Model(account).
			Set("balance = balance + ?", amount).
			Set("last_claim_at = ?", claimAt).
			Set("last_claim_id = ?", claimID).
			Set("updated_at = ?", claimAt).
			Where("id = ?", accountID).
			Where("last_claim_at IS NOT DISTINCT FROM ?", expectedLastClaim).
			Returning("*").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrClaimConflict
		}
		if err != nil {
			return errors.Wrapf(err, "credit and stamp account %d", accountID)
		}

		if receipt != nil {
			if _, err := tx.NewInsert().Model(receipt).Exec(ctx); err != nil {
				return errors.Wrapf(err, "insert daily claim %s", receipt.ID)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func CreditAccount(ctx context.Context, db bun.IDB, accountID int64, amount int64) error {
	if amount < 0 {
		return models.ErrNegativeCredit
	}

	account := &models.Account{ID: accountID, Balance: amount}
	_, err := db.NewInsert().Model(account).
		Column("id", "balance").
		On("conflict (id) DO UPDATE").
		Set("balance = account.balance + EXCLUDED.balance").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	return errors.Wrapf(err, "credit account %d", accountID)
}

func GetAccountsClaimableBetween(ctx context.Context, db bun.IDB, from, to time.Time, limit, offset int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := db.NewSelect().Model(&accounts).
		Where("last_claim_at > ?", from).
		Where("last_claim_at <= ?", to).
		Order("last_claim_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}
