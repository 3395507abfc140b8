package datastore

import (
	"context"

	"dice/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableDailyClaim(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.DailyClaim)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.DailyClaim)(nil)).Index("index_daily_claim_account_id").IfNotExists().Column("account_id").Exec(ctx)
	if err != nil {
		return err
	}

	// one receipt per account per claim instant
	_, err = db.NewCreateIndex().Model((*models.DailyClaim)(nil)).Index("index_daily_claim_account_id_claimed_at").IfNotExists().Unique().Column("account_id", "claimed_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetDailyClaimsByAccount(ctx context.Context, db bun.IDB, accountID int64, limit int) ([]*models.DailyClaim, error) {
	var claims []*models.DailyClaim
	err := db.NewSelect().Model(&claims).
		Where("account_id = ?", accountID).
		Order("claimed_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
