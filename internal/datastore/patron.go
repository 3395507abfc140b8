package datastore

import (
	"context"

	"dice/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePatron(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Patron)(nil)).IfNotExists().Exec(ctx)
	return err
}

func GetPatronByAccountID(ctx context.Context, db bun.IDB, accountID int64) (*models.Patron, error) {
	var patron models.Patron
	err := db.NewSelect().Model(&patron).Where("account_id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &patron, nil
}

func UpsertPatron(ctx context.Context, db bun.IDB, patron *models.Patron) error {
	_, err := db.NewInsert().Model(patron).
		On("conflict (account_id) DO UPDATE").
		Set("tier = EXCLUDED.tier").
		Exec(ctx)
	return err
}
