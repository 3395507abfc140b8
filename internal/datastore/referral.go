package datastore

import (
	"context"

	"dice/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReferral(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Referral)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Referral)(nil)).Index("index_referral_inviter_id").IfNotExists().Column("inviter_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// AddReferral records the inviter of an invitee. The first inviter wins; it returns false when one was already recorded.
func AddReferral(ctx context.Context, db bun.IDB, inviteeID, inviterID int64) (bool, error) {
	res, err := db.NewInsert().Model(&models.Referral{InviteeID: inviteeID, InviterID: inviterID}).
		On("conflict (invitee_id) DO nothing").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func CountInvitesByInviter(ctx context.Context, db bun.IDB, inviterID int64) (int, error) {
	count, err := db.NewSelect().Model((*models.Referral)(nil)).Where("inviter_id = ?", inviterID).Count(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}
