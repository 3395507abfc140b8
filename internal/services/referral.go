package services

import (
	"context"
	"errors"

	"dice/internal/datastore"
	"dice/internal/pkg/caching"

	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

var ErrSelfReferral = errors.New("an account cannot invite itself")

type ServiceReferral struct {
	postgresDB *bun.DB
	cache      caching.Cache
}

func NewServiceReferral(container *do.Injector) (*ServiceReferral, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReferral{postgresDB, cache}, nil
}

// AddReferral records that inviterID invited inviteeID. Only the first inviter counts.
func (service *ServiceReferral) AddReferral(ctx context.Context, inviteeID, inviterID int64) (bool, error) {
	if inviteeID == inviterID {
		return false, ErrSelfReferral
	}

	added, err := datastore.AddReferral(ctx, service.postgresDB, inviteeID, inviterID)
	if err != nil {
		return false, err
	}

	if added {
		log.Info().Int64("account_id", inviteeID).Int64("inviter_id", inviterID).Msg("referral added")
		_ = service.cache.Delete(ctx, DBKeyInvites(inviterID))
	}

	return added, nil
}
