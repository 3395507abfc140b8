package services

import (
	"context"
	"database/sql"
	"errors"

	"dice/internal/datastore"
	"dice/internal/pkg/caching"

	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type VoteChecker interface {
	HasVoted(ctx context.Context, accountID int64) (bool, error)
	IsWeekend(ctx context.Context) (bool, error)
}

// ServiceEligibility gathers the facts bonus modifiers are evaluated against.
type ServiceEligibility struct {
	votes              VoteChecker
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
}

func NewServiceEligibility(container *do.Injector) (*ServiceEligibility, error) {
	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	// vote lookups are optional
	votes, _ := do.Invoke[VoteChecker](container)

	return &ServiceEligibility{votes, readonlyPostgresDB, cache}, nil
}

// Resolve never fails on vote lookups: an unreachable bot list counts as "not voted".
func (service *ServiceEligibility) Resolve(ctx context.Context, accountID int64) (Eligibility, error) {
	var eligibility Eligibility
	g, gctx := errgroup.WithContext(ctx)

	if service.votes != nil {
		g.Go(func() error {
			voted, err := service.votes.HasVoted(gctx, accountID)
			if err != nil {
				log.Error().Err(err).Int64("account_id", accountID).Msg("vote lookup failed")
				return nil
			}
			eligibility.Voted = voted
			return nil
		})

		g.Go(func() error {
			weekend, err := service.votes.IsWeekend(gctx)
			if err != nil {
				log.Error().Err(err).Msg("weekend lookup failed")
				return nil
			}
			eligibility.Weekend = weekend
			return nil
		})
	}

	g.Go(func() error {
		tier, err := service.PatronTier(gctx, accountID)
		if err != nil {
			return err
		}
		eligibility.PatronTier = tier
		return nil
	})

	g.Go(func() error {
		invites, err := service.Invites(gctx, accountID)
		if err != nil {
			return err
		}
		eligibility.Invites = invites
		return nil
	})

	if err := g.Wait(); err != nil {
		return Eligibility{}, err
	}

	return eligibility, nil
}

func (service *ServiceEligibility) PatronTier(ctx context.Context, accountID int64) (string, error) {
	callback := func() (string, error) {
		patron, err := datastore.GetPatronByAccountID(ctx, service.readonlyPostgresDB, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return patron.Tier, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyPatron(accountID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceEligibility) Invites(ctx context.Context, accountID int64) (int, error) {
	callback := func() (int, error) {
		return datastore.CountInvitesByInviter(ctx, service.readonlyPostgresDB, accountID)
	}

	return caching.UseCache(ctx, service.cache, DBKeyInvites(accountID), CACHE_TTL_1_MIN, callback)
}
