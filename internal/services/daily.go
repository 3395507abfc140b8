package services

import (
	"context"
	"errors"
	"time"

	"dice/internal/interfaces"
	"dice/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
)

const verifyClaimTimeout = 5 * time.Second

type EligibilityResolver interface {
	Resolve(ctx context.Context, accountID int64) (Eligibility, error)
}

// ServiceDaily is the daily command as seen by users: throttle, eligibility, claim.
type ServiceDaily struct {
	limiter     interfaces.Limiter
	eligibility EligibilityResolver
	reward      *ServiceReward
}

func NewServiceDaily(container *do.Injector) (*ServiceDaily, error) {
	l, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	eligibility, err := do.Invoke[*ServiceEligibility](container)
	if err != nil {
		return nil, err
	}

	reward, err := do.Invoke[*ServiceReward](container)
	if err != nil {
		return nil, err
	}

	return NewDailyService(l, eligibility, reward), nil
}

func NewDailyService(l interfaces.Limiter, eligibility EligibilityResolver, reward *ServiceReward) *ServiceDaily {
	return &ServiceDaily{l, eligibility, reward}
}

func (service *ServiceDaily) Reward() *ServiceReward {
	return service.reward
}

func (service *ServiceDaily) Claim(ctx context.Context, accountID int64, now time.Time) (*RewardOutcome, error) {
	logger := log.With().Int64("account_id", accountID).Logger()

	err := service.limiter.Allow(ctx, LimitKeyDailyCommand(accountID), redis_rate.Limit{
		Rate:   DAILY_COMMAND_USAGES,
		Burst:  DAILY_COMMAND_USAGES,
		Period: DAILY_COMMAND_THROTTLE,
	})
	if errors.Is(err, limiter.ErrRateLimited) {
		return nil, err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("daily throttle unavailable")
	}

	eligibility, err := service.eligibility.Resolve(ctx, accountID)
	if err != nil {
		logger.Warn().Err(err).Msg("eligibility unavailable, paying base amount")
		eligibility = Eligibility{}
	}

	outcome, err := service.reward.ClaimDailyReward(ctx, accountID, now, eligibility)
	if !errors.Is(err, ErrClaimOutcomeUnknown) {
		return outcome, err
	}

	// the request context may be what failed, so verify on a fresh one
	verifyCtx, cancel := context.WithTimeout(context.Background(), verifyClaimTimeout)
	defer cancel()

	account, landed, verr := service.reward.VerifyClaim(verifyCtx, accountID, *outcome.ClaimedAt, *outcome.ClaimID)
	if verr != nil {
		logger.Error().Err(verr).Msg("daily claim could not be verified")
		return nil, err
	}
	if !landed {
		return nil, err
	}

	logger.Info().Msg("daily claim verified after unknown outcome")
	outcome.Authorized = true
	outcome.NewBalance = account.Balance
	service.reward.Settle(verifyCtx, accountID, outcome)
	return outcome, nil
}
