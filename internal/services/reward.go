package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dice/internal/interfaces"
	"dice/internal/models"
	"dice/internal/pkg/caching"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
)

// RewardPolicy is the economic configuration of the daily reward.
type RewardPolicy struct {
	BaseAmount int64
	Window     time.Duration
	// OperatorAccountID receives the same amount as every successful claim. Zero disables it.
	OperatorAccountID int64
	Modifiers         *ModifierSet
}

type RewardOutcome struct {
	Authorized bool                     `json:"authorized"`
	Amount     int64                    `json:"amount,omitempty"`
	Multiplier float64                  `json:"multiplier,omitempty"`
	Applied    []models.AppliedModifier `json:"applied,omitempty"`
	NewBalance int64                    `json:"new_balance,omitempty"`
	ClaimedAt  *time.Time               `json:"claimed_at,omitempty"`
	ClaimID    *uuid.UUID               `json:"claim_id,omitempty"`
	Remaining  time.Duration            `json:"remaining,omitempty"`
}

type ServiceReward struct {
	ledger interfaces.Ledger
	policy *RewardPolicy
	cache  caching.Cache
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	ledger, err := do.Invoke[interfaces.Ledger](container)
	if err != nil {
		return nil, err
	}

	policy, err := do.Invoke[*RewardPolicy](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return NewRewardService(ledger, policy, cache), nil
}

// NewRewardService builds the service from its collaborators. cache may be nil.
func NewRewardService(ledger interfaces.Ledger, policy *RewardPolicy, cache caching.Cache) *ServiceReward {
	return &ServiceReward{ledger, policy, cache}
}

func (service *ServiceReward) Policy() RewardPolicy {
	return *service.policy
}

// ClaimDailyReward grants the daily payout at most once per window. The store's
// conditional credit decides races: a lost race is retried once from a fresh
// read, and a second loss is reported as a denial.
func (service *ServiceReward) ClaimDailyReward(ctx context.Context, accountID int64, now time.Time, eligibility Eligibility) (*RewardOutcome, error) {
	now = now.Truncate(CLAIM_TIMESTAMP_PRECISION)
	logger := log.With().Int64("account_id", accountID).Logger()

	for attempt := 1; attempt <= MAX_CLAIM_ATTEMPTS; attempt++ {
		account, err := service.ledger.Get(ctx, accountID)
		if err != nil {
			return nil, storeUnavailable(err)
		}

		decision := EvaluateCooldown(account.LastClaimAt, now, service.policy.Window)
		if !decision.Authorized {
			claimsTotal.WithLabelValues("denied").Inc()
			return &RewardOutcome{Remaining: decision.Remaining}, nil
		}

		computation := ComputeReward(service.policy.BaseAmount, service.policy.Modifiers, eligibility)
		receipt := &models.DailyClaim{
			ID:         uuid.New(),
			AccountID:  accountID,
			Amount:     computation.Amount,
			Multiplier: computation.Multiplier,
			Modifiers:  computation.Applied,
			ClaimedAt:  now,
		}

		updated, err := service.ledger.CreditAndStamp(ctx, accountID, computation.Amount, now, account.LastClaimAt, receipt)
		if errors.Is(err, models.ErrClaimConflict) {
			claimConflictsTotal.Inc()
			logger.Debug().Int("attempt", attempt).Msg("daily claim lost a race")
			continue
		}
		if errors.Is(err, models.ErrNegativeCredit) {
			claimsTotal.WithLabelValues("rejected").Inc()
			logger.Error().Int64("amount", computation.Amount).Msg("daily payout rejected by the ledger")
			return nil, pkgerrors.Wrap(err, "daily payout")
		}

		claimedAt := now
		outcome := &RewardOutcome{
			Amount:     computation.Amount,
			Multiplier: computation.Multiplier,
			Applied:    computation.Applied,
			ClaimedAt:  &claimedAt,
			ClaimID:    &receipt.ID,
		}

		if err != nil {
			logger.Error().Err(err).Msg("daily claim credit failed")
			claimsTotal.WithLabelValues("unknown").Inc()
			// the attempted claim is returned so the caller can VerifyClaim it
			return outcome, fmt.Errorf("%w: %w", ErrClaimOutcomeUnknown, err)
		}

		outcome.Authorized = true
		outcome.NewBalance = updated.Balance
		service.Settle(ctx, accountID, outcome)
		return outcome, nil
	}

	// every attempt lost a race, so someone else claimed this window
	account, err := service.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	decision := EvaluateCooldown(account.LastClaimAt, now, service.policy.Window)
	if decision.Authorized {
		return nil, ErrClaimContended
	}

	claimsTotal.WithLabelValues("denied").Inc()
	return &RewardOutcome{Remaining: decision.Remaining}, nil
}

// Settle finishes a claim that landed: it records it and pays the operator account.
// ClaimDailyReward calls it itself; callers that confirmed an unknown outcome
// through VerifyClaim call it once.
func (service *ServiceReward) Settle(ctx context.Context, accountID int64, outcome *RewardOutcome) {
	claimsTotal.WithLabelValues("authorized").Inc()
	payoutTotal.Add(float64(outcome.Amount))
	log.Info().
		Int64("account_id", accountID).
		Int64("amount", outcome.Amount).
		Float64("multiplier", outcome.Multiplier).
		Int64("balance", outcome.NewBalance).
		Msg("daily claimed")

	service.creditOperator(ctx, accountID, outcome.Amount)
	service.clearBalanceCache(ctx, accountID)
}

// creditOperator is best-effort: the user's claim already stands.
func (service *ServiceReward) creditOperator(ctx context.Context, accountID int64, amount int64) {
	operatorID := service.policy.OperatorAccountID
	if operatorID == 0 || operatorID == accountID || amount == 0 {
		return
	}

	if err := service.ledger.Credit(ctx, operatorID, amount); err != nil {
		operatorCreditFailuresTotal.Inc()
		log.Warn().Err(err).Int64("account_id", accountID).Int64("operator_id", operatorID).Int64("amount", amount).Msg("operator credit failed")
		return
	}

	service.clearBalanceCache(ctx, operatorID)
}

// VerifyClaim re-reads the ledger after ErrClaimOutcomeUnknown and reports
// whether the claim with receipt claimID, stamped at claimedAt, landed.
func (service *ServiceReward) VerifyClaim(ctx context.Context, accountID int64, claimedAt time.Time, claimID uuid.UUID) (*models.Account, bool, error) {
	account, err := service.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, false, storeUnavailable(err)
	}

	return account, account.HasClaimed(claimedAt.Truncate(CLAIM_TIMESTAMP_PRECISION), claimID), nil
}

// NextClaimAt returns when accountID may claim again, or nil if it never claimed.
func (service *ServiceReward) NextClaimAt(ctx context.Context, accountID int64) (*time.Time, error) {
	account, err := service.ledger.Get(ctx, accountID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	if account.LastClaimAt == nil {
		return nil, nil
	}

	next := account.LastClaimAt.Add(service.policy.Window)
	return &next, nil
}

// Balance is a cached read for display only.
func (service *ServiceReward) Balance(ctx context.Context, accountID int64) (int64, error) {
	callback := func() (int64, error) {
		account, err := service.ledger.Get(ctx, accountID)
		if err != nil {
			return 0, storeUnavailable(err)
		}
		return account.Balance, nil
	}

	if service.cache == nil {
		return callback()
	}

	return caching.UseCache(ctx, service.cache, DBKeyBalance(accountID), CACHE_TTL_15_SECONDS, callback)
}

func (service *ServiceReward) clearBalanceCache(ctx context.Context, accountID int64) {
	if service.cache == nil {
		return
	}

	if err := service.cache.Delete(ctx, DBKeyBalance(accountID)); err != nil {
		log.Debug().Err(err).Int64("account_id", accountID).Msg("balance cache delete failed")
	}
}

// storeUnavailable keeps both ErrStoreUnavailable and the cause matchable with errors.Is.
func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
