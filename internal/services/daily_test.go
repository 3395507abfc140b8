package services

import (
	"context"
	"errors"
	"testing"

	"dice/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	err   error
	keys  []string
	limit redis_rate.Limit
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	l.keys = append(l.keys, key)
	l.limit = limit
	return l.err
}

type fakeResolver struct {
	eligibility Eligibility
	err         error
}

func (r *fakeResolver) Resolve(ctx context.Context, accountID int64) (Eligibility, error) {
	return r.eligibility, r.err
}

func TestServiceDailyClaim(t *testing.T) {
	ledger := newFakeLedger()
	l := &fakeLimiter{}
	service := NewDailyService(l, &fakeResolver{eligibility: Eligibility{Voted: true, Weekend: true}}, newTestRewardService(t, ledger, 0))

	outcome, err := service.Claim(context.Background(), testAccountID, claimTime)
	require.NoError(t, err)
	assert.True(t, outcome.Authorized)
	assert.Equal(t, int64(4000), outcome.Amount)

	assert.Equal(t, []string{LimitKeyDailyCommand(testAccountID)}, l.keys)
	assert.Equal(t, DAILY_COMMAND_USAGES, l.limit.Rate)
	assert.Equal(t, DAILY_COMMAND_THROTTLE, l.limit.Period)
}

func TestServiceDailyClaimThrottled(t *testing.T) {
	ledger := newFakeLedger()
	service := NewDailyService(&fakeLimiter{err: limiter.ErrRateLimited}, &fakeResolver{}, newTestRewardService(t, ledger, 0))

	_, err := service.Claim(context.Background(), testAccountID, claimTime)
	assert.ErrorIs(t, err, limiter.ErrRateLimited)
	assert.Zero(t, ledger.casCalls)
}

func TestServiceDailyClaimDegrades(t *testing.T) {
	ledger := newFakeLedger()
	service := NewDailyService(
		&fakeLimiter{err: errors.New("limiter redis down")},
		&fakeResolver{eligibility: Eligibility{Voted: true}, err: errors.New("patron lookup failed")},
		newTestRewardService(t, ledger, 0),
	)

	outcome, err := service.Claim(context.Background(), testAccountID, claimTime)
	require.NoError(t, err)
	assert.True(t, outcome.Authorized)
	assert.Equal(t, int64(1000), outcome.Amount, "unknown eligibility pays the base amount")
}

func TestServiceDailyClaimVerifiesUnknownOutcome(t *testing.T) {
	t.Run("landed", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.afterCAS = func() error { return errors.New("i/o timeout") }
		service := NewDailyService(&fakeLimiter{}, &fakeResolver{}, newTestRewardService(t, ledger, 0))

		outcome, err := service.Claim(context.Background(), testAccountID, claimTime)
		require.NoError(t, err)
		assert.True(t, outcome.Authorized)
		assert.Equal(t, int64(1000), outcome.Amount)
		assert.Equal(t, int64(1000), outcome.NewBalance)
	})

	t.Run("landed pays the operator", func(t *testing.T) {
		const operatorID int64 = 7
		ledger := newFakeLedger()
		ledger.afterCAS = func() error { return errors.New("i/o timeout") }
		service := NewDailyService(&fakeLimiter{}, &fakeResolver{}, newTestRewardService(t, ledger, operatorID))

		outcome, err := service.Claim(context.Background(), testAccountID, claimTime)
		require.NoError(t, err)
		assert.True(t, outcome.Authorized)
		assert.Equal(t, outcome.Amount, ledger.balance(operatorID))
		assert.Equal(t, int64(1000), ledger.balance(testAccountID))
	})

	t.Run("someone else landed", func(t *testing.T) {
		const operatorID int64 = 7
		ledger := newFakeLedger()
		ledger.beforeCAS = func(l *fakeLedger, accountID int64) error {
			l.stampAs(accountID, claimTime, 1000)
			return errors.New("i/o timeout")
		}
		service := NewDailyService(&fakeLimiter{}, &fakeResolver{}, newTestRewardService(t, ledger, operatorID))

		_, err := service.Claim(context.Background(), testAccountID, claimTime)
		assert.ErrorIs(t, err, ErrClaimOutcomeUnknown)
		assert.Zero(t, ledger.balance(operatorID))
	})

	t.Run("lost", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.beforeCAS = func(l *fakeLedger, accountID int64) error { return errors.New("broken pipe") }
		service := NewDailyService(&fakeLimiter{}, &fakeResolver{}, newTestRewardService(t, ledger, 0))

		_, err := service.Claim(context.Background(), testAccountID, claimTime)
		assert.ErrorIs(t, err, ErrClaimOutcomeUnknown)
	})
}
