package handler

import (
	"errors"
	"time"

	"dice/internal/models"
	"dice/internal/pkg/limiter"
	"dice/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupDaily struct {
	container *do.Injector
}

type dailyClaimResponse struct {
	Authorized       bool                     `json:"authorized"`
	Amount           int64                    `json:"amount"`
	Multiplier       float64                  `json:"multiplier,omitempty"`
	Modifiers        []models.AppliedModifier `json:"modifiers,omitempty"`
	Balance          int64                    `json:"balance"`
	ClaimedAt        *time.Time               `json:"claimed_at,omitempty"`
	RemainingSeconds int64                    `json:"remaining_seconds,omitempty"`
	NextClaimAt      *time.Time               `json:"next_claim_at,omitempty"`
}

type dailyStatusResponse struct {
	Claimable   bool       `json:"claimable"`
	NextClaimAt *time.Time `json:"next_claim_at,omitempty"`
	Balance     int64      `json:"balance"`
}

func (gr *groupDaily) Claim(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceDaily, err := do.Invoke[*services.ServiceDaily](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	now := time.Now().UTC()
	outcome, err := serviceDaily.Claim(ctx, user.ID, now)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapDailyError(err))
	}

	if !outcome.Authorized {
		next := now.Add(outcome.Remaining)
		balance, err := serviceDaily.Reward().Balance(ctx, user.ID)
		if err != nil {
			return httpx.RestAbort(c, nil, wrapDailyError(err))
		}

		return httpx.RestAbort(c, dailyClaimResponse{
			Balance:          balance,
			RemainingSeconds: remainingSeconds(outcome.Remaining),
			NextClaimAt:      &next,
		}, nil)
	}

	return httpx.RestAbort(c, dailyClaimResponse{
		Authorized: true,
		Amount:     outcome.Amount,
		Multiplier: outcome.Multiplier,
		Modifiers:  outcome.Applied,
		Balance:    outcome.NewBalance,
		ClaimedAt:  outcome.ClaimedAt,
	}, nil)
}

func (gr *groupDaily) Status(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	next, err := serviceReward.NextClaimAt(ctx, user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapDailyError(err))
	}

	balance, err := serviceReward.Balance(ctx, user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapDailyError(err))
	}

	return httpx.RestAbort(c, dailyStatusResponse{
		Claimable:   next == nil || !time.Now().Before(*next),
		NextClaimAt: next,
		Balance:     balance,
	}, nil)
}

func (gr *groupDaily) Balance(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	balance, err := serviceReward.Balance(ctx, user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, wrapDailyError(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"balance": balance,
	}, nil)
}

// remainingSeconds rounds up so a pending wait never reads as zero.
func remainingSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

func wrapDailyError(err error) error {
	switch {
	case errors.Is(err, limiter.ErrRateLimited), errors.Is(err, services.ErrClaimContended):
		return errorx.Wrap(err, errorx.RateLimiting)
	default:
		return errorx.Wrap(err, errorx.Service)
	}
}
