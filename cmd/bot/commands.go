package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dice/internal/pkg/limiter"
	"dice/internal/services"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const (
	commandTimeout = 10 * time.Second

	textStart = `🎲 Welcome to Dice!

Collect free %s every day with /daily and check them with /balance.
Invite friends with your link to unlock bigger payouts:
https://t.me/%s?start=%d`
	textHelp = `List of commands:
/daily - Collect your daily %s
/balance - Check your balance
/start - Get your invite link`
	textDailyWait    = "🕓 You must wait %s before collecting your daily %s. Remember to vote each day and get double %s."
	textDailyPaid    = "You were paid %s %s. Your balance is now %s %s.\n%s"
	textThrottled    = "Slow down! You can use /daily once every %d seconds."
	textTryAgain     = "Someone is claiming for you right now, try again in a moment."
	textUnavailable  = "The bank is not reachable right now, please try again later."
	textBalance      = "💰 You have %s %s."
	textReferralDone = "You joined through an invite. Welcome aboard!"
)

func commandStart(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	currency := getContextCurrency(c)
	sender := c.Sender()

	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		if inviterID, err := strconv.ParseInt(payload, 10, 64); err == nil {
			serviceReferral, err := getContextService[*services.ServiceReferral](c)
			if err != nil {
				return err
			}

			added, err := serviceReferral.AddReferral(ctx, sender.ID, inviterID)
			if err != nil && !errors.Is(err, services.ErrSelfReferral) {
				log.Error().Err(err).Int64("account_id", sender.ID).Msg("add referral failed")
			}
			if added {
				//nolint:errcheck
				c.Send(textReferralDone)
			}
		}
	}

	return c.Send(fmt.Sprintf(textStart, currency, c.Bot().Me.Username, sender.ID))
}

func commandHelp(c tele.Context) error {
	return c.Send(fmt.Sprintf(textHelp, getContextCurrency(c)))
}

func commandDaily(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	currency := getContextCurrency(c)

	serviceDaily, err := getContextService[*services.ServiceDaily](c)
	if err != nil {
		return err
	}

	outcome, err := serviceDaily.Claim(ctx, c.Sender().ID, time.Now())
	switch {
	case errors.Is(err, limiter.ErrRateLimited):
		return c.Reply(fmt.Sprintf(textThrottled, int(services.DAILY_COMMAND_THROTTLE/time.Second)))
	case errors.Is(err, services.ErrClaimContended):
		return c.Reply(textTryAgain)
	case err != nil:
		log.Error().Err(err).Int64("account_id", c.Sender().ID).Msg("daily failed")
		return c.Reply(textUnavailable)
	}

	if !outcome.Authorized {
		return c.Reply(fmt.Sprintf(textDailyWait, FormatWait(outcome.Remaining), currency, currency))
	}

	note := formatModifierNote(outcome.Multiplier, outcome.Applied)
	return c.Reply(fmt.Sprintf(textDailyPaid, FormatAmount(outcome.Amount), currency, FormatAmount(outcome.NewBalance), currency, note))
}

func commandBalance(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	serviceReward, err := getContextService[*services.ServiceReward](c)
	if err != nil {
		return err
	}

	balance, err := serviceReward.Balance(ctx, c.Sender().ID)
	if err != nil {
		log.Error().Err(err).Int64("account_id", c.Sender().ID).Msg("balance failed")
		return c.Reply(textUnavailable)
	}

	return c.Reply(fmt.Sprintf(textBalance, FormatAmount(balance), getContextCurrency(c)))
}
