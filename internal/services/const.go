package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrStoreUnavailable             = errors.New("ledger store unavailable")
	// ErrClaimOutcomeUnknown means the conditional credit was sent but its result was lost.
	// Callers must VerifyClaim before telling the user it failed.
	ErrClaimOutcomeUnknown          = fmt.Errorf("%w: claim outcome unknown", ErrStoreUnavailable)
	ErrClaimContended               = errors.New("claim contended, try again")
	ErrInvalidModifierConfiguration = errors.New("invalid modifier configuration")
	ErrReminderLock                 = errors.New("reminder job locked")
)

const (
	CONFIG_SERVER_MODE          = "SERVER_MODE"
	CONFIG_DAILY_BASE_PAYOUT    = "DAILY_BASE_PAYOUT"
	CONFIG_DAILY_WINDOW_MINUTES = "DAILY_WINDOW_MINUTES"
	CONFIG_OPERATOR_ACCOUNT_ID  = "OPERATOR_ACCOUNT_ID"
	CONFIG_REMINDER_BATCH_SIZE  = "REMINDER_BATCH_SIZE"
	CONFIG_CRONJOB_TIME_REMIND  = "CRONJOB_TIME_REMINDER"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_STAGING     = "staging"
	SERVER_MODE_PRODUCTION  = "production"

	LEDGER_BACKEND_POSTGRES = "postgres"
	LEDGER_BACKEND_REDIS    = "redis"

	DEFAULT_DAILY_BASE_PAYOUT   = 1000
	// 23 hours so users have some wiggle room against drift
	DEFAULT_DAILY_WINDOW        = 23 * time.Hour
	DEFAULT_REMINDER_BATCH_SIZE = 100
	DEFAULT_REMINDER_LOOKBACK   = time.Hour
	DEFAULT_REMINDER_SCHEDULE   = "@every 5m"
	MAX_CLAIM_ATTEMPTS          = 2
	MAX_REWARD_MULTIPLIER       = 1000
	CLAIM_TIMESTAMP_PRECISION   = time.Millisecond
	DAILY_COMMAND_USAGES        = 1
	DAILY_COMMAND_THROTTLE      = 3 * time.Second

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute
	CACHE_TTL_5_MINS     = 5 * time.Minute
)

func LockKeyReminder() string {
	return "lock:daily-reminder"
}

func LimitKeyDailyCommand(accountID int64) string {
	return fmt.Sprintf("limit:daily:%d", accountID)
}

func DBKeyBalance(accountID int64) string {
	return fmt.Sprintf("balance:%d", accountID)
}

func DBKeyPatron(accountID int64) string {
	return fmt.Sprintf("patron:%d", accountID)
}

func DBKeyInvites(accountID int64) string {
	return fmt.Sprintf("invites:%d", accountID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", key)
}
