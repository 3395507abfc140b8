package services

import (
	"context"
	"errors"
	"time"

	"dice/internal/datastore"
	"dice/internal/datastore/redis_store"
	"dice/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type Notifier interface {
	SendDailyReady(chatID int64) error
}

// ClaimableAccounts pages through accounts whose last claim lies in (from, to].
type ClaimableAccounts func(ctx context.Context, from, to time.Time, limit, offset int) ([]*models.Account, error)

// ServiceReminder tells accounts when their daily reward is ready again.
type ServiceReminder struct {
	accounts  ClaimableAccounts
	redis     redis.UniversalClient
	rs        *redsync.Redsync
	notifier  Notifier
	window    time.Duration
	batchSize int
}

func NewServiceReminder(container *do.Injector) (*ServiceReminder, error) {
	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[Notifier](container)
	if err != nil {
		return nil, err
	}

	policy, err := do.Invoke[*RewardPolicy](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	batchSize, err := serviceConfig.GetIntConfig(context.Background(), CONFIG_REMINDER_BATCH_SIZE, DEFAULT_REMINDER_BATCH_SIZE)
	if err != nil || batchSize <= 0 {
		batchSize = DEFAULT_REMINDER_BATCH_SIZE
	}

	accounts := func(ctx context.Context, from, to time.Time, limit, offset int) ([]*models.Account, error) {
		return datastore.GetAccountsClaimableBetween(ctx, readonlyPostgresDB, from, to, limit, offset)
	}

	return NewReminderService(accounts, redisDB, rs, notifier, policy.Window, batchSize), nil
}

func NewReminderService(accounts ClaimableAccounts, redisDB redis.UniversalClient, rs *redsync.Redsync, notifier Notifier, window time.Duration, batchSize int) *ServiceReminder {
	return &ServiceReminder{accounts, redisDB, rs, notifier, window, batchSize}
}

// Run notifies every account whose window reopened since the previous run and
// returns how many reminders were sent.
func (service *ServiceReminder) Run(ctx context.Context, now time.Time) (int, error) {
	mutex := service.rs.NewMutex(LockKeyReminder(), redsync.WithExpiry(5*time.Minute), redsync.WithTries(1))
	if err := mutex.TryLockContext(ctx); err != nil {
		return 0, ErrReminderLock
	}
	//nolint:errcheck
	defer mutex.UnlockContext(context.Background())

	cursor, err := redis_store.GetReminderCursor(ctx, service.redis)
	if errors.Is(err, redis.Nil) {
		cursor = now.Add(-DEFAULT_REMINDER_LOOKBACK)
	} else if err != nil {
		return 0, err
	}

	from := cursor.Add(-service.window)
	to := now.Add(-service.window)
	sent := 0

	for offset := 0; ; offset += service.batchSize {
		accounts, err := service.accounts(ctx, from, to, service.batchSize, offset)
		if err != nil {
			return sent, err
		}

		for _, account := range accounts {
			if service.remind(ctx, account, now) {
				sent++
			}
		}

		if len(accounts) < service.batchSize {
			break
		}
	}

	if err := redis_store.SetReminderCursor(ctx, service.redis, now); err != nil {
		return sent, err
	}

	log.Info().Int("sent", sent).Time("from", from).Time("to", to).Msg("daily reminders done")
	return sent, nil
}

func (service *ServiceReminder) remind(ctx context.Context, account *models.Account, now time.Time) bool {
	if account.LastClaimAt == nil {
		return false
	}

	logger := log.With().Int64("account_id", account.ID).Logger()

	previous, err := redis_store.GetReminder(ctx, service.redis, account.ID)
	if err == nil && previous.ForClaim.Equal(*account.LastClaimAt) {
		return false
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn().Err(err).Msg("reminder lookup failed")
		return false
	}

	if err := service.notifier.SendDailyReady(account.ID); err != nil {
		logger.Warn().Err(err).Msg("reminder send failed")
		return false
	}

	reminder := &models.Reminder{AccountID: account.ID, ForClaim: *account.LastClaimAt, SentAt: now}
	if err := redis_store.SetReminder(ctx, service.redis, reminder, service.window); err != nil {
		logger.Warn().Err(err).Msg("reminder save failed")
	}

	return true
}
