package redis_store

import (
	"context"
	"fmt"
	"time"

	"dice/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyAccountReminder(accountID int64) string {
	return fmt.Sprintf("reminder:daily:%d", accountID)
}

func dbKeyReminderCursor() string {
	return "reminder:daily:cursor"
}

func SetReminder(ctx context.Context, cmd redis.Cmdable, v *models.Reminder, expiration time.Duration) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	err = cmd.Set(ctx, dbKeyAccountReminder(v.AccountID), b, expiration).Err()
	if err != nil {
		return err
	}

	return nil
}

func GetReminder(ctx context.Context, cmd redis.Cmdable, accountID int64) (*models.Reminder, error) {
	var v *models.Reminder
	b, err := cmd.Get(ctx, dbKeyAccountReminder(accountID)).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

// SetReminderCursor stores the upper bound of the last reminder scan.
func SetReminderCursor(ctx context.Context, cmd redis.Cmdable, cursor time.Time) error {
	return cmd.Set(ctx, dbKeyReminderCursor(), cursor.UnixMilli(), 0).Err()
}

func GetReminderCursor(ctx context.Context, cmd redis.Cmdable) (time.Time, error) {
	ms, err := cmd.Get(ctx, dbKeyReminderCursor()).Int64()
	if err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(ms).UTC(), nil
}
