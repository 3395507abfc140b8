package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"dice/internal/datastore"
	"dice/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceConfig struct {
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	readOnlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{readonlyPostgresDB, cache, readOnlyCache}, nil
}

func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if errors.Is(err, sql.ErrNoRows) {
			return defaultValue, nil
		}
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetInt64Config(ctx context.Context, key string, defaultValue int64) (int64, error) {
	value, err := service.GetStringConfig(ctx, key, strconv.FormatInt(defaultValue, 10))
	if err != nil {
		return defaultValue, err
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue, err
	}

	return intValue, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := service.GetInt64Config(ctx, key, int64(defaultValue))
	return int(value), err
}

// RewardPolicy reads the tunable parts of the daily reward from the config table.
func (service *ServiceConfig) RewardPolicy(ctx context.Context, modifiers *ModifierSet) (*RewardPolicy, error) {
	base, err := service.GetInt64Config(ctx, CONFIG_DAILY_BASE_PAYOUT, DEFAULT_DAILY_BASE_PAYOUT)
	if err != nil {
		return nil, err
	}

	windowMinutes, err := service.GetInt64Config(ctx, CONFIG_DAILY_WINDOW_MINUTES, int64(DEFAULT_DAILY_WINDOW/time.Minute))
	if err != nil {
		return nil, err
	}

	operatorID, err := service.GetInt64Config(ctx, CONFIG_OPERATOR_ACCOUNT_ID, 0)
	if err != nil {
		return nil, err
	}

	if base < 0 {
		return nil, errors.New("daily base payout must not be negative")
	}
	if windowMinutes <= 0 {
		return nil, errors.New("daily window must be positive")
	}
	if err := CheckPayoutRange(base, modifiers); err != nil {
		return nil, err
	}

	return &RewardPolicy{
		BaseAmount:        base,
		Window:            time.Duration(windowMinutes) * time.Minute,
		OperatorAccountID: operatorID,
		Modifiers:         modifiers,
	}, nil
}

// CheckPayoutRange rejects a base payout that the modifiers could push past int64.
func CheckPayoutRange(base int64, modifiers *ModifierSet) error {
	if float64(base)*modifiers.MaxMultiplier() >= float64(math.MaxInt64) {
		return fmt.Errorf("%w: base payout %d times multiplier %v overflows", ErrInvalidModifierConfiguration, base, modifiers.MaxMultiplier())
	}
	return nil
}
