package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"dice/internal/assets"
	"dice/internal/datastore"
	"dice/internal/datastore/redis_store"
	"dice/internal/interfaces"
	"dice/internal/pkg/botlist"
	"dice/internal/pkg/caching"
	"dice/internal/pkg/limiter"
	"dice/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// optional envs and their defaults
var defaults = map[string]string{
	"API_MODE":       "production",
	"API_ORIGINS":    "*",
	"LEDGER_BACKEND": services.LEDGER_BACKEND_POSTGRES,
	"MODIFIERS_FILE": "",
	"CURRENCY_NAME":  "coins",
	"BOTLIST_TOKEN":  "",
	"BOTLIST_BOT_ID": "",
	"BOTLIST_URL":    botlist.DEFAULT_BASE_URL,
	"LOG_MODE":       services.SERVER_MODE_PRODUCTION,
}

func NewPostgres(dsn, password string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(password),
	))

	return bun.NewDB(sqldb, pgdialect.New())
}

// NewRedis prefers a cluster URL and falls back to a single node.
func NewRedis(clusterURL, url string, readOnly bool) (redis.UniversalClient, error) {
	if clusterURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterURL)
		if err != nil {
			return nil, err
		}
		clusterOpts.ReadOnly = readOnly
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: url,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func New(vs map[string]string) *do.Injector {
	injector := do.New()
	for k, v := range defaults {
		if vs[k] = os.Getenv(k); vs[k] == "" {
			vs[k] = v
		}
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		return NewPostgres(os.Getenv("DB_DSN"), os.Getenv("DB_PASSWORD")), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := firstNonEmpty(os.Getenv("DB_DSN_READONLY"), os.Getenv("DB_DSN"))
		password := firstNonEmpty(os.Getenv("DB_PASSWORD_READONLY"), os.Getenv("DB_PASSWORD"))
		return NewPostgres(dsn, password), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return NewRedis(os.Getenv("CLUSTER_REDIS_DB"), os.Getenv("REDIS_DB"), false)
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return NewRedis(os.Getenv("CLUSTER_REDIS_CACHE"), os.Getenv("REDIS_CACHE"), false)
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		clusterURL := firstNonEmpty(os.Getenv("CLUSTER_REDIS_CACHE_READONLY"), os.Getenv("CLUSTER_REDIS_CACHE"))
		url := firstNonEmpty(os.Getenv("REDIS_CACHE_READONLY"), os.Getenv("REDIS_CACHE"))
		return NewRedis(clusterURL, url, true)
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return NewRedis(os.Getenv("CLUSTER_REDIS_LIMITER"), os.Getenv("REDIS_LIMITER"), false)
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return NewRedis(os.Getenv("CLUSTER_REDIS_MUTEX"), os.Getenv("REDIS_MUTEX"), false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		return redsync.New(goredis.NewPool(dbRedis)), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Ledger, error) {
		switch vs["LEDGER_BACKEND"] {
		case services.LEDGER_BACKEND_POSTGRES:
			postgresDB, err := do.Invoke[*bun.DB](i)
			if err != nil {
				return nil, err
			}
			return datastore.NewLedger(postgresDB), nil
		case services.LEDGER_BACKEND_REDIS:
			dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
			if err != nil {
				return nil, err
			}
			return redis_store.NewLedger(dbRedis), nil
		default:
			return nil, fmt.Errorf("unknown ledger backend %q", vs["LEDGER_BACKEND"])
		}
	})

	do.Provide(injector, func(i *do.Injector) (*services.ModifierSet, error) {
		if path := vs["MODIFIERS_FILE"]; path != "" {
			return services.LoadModifierSetFile(path)
		}
		return services.LoadModifierSet(assets.DefaultModifiers)
	})

	do.Provide(injector, func(i *do.Injector) (*services.RewardPolicy, error) {
		modifiers, err := do.Invoke[*services.ModifierSet](i)
		if err != nil {
			return nil, err
		}

		serviceConfig, err := do.Invoke[*services.ServiceConfig](i)
		if err != nil {
			return nil, err
		}

		policy, err := serviceConfig.RewardPolicy(context.Background(), modifiers)
		if err != nil {
			return nil, err
		}

		log.Info().
			Int64("base", policy.BaseAmount).
			Dur("window", policy.Window).
			Int64("operator_id", policy.OperatorAccountID).
			Strs("modifiers", modifiers.IDs()).
			Msg("reward policy loaded")
		return policy, nil
	})

	if vs["BOTLIST_TOKEN"] != "" {
		do.Provide(injector, func(i *do.Injector) (services.VoteChecker, error) {
			return botlist.NewClient(vs["BOTLIST_TOKEN"], vs["BOTLIST_BOT_ID"], botlist.WithBaseURL(vs["BOTLIST_URL"])), nil
		})
	}

	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		return services.NewBot(vs["BOT_TOKEN"], vs["CURRENCY_NAME"])
	})

	do.Provide(injector, func(i *do.Injector) (services.Notifier, error) {
		return do.Invoke[*services.Bot](i)
	})

	do.Provide(injector, services.NewServiceConfig)
	do.Provide(injector, services.NewServiceReward)
	do.Provide(injector, services.NewServiceEligibility)
	do.Provide(injector, services.NewServiceDaily)
	do.Provide(injector, services.NewServiceReferral)
	do.Provide(injector, services.NewServiceReminder)

	return injector
}
