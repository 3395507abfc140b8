package main

import (
	"context"
	"fmt"
	"os"

	"dice/internal/container"
	"dice/internal/datastore"
	"dice/internal/datastore/redis_store"
	"dice/internal/interfaces"
	"dice/internal/models"
	"dice/internal/pkg/caching"
	"dice/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "debugger",
		Commands: []*cli.Command{
			commandInspectAccount(),
			commandClearAccountCache(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("debugger failed")
	}
}

func newInjector() (*do.Injector, error) {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"DB_DSN",
	)
	if err != nil {
		return nil, err
	}

	return container.New(vs), nil
}

func commandInspectAccount() *cli.Command {
	return &cli.Command{
		Name: "inspect-account",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "account", Required: true},
			&cli.IntFlag{Name: "claims", Value: 10},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			injector, err := newInjector()
			if err != nil {
				return err
			}

			accountID := c.Int64("account")
			ledger, err := do.Invoke[interfaces.Ledger](injector)
			if err != nil {
				return err
			}

			account, err := ledger.Get(ctx, accountID)
			if err != nil {
				return err
			}

			fmt.Printf("account %d balance=%d last_claim_at=%v\n", account.ID, account.Balance, account.LastClaimAt)

			claims, err := recentClaims(ctx, injector, accountID, c.Int("claims"))
			if err != nil {
				return err
			}

			for _, claim := range claims {
				fmt.Printf("  %s %s amount=%d multiplier=%g modifiers=%d\n", claim.ClaimedAt.Format("2006-01-02 15:04:05.000"), claim.ID, claim.Amount, claim.Multiplier, len(claim.Modifiers))
			}

			return nil
		},
	}
}

func recentClaims(ctx context.Context, injector *do.Injector, accountID int64, num int) ([]*models.DailyClaim, error) {
	vs := do.MustInvokeNamed[map[string]string](injector, "envs")
	if vs["LEDGER_BACKEND"] == services.LEDGER_BACKEND_REDIS {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](injector, "redis-db")
		if err != nil {
			return nil, err
		}
		return redis_store.GetClaimReceipts(ctx, dbRedis, accountID, num)
	}

	postgresDB, err := do.Invoke[*bun.DB](injector)
	if err != nil {
		return nil, err
	}
	return datastore.GetDailyClaimsByAccount(ctx, postgresDB, accountID, num)
}

func commandClearAccountCache() *cli.Command {
	return &cli.Command{
		Name: "clear-account-cache",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "account", Required: true},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			injector, err := newInjector()
			if err != nil {
				return err
			}

			cache, err := do.Invoke[caching.Cache](injector)
			if err != nil {
				return err
			}

			accountID := c.Int64("account")
			for _, key := range []string{
				services.DBKeyBalance(accountID),
				services.DBKeyPatron(accountID),
				services.DBKeyInvites(accountID),
			} {
				if err := cache.Delete(ctx, key); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("delete failed")
				}
			}

			log.Info().Int64("account_id", accountID).Msg("account cache cleared")
			return nil
		},
	}
}
