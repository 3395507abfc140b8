package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"dice/internal/container"
	"dice/internal/datastore"
	"dice/internal/models"
	"dice/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSetConfig(),
			commandSetPatron(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Description: "Create tables",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			steps := []struct {
				name string
				fn   func(context.Context, *bun.DB) error
			}{
				{"account", datastore.CreateTableAccount},
				{"daily_claim", datastore.CreateTableDailyClaim},
				{"config", datastore.CreateTableConfig},
				{"patron", datastore.CreateTablePatron},
				{"referral", datastore.CreateTableReferral},
			}

			for _, step := range steps {
				if err := step.fn(ctx, db); err != nil {
					return fmt.Errorf("create table %s: %w", step.name, err)
				}
				log.Info().Str("table", step.name).Msg("table ready")
			}

			log.Info().Msg("Migration success")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			configs := []models.Config{
				{Key: services.CONFIG_SERVER_MODE, Value: services.SERVER_MODE_PRODUCTION},
				{Key: services.CONFIG_DAILY_BASE_PAYOUT, Value: strconv.Itoa(services.DEFAULT_DAILY_BASE_PAYOUT)},
				{Key: services.CONFIG_DAILY_WINDOW_MINUTES, Value: strconv.Itoa(int(services.DEFAULT_DAILY_WINDOW / time.Minute))},
				{Key: services.CONFIG_OPERATOR_ACCOUNT_ID, Value: "0"},
				{Key: services.CONFIG_REMINDER_BATCH_SIZE, Value: strconv.Itoa(services.DEFAULT_REMINDER_BATCH_SIZE)},
				{Key: services.CONFIG_CRONJOB_TIME_REMIND, Value: services.DEFAULT_REMINDER_SCHEDULE},
			}

			if err := datastore.InsertConfigDefaults(ctx, db, configs); err != nil {
				return err
			}

			log.Info().Int("keys", len(configs)).Msg("Migration success")
			return nil
		},
	}
}

func commandSetConfig() *cli.Command {
	return &cli.Command{
		Name:        "set-config",
		Description: "Change one config value",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Required: true},
			&cli.StringFlag{Name: "value", Required: true},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			config, err := datastore.EditConfig(ctx, db, &models.Config{Key: c.String("key"), Value: c.String("value")})
			if err != nil {
				return err
			}

			log.Info().Str("key", config.Key).Str("value", config.Value).Msg("config updated")
			return nil
		},
	}
}

func commandSetPatron() *cli.Command {
	return &cli.Command{
		Name:        "set-patron",
		Description: "Grant a patron tier to an account",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "account", Required: true},
			&cli.StringFlag{Name: "tier", Value: models.PATRON_TIER_BASIC},
		},
		Action: func(c *cli.Context) error {
			tier := c.String("tier")
			if tier != models.PATRON_TIER_BASIC && tier != models.PATRON_TIER_PREMIUM {
				return errors.New("tier must be basic or premium")
			}

			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			patron := &models.Patron{AccountID: c.Int64("account"), Tier: tier, CreatedAt: time.Now()}
			if err := datastore.UpsertPatron(ctx, db, patron); err != nil {
				return err
			}

			log.Info().Int64("account_id", patron.AccountID).Str("tier", tier).Msg("patron saved")
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	vs, err := env.EnvsRequired("DB_DSN")
	if err != nil {
		return nil, err
	}

	return container.NewPostgres(vs["DB_DSN"], os.Getenv("DB_PASSWORD")), nil
}
