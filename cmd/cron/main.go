package main

import (
	"os"

	"dice/internal/container"
	"dice/internal/pkg/logging"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
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
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
			commandRemindOnce(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("cronjob stopped")
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

	injector := container.New(vs)
	logging.Setup(vs["LOG_MODE"])
	return injector, nil
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			injector, err := newInjector()
			if err != nil {
				return err
			}

			job, err := NewReminderJob(injector)
			if err != nil {
				return err
			}

			cronRunner := cron.New()
			if err := job.Start(c.Context, cronRunner); err != nil {
				return err
			}

			log.Info().Msg("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func commandRemindOnce() *cli.Command {
	return &cli.Command{
		Name:  "remind",
		Usage: "run the daily reminder sweep once",
		Action: func(c *cli.Context) error {
			injector, err := newInjector()
			if err != nil {
				return err
			}

			job, err := NewReminderJob(injector)
			if err != nil {
				return err
			}

			job.run()
			return nil
		},
	}
}
