package main

import (
	"os"
	"time"

	"dice/internal/container"
	"dice/internal/pkg/logging"
	"dice/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

const (
	contextContainer = "context-container"
	contextCurrency  = "context-currency"
)

func main() {
	app := &cli.App{
		Name: "bot-telegram",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"DB_DSN",
	)
	if err != nil {
		return err
	}

	injector := container.New(vs)
	logging.Setup(vs["LOG_MODE"])

	// fail fast on a broken modifier policy or config
	if _, err := do.Invoke[*services.ServiceDaily](injector); err != nil {
		return err
	}

	pref := tele.Settings{
		Token:  vs["BOT_TOKEN"],
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("bot handler failed")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer c.Respond()
			}

			c.Set(contextContainer, injector)
			c.Set(contextCurrency, vs["CURRENCY_NAME"])
			return next(c)
		}
	})

	b.Handle("/start", commandStart)
	b.Handle("/help", commandHelp)
	b.Handle("/daily", commandDaily)
	b.Handle("/dailies", commandDaily)
	b.Handle("/balance", commandBalance)

	log.Info().Str("bot", b.Me.Username).Msg("bot started")
	b.Start()

	return nil
}
