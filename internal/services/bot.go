package services

import (
	"fmt"
	"os"

	"dice/internal/models"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	tele "gopkg.in/telebot.v3"
)

const textDailyReady = `🎲 Your daily %s are ready!

Use /daily to collect them. Vote for the bot each day to double your payout.`

type Bot struct {
	token    string
	currency string
	instance *tele.Bot
}

func NewBot(token string, currency string) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}

	return &Bot{token, currency, b}, nil
}

func (bot *Bot) ValidateInitData(dataStr string) (*models.UserFromAuth, error) {
	if os.Getenv("SKIP_INIT_DATA_VALIDATION") != "true" {
		if err := initdata.Validate(dataStr, bot.token, 0); err != nil {
			return nil, err
		}
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}

	return &models.UserFromAuth{
		ID:           data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		IsBot:        data.User.IsBot,
		IsPremium:    data.User.IsPremium,
		LanguageCode: data.User.LanguageCode,
	}, nil
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	_, err := bot.instance.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}

func (bot *Bot) SendDailyReady(chatID int64) error {
	return bot.SendMsg(chatID, fmt.Sprintf(textDailyReady, bot.currency))
}
