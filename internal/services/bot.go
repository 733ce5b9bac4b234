package services

import (
	"strings"
	"time"

	"walletproof/internal/models"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const INIT_DATA_MAX_AGE = 24 * time.Hour

type Bot struct {
	token string
}

func NewBot(token string) (*Bot, error) {
	return &Bot{token}, nil
}

// ValidateInitData checks the Telegram Mini App init data signature and turns
// its user into the identity the wallet challenges are issued for.
func (bot *Bot) ValidateInitData(dataStr string) (*models.UserFromAuth, error) {
	if err := initdata.Validate(dataStr, bot.token, INIT_DATA_MAX_AGE); err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}

	return &models.UserFromAuth{
		ID:           data.User.ID,
		Username:     strings.ToLower(data.User.Username),
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		LanguageCode: data.User.LanguageCode,
		PhotoURL:     data.User.PhotoURL,
	}, nil
}
