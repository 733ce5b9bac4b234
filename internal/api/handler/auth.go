package handler

import (
	"errors"

	"walletproof/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAuth struct {
	container *do.Injector
}

type telegramLoginRequest struct {
	InitData string `json:"init_data"`
}

// Telegram exchanges Mini App init data for an access token.
func (gr *groupAuth) Telegram(c echo.Context) error {
	ctx := c.Request().Context()

	var req telegramLoginRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	bot, err := do.Invoke[*services.Bot](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	userAuth, err := bot.ValidateInitData(req.InitData)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid init data"), errorx.Authn))
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	user, err := serviceUser.FindOrCreateUser(ctx, userAuth)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	authentication, err := do.Invoke[*services.Authentication](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	token, err := authentication.CreateToken(user)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"token": token,
		"user":  user,
	}, nil)
}
