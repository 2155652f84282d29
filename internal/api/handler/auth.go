package handler

import (
	"errors"

	"layeredge/internal/models"
	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAuth struct {
	container *do.Injector
}

type loginResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

type callbackResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

func (gr *groupAuth) Login(c echo.Context) error {
	serviceAuth, err := do.Invoke[*services.ServiceAuth](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	url, err := serviceAuth.BeginLogin(c.Request().Context(), c.QueryParam("redirect_uri"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, &loginResponse{AuthorizationURL: url}, nil)
}

func (gr *groupAuth) Callback(c echo.Context) error {
	serviceAuth, err := do.Invoke[*services.ServiceAuth](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing state or code"), errorx.Invalid))
	}

	token, user, err := serviceAuth.CompleteLogin(c.Request().Context(), state, code)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, &callbackResponse{AccessToken: token, User: user}, nil)
}
