package handler

import (
	"errors"

	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupChat struct {
	container *do.Injector
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (gr *groupChat) Ask(c echo.Context) error {
	serviceChat, err := do.Invoke[*services.ServiceChat](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	if req.Question == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("empty question"), errorx.Validation))
	}

	answer, err := serviceChat.Ask(ctx, user, req.Question)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, &chatResponse{Answer: answer}, nil)
}
