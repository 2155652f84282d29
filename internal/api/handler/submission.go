package handler

import (
	"strconv"

	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupSubmission struct {
	container *do.Injector
}

type submitRequest struct {
	URL string `json:"url"`
}

func (gr *groupSubmission) Submit(c echo.Context) error {
	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	tweet, err := serviceSubmission.Submit(c.Request().Context(), user, req.URL)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, tweet, nil)
}

func (gr *groupSubmission) List(c echo.Context) error {
	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	if c.QueryParam("scope") == "me" {
		user, err := ResolveValidUser(c.Request().Context(), gr.container)
		if err != nil {
			return httpx.RestAbort(c, nil, err)
		}

		tweets, err := serviceSubmission.GetUserTweets(c.Request().Context(), user.ID, limit, offset)
		if err != nil {
			return httpx.RestAbort(c, nil, err)
		}

		return httpx.RestAbort(c, tweets, nil)
	}

	tweets, err := serviceSubmission.GetRecentTweets(c.Request().Context(), limit, offset)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, tweets, nil)
}
