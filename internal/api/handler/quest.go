package handler

import (
	"strconv"

	"layeredge/internal/models"
	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupQuest struct {
	container *do.Injector
}

func (gr *groupQuest) List(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	quests, err := serviceQuest.GetQuestsForUser(c.Request().Context(), user.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, quests, nil)
}

func (gr *groupQuest) Start(c echo.Context) error {
	return gr.action(c, func(serviceQuest *services.ServiceQuest, user *models.User, questID int64) (*models.UserQuest, error) {
		return serviceQuest.Start(c.Request().Context(), user, questID)
	})
}

func (gr *groupQuest) Submit(c echo.Context) error {
	return gr.action(c, func(serviceQuest *services.ServiceQuest, user *models.User, questID int64) (*models.UserQuest, error) {
		return serviceQuest.Submit(c.Request().Context(), user, questID)
	})
}

func (gr *groupQuest) Claim(c echo.Context) error {
	return gr.action(c, func(serviceQuest *services.ServiceQuest, user *models.User, questID int64) (*models.UserQuest, error) {
		return serviceQuest.Claim(c.Request().Context(), user, questID)
	})
}

func (gr *groupQuest) Redirect(c echo.Context) error {
	return gr.action(c, func(serviceQuest *services.ServiceQuest, user *models.User, questID int64) (*models.UserQuest, error) {
		return serviceQuest.Redirect(c.Request().Context(), user, questID)
	})
}

func (gr *groupQuest) action(c echo.Context, fn func(*services.ServiceQuest, *models.User, int64) (*models.UserQuest, error)) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := ResolveValidUser(c.Request().Context(), gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userQuest, err := fn(serviceQuest, user, questID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, userQuest, nil)
}
