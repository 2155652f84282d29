package handler

import (
	"errors"
	"strconv"

	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupMonitor struct {
	container *do.Injector
}

func (gr *groupMonitor) Refresh(c echo.Context) error {
	serviceMonitor, err := do.Invoke[*services.ServiceMonitor](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	summary, err := serviceMonitor.RefreshCycle(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, summary, nil)
}

type verifyQuestRequest struct {
	UserID int64 `json:"user_id"`
}

// VerifyQuest marks a manually checked quest as completed for one user.
// Called by the verification tooling, not by end users.
func (gr *groupMonitor) VerifyQuest(c echo.Context) error {
	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	var req verifyQuestRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}
	if req.UserID <= 0 {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing user_id"), errorx.Validation))
	}

	userQuest, err := serviceQuest.Verify(c.Request().Context(), req.UserID, questID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, userQuest, nil)
}
