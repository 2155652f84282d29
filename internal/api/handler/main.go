package handler

import (
	"net/http"

	"layeredge/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container     *do.Injector
	Mode          string
	Origins       []string
	RefreshSecret string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "⛰️")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		a := groupAuth{cfg.Container}
		routesAPIv1.GET("/auth/x/login", a.Login)
		routesAPIv1.GET("/auth/x/callback", a.Callback)

		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		u := groupUser{cfg.Container}
		routesAPIv1.GET("/user/me", u.Me)
		routesAPIv1.GET("/user/me/points", u.PointsHistory)

		s := groupSubmission{cfg.Container}
		routesAPIv1.POST("/submissions", s.Submit)
		routesAPIv1.GET("/submissions", s.List)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard", l.GetOverallLeaderboard)

		q := groupQuest{cfg.Container}
		routesAPIv1.GET("/quests", q.List)
		routesAPIv1.POST("/quest/:id/start", q.Start)
		routesAPIv1.POST("/quest/:id/submit", q.Submit)
		routesAPIv1.POST("/quest/:id/claim", q.Claim)
		routesAPIv1.POST("/quest/:id/redirect", q.Redirect)

		ch := groupChat{cfg.Container}
		routesAPIv1.POST("/chat", ch.Ask)

		routesAPIv1Internal := routesAPIv1.Group("/internal")
		{
			routesAPIv1Internal.Use(AuthnScheduler(cfg.RefreshSecret))
			m := groupMonitor{cfg.Container}
			routesAPIv1Internal.POST("/refresh", m.Refresh)
			routesAPIv1Internal.POST("/quest/:id/verify", m.VerifyQuest)
		}
	}

	return r, nil
}
