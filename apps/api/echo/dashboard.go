package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultActivityLimit = 20

type dashboardApi struct {
	deps *Deps
}

func registerDashboardAPI(g *echo.Group, deps *Deps) {
	api := dashboardApi{deps: deps}

	g.GET("/overview", api.overview)
	g.GET("/notifications", api.notifications)
	g.GET("/roles", api.roles)
	g.GET("/activity", api.activity)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Overview.Summary(ctx.Request().Context()))
}

// notifications drains the toasts queued for the session.
func (api *dashboardApi) notifications(ctx echo.Context) error {
	sess, ok := contextSession(ctx)
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, api.deps.Notices.Drain(sess.ID))
}

func (api *dashboardApi) roles(ctx echo.Context) error {
	page, err := api.deps.Roles.QueryRoles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	page.Results = page.Items()
	return ctx.JSON(http.StatusOK, page)
}

func (api *dashboardApi) activity(ctx echo.Context) error {
	limit := intQuery(ctx, "limit", defaultActivityLimit)
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	entries, err := api.deps.Activity.Recent(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing activity")
	}
	return ctx.JSON(http.StatusOK, entries)
}
