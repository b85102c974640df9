package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/form"
	"github.com/Shin40411/Lms-client/core/user"
)

type userApi struct {
	deps *Deps
}

func registerUserAPI(g *echo.Group, deps *Deps) {
	api := userApi{deps: deps}

	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.get)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)
}

func (api *userApi) list(ctx echo.Context) error {
	page, err := api.deps.UserSvc.Filter(ctx.Request().Context(), bindUserFilter(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *userApi) get(ctx echo.Context) error {
	u, err := api.deps.UserSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, u)
}

func (api *userApi) create(ctx echo.Context) error {
	return api.save(ctx, "")
}

func (api *userApi) update(ctx echo.Context) error {
	return api.save(ctx, ctx.Param("id"))
}

func (api *userApi) save(ctx echo.Context, id string) error {
	var data user.Form
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to user.Form")
	}
	res, err := api.deps.UserSvc.Save(ctx.Request().Context(), id, data, sessionNotifier(ctx, api.deps), api.poolRefresher(ctx))
	if err != nil {
		return err
	}
	code := http.StatusOK
	if res.Outcome == form.Created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, res)
}

func (api *userApi) delete(ctx echo.Context) error {
	ctxReq := ctx.Request().Context()
	if err := api.deps.UserSvc.Delete(ctxReq, ctx.Param("id"), sessionNotifier(ctx, api.deps)); err != nil {
		return err
	}
	api.poolRefresher(ctx).Refresh(ctxReq)
	return ctx.NoContent(http.StatusNoContent)
}

// poolRefresher reloads the candidate pools of the session catalog. A view not populated yet
// gets its first full load.
func (api *userApi) poolRefresher(ctx echo.Context) form.Refresher {
	return form.RefreshFunc(func(c context.Context) {
		sess, ok := contextSession(ctx)
		if !ok {
			return
		}
		if v, created := api.deps.Views.Get(sess.ID); !created {
			_ = v.Catalog.Load(c, catalog.KindTeachers, catalog.KindStudents)
		} else {
			_ = v.Catalog.Load(c)
		}
	})
}
