package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core/form"
	"github.com/Shin40411/Lms-client/core/subject"
)

type subjectApi struct {
	deps *Deps
}

func registerSubjectAPI(g *echo.Group, deps *Deps) {
	api := subjectApi{deps: deps}

	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.get)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)
}

func (api *subjectApi) list(ctx echo.Context) error {
	page, err := api.deps.SubjectSvc.Query(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *subjectApi) get(ctx echo.Context) error {
	s, err := api.deps.SubjectSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) create(ctx echo.Context) error {
	return api.save(ctx, "")
}

func (api *subjectApi) update(ctx echo.Context) error {
	return api.save(ctx, ctx.Param("id"))
}

func (api *subjectApi) save(ctx echo.Context, id string) error {
	var data subject.Form
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to subject.Form")
	}
	res, err := api.deps.SubjectSvc.Save(ctx.Request().Context(), id, data, sessionNotifier(ctx, api.deps), nil)
	if err != nil {
		return err
	}
	code := http.StatusOK
	if res.Outcome == form.Created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, res)
}

func (api *subjectApi) delete(ctx echo.Context) error {
	if err := api.deps.SubjectSvc.Delete(ctx.Request().Context(), ctx.Param("id"), sessionNotifier(ctx, api.deps)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
