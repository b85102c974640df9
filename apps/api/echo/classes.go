package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
)

type classApi struct {
	deps *Deps
}

func registerClassAPI(g *echo.Group, deps *Deps) {
	api := classApi{deps: deps}

	g.GET("", api.list)
	g.POST("/refresh", api.refresh)
	g.GET("/:id", api.get)
	g.DELETE("/:id", api.delete)
	g.GET("/:id/roster.xlsx", api.export)
}

type (
	teacherView struct {
		classroom.Teacher
		DegreeLabel string `json:"degreeLabel"`
	}

	classDetail struct {
		classroom.Detail
		HomeroomTeacher *teacherView  `json:"homeroomTeacher"`
		Teachers        []teacherView `json:"teachers"`
	}
)

func newTeacherView(t classroom.Teacher) teacherView {
	return teacherView{Teacher: t, DegreeLabel: t.DegreeLabel()}
}

func newClassDetail(d classroom.Detail) classDetail {
	cd := classDetail{Detail: d, Teachers: make([]teacherView, 0, len(d.Teachers))}
	if d.HomeroomTeacher != nil {
		tv := newTeacherView(*d.HomeroomTeacher)
		cd.HomeroomTeacher = &tv
	}
	for _, t := range d.Teachers {
		cd.Teachers = append(cd.Teachers, newTeacherView(t))
	}
	if cd.Students == nil {
		cd.Students = []classroom.Person{}
	}
	return cd
}

// list returns the catalog of the session; ?search= first runs a new class search.
func (api *classApi) list(ctx echo.Context) error {
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return err
	}
	if search, ok := ctx.QueryParams()["search"]; ok {
		if err = view.Catalog.Search(ctx.Request().Context(), search[0]); err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, view.Catalog.Snapshot())
}

// refresh reloads the class list and both candidate pools.
func (api *classApi) refresh(ctx echo.Context) error {
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return err
	}
	if err = view.Catalog.Load(ctx.Request().Context(), catalog.AllKinds...); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view.Catalog.Snapshot())
}

func (api *classApi) get(ctx echo.Context) error {
	d, err := api.deps.ClassSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newClassDetail(d))
}

func (api *classApi) delete(ctx echo.Context) error {
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return err
	}
	if err = view.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) export(ctx echo.Context) error {
	var buf bytes.Buffer
	c, err := api.deps.ClassSvc.Export(ctx.Request().Context(), ctx.Param("id"), &buf)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", classroom.RosterFilename(c)))
	return ctx.Blob(http.StatusOK, classroom.RosterContentType, buf.Bytes())
}
