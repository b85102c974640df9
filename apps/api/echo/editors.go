package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/form"
)

type editorApi struct {
	deps *Deps
}

func registerEditorAPI(g *echo.Group, deps *Deps) {
	api := editorApi{deps: deps}

	g.POST("", api.open)
	g.GET("/:id", api.get)
	g.DELETE("/:id", api.close)
	g.PUT("/:id/selection", api.selection)
	g.POST("/:id/reload", api.reload)
	g.POST("/:id/next", api.next)
	g.POST("/:id/back", api.back)
	g.POST("/:id/submit", api.submit)
}

type (
	openEditorRequest struct {
		ClassID string `json:"classId"`
	}

	selectionRequest struct {
		TeacherIDs []string `json:"teacherIds"`
		StudentIDs []string `json:"studentIds"`
	}

	submitResponse struct {
		ID string `json:"id"`
	}
)

// open opens an editor for classId, or for a new class when it is empty. The editor is
// created even when the class could not be fetched; its state then reports loaded=false.
func (api *editorApi) open(ctx echo.Context) error {
	var data openEditorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to openEditorRequest")
	}
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return err
	}
	ed, err := view.Editors.Open(ctx.Request().Context(), data.ClassID)
	if err != nil {
		api.deps.Logger.Warn("opening class editor", err)
	}
	return ctx.JSON(http.StatusCreated, ed.State())
}

func (api *editorApi) editor(ctx echo.Context) (*classroom.Editor, error) {
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return nil, err
	}
	ed, ok := view.Editors.Get(ctx.Param("id"))
	if !ok {
		return nil, errHttpNotFound
	}
	return ed, nil
}

func (api *editorApi) get(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ed.State())
}

func (api *editorApi) close(ctx echo.Context) error {
	view, err := sessionView(ctx, api.deps)
	if err != nil {
		return err
	}
	view.Editors.Close(ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *editorApi) selection(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	var data selectionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to selectionRequest")
	}
	if err = ed.Select(data.TeacherIDs, data.StudentIDs); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ed.State())
}

// reload fetches the class and the pools again; a failed fetch keeps the previous state.
func (api *editorApi) reload(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	if err = ed.Reload(ctx.Request().Context()); err != nil {
		if errors.Is(err, classroom.ErrEditorClosed) {
			return err
		}
		api.deps.Logger.Warn("reloading class editor", err)
	}
	return ctx.JSON(http.StatusOK, ed.State())
}

func (api *editorApi) next(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	var info classroom.Info
	if err = ctx.Bind(&info); err != nil {
		return errors.Wrap(err, "binding to classroom.Info")
	}
	if err = ed.Next(info); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ed.State())
}

func (api *editorApi) back(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	ed.Back()
	return ctx.JSON(http.StatusOK, ed.State())
}

func (api *editorApi) submit(ctx echo.Context) error {
	ed, err := api.editor(ctx)
	if err != nil {
		return err
	}
	var info classroom.Info
	if err = ctx.Bind(&info); err != nil {
		return errors.Wrap(err, "binding to classroom.Info")
	}
	res, err := ed.Submit(ctx.Request().Context(), info)
	if err != nil {
		return err
	}
	code := http.StatusOK
	if res.Outcome == form.Created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, submitResponse{ID: res.ID})
}
