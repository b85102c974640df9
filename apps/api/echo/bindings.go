package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/user"
)

// boolQuery parses the query param name; nil when absent or not a bool.
func boolQuery(ctx echo.Context, name string) *bool {
	v := ctx.QueryParam(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// intQuery parses the query param name, def when absent or invalid.
func intQuery(ctx echo.Context, name string, def int) int {
	n, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

// bindUserFilter reads ?search=&role=&role=&status=&isTeacher=&isStudent=&hasClassroom=&hasHomeroom=
func bindUserFilter(ctx echo.Context) user.Filter {
	return user.Filter{
		Search:       ctx.QueryParam("search"),
		Roles:        ctx.QueryParams()["role"],
		Status:       ctx.QueryParam("status"),
		IsTeacher:    boolQuery(ctx, "isTeacher"),
		IsStudent:    boolQuery(ctx, "isStudent"),
		HasClassroom: boolQuery(ctx, "hasClassroom"),
		HasHomeroom:  boolQuery(ctx, "hasHomeroom"),
	}
}

// sessionView returns the classes view of the current session, populated on first use.
func sessionView(ctx echo.Context, deps *Deps) (*catalog.View, error) {
	sess, ok := contextSession(ctx)
	if !ok {
		return nil, errUnauthorized
	}
	v, created := deps.Views.Get(sess.ID)
	if created {
		if err := v.Catalog.Load(ctx.Request().Context()); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// sessionNotifier returns the notifier of the current session.
func sessionNotifier(ctx echo.Context, deps *Deps) core.Notifier {
	sess, _ := contextSession(ctx)
	return deps.Notices.For(sess.ID)
}
