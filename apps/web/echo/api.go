package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/student"
)

type api struct {
	studentSvc   *student.Service
	dashboardSvc *dashboard.Service
}

func registerAPI(e *echo.Echo, _ *server, studentSvc *student.Service, dashboardSvc *dashboard.Service) {
	a := api{studentSvc: studentSvc, dashboardSvc: dashboardSvc}

	g := e.Group("/api")
	g.GET("/students/search", loginRequired(a.searchStudents))
	g.GET("/stats", loginRequired(a.stats))
}

func (a *api) searchStudents(ctx echo.Context, sc core.Scope) error {
	students, err := a.studentSvc.Search(ctx.Request().Context(), sc, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (a *api) stats(ctx echo.Context, sc core.Scope) error {
	stats, err := a.dashboardSvc.Stats(ctx.Request().Context(), sc)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
