package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
)

type dashboardViews struct {
	svc *dashboard.Service
}

func registerDashboardViews(e *echo.Echo, _ *server, svc *dashboard.Service) {
	v := dashboardViews{svc: svc}
	e.GET("/dashboard", loginRequired(v.dashboard))
}

func (v *dashboardViews) dashboard(ctx echo.Context, sc core.Scope) error {
	ov, err := v.svc.Overview(ctx.Request().Context(), sc)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return render(ctx, http.StatusOK, "dashboard", "Dashboard", echo.Map{"Overview": ov})
}
