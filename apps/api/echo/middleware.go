package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

func adminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// maintenanceExempt are the routes a non-admin may still reach while under maintenance.
var maintenanceExempt = map[string]bool{
	http.MethodGet + " /v1/users/me": true,
	http.MethodGet + " /v1/settings": true,
}

// maintenanceMiddleware turns non-admins away while the app is under maintenance.
// It must run after the JWT middleware.
func maintenanceMiddleware(usrSvc user.Service, settingsSvc settings.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if maintenanceExempt[ctx.Request().Method+" "+ctx.Path()] {
				return next(ctx)
			}
			usr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			s, err := settingsSvc.Get(ctx.Request().Context())
			if err != nil {
				return errors.Wrap(err, "reading settings")
			}
			if s.UnderMaintenance {
				return errUnderMaintenance
			}
			return next(ctx)
		}
	}
}
