package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/backup"
	"github.com/gothwad/classesx/core/user"
)

type backupApi struct {
	svc    backup.Service
	usrSvc user.Service
}

func registerBackupAPI(authed *echo.Group, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := backupApi{svc: deps.BackupSvc, usrSvc: deps.UserSvc}

	bg := authed.Group("/backup", admin)
	bg.GET("", api.download)
	bg.POST("/mail", api.mail)
}

// download serves the dump as a JSON attachment.
func (api *backupApi) download(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Export(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "exporting data")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+d.Filename()+`"`)
	return ctx.JSONPretty(http.StatusOK, d, "  ")
}

func (api *backupApi) mail(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.Mail(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "mailing backup")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: d.Filename() + " was sent to " + usr.Email + "."})
}
