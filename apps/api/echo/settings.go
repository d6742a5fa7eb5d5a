package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

type settingsApi struct {
	svc    settings.Service
	usrSvc user.Service
}

func registerSettingsAPI(v1, authed *echo.Group, deps ServerDeps) {
	api := settingsApi{svc: deps.SettingsSvc, usrSvc: deps.UserSvc}

	// branding is shown before login
	v1.GET("/settings", api.retrieve)

	// a group on /settings would shadow the public GET
	authed.PUT("/settings", api.update)
	authed.PUT("/settings/maintenance", api.setMaintenance)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data settings.Update
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Update")
	}
	s, err := api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

type MaintenanceRequest struct {
	On bool `json:"on"`
}

func (api *settingsApi) setMaintenance(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data MaintenanceRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MaintenanceRequest")
	}
	s, err := api.svc.SetMaintenance(ctx.Request().Context(), usr, data.On)
	if err != nil {
		return errors.Wrap(err, "setting maintenance")
	}
	return ctx.JSON(http.StatusOK, s)
}
