package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/tutor"
)

type tutorApi struct {
	svc    tutor.Service
	logger core.Logger
}

func registerTutorAPI(authed *echo.Group, deps ServerDeps) {
	api := tutorApi{svc: deps.TutorSvc, logger: deps.Logger}
	authed.POST("/tutor", api.ask)
}

type (
	AskRequest struct {
		Message string `json:"message"`
	}

	AskResponse struct {
		Reply string `json:"reply"`
	}
)

func (api *tutorApi) ask(ctx echo.Context) error {
	var data AskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AskRequest")
	}
	reply, err := api.svc.Ask(ctx.Request().Context(), data.Message)
	switch {
	case errors.Cause(err) == tutor.ErrEmptyQuestion:
		return core.NewValidationError(err)
	case err != nil:
		// the model being unreachable is not a server fault
		api.logger.Warn("asking tutor", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, tutor.ConnectionError)
	}
	return ctx.JSON(http.StatusOK, AskResponse{Reply: reply})
}
