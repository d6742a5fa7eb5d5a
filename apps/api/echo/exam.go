package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/exam"
	"github.com/gothwad/classesx/core/user"
)

type examApi struct {
	svc    exam.Service
	usrSvc user.Service
}

func registerExamAPI(authed *echo.Group, deps ServerDeps) {
	api := examApi{svc: deps.ExamSvc, usrSvc: deps.UserSvc}

	tg := authed.Group("/tests")
	tg.GET("", api.list)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.POST("/:id/questions", api.addQuestion)
}

func (api *examApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tests, err := api.svc.List(ctx.Request().Context(), usr, ctx.QueryParam("batch_id"))
	if err != nil {
		return errors.Wrap(err, "listing tests")
	}
	return ctx.JSON(http.StatusOK, tests)
}

func (api *examApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data exam.NewTest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTest")
	}
	t, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating test")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *examApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting test")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *examApi) addQuestion(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data exam.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	t, err := api.svc.AddQuestion(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusOK, t)
}
