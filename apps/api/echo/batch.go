package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/user"
)

type batchApi struct {
	svc    batch.Service
	usrSvc user.Service
}

func registerBatchAPI(authed *echo.Group, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := batchApi{svc: deps.BatchSvc, usrSvc: deps.UserSvc}

	bg := authed.Group("/batches")
	bg.GET("", api.list)
	bg.POST("", api.create, admin)
	bg.GET("/:id", api.retrieve)
	bg.GET("/:id/students", api.students)
	bg.POST("/:id/students", api.enroll, admin)
	bg.DELETE("/:id/students/:uid", api.unenroll, admin)

	sg := authed.Group("/students", admin)
	sg.POST("", api.createStudent)
	sg.PUT("/:id", api.editStudent)
}

func (api *batchApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var batches []batch.Batch
	if search := ctx.QueryParam("search"); search != "" {
		batches, err = api.svc.Search(ctx.Request().Context(), usr, search)
	} else {
		batches, err = api.svc.ListFor(ctx.Request().Context(), usr)
	}
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *batchApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data batch.NewBatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	b, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *batchApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	b, err := api.svc.GetFor(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting batch")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *batchApi) students(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	users, err := api.svc.Students(ctx.Request().Context(), usr, ctx.Param("id"), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, users)
}

type EnrollRequest struct {
	StudentID string `json:"student_id"`
}

func (api *batchApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data EnrollRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	b, err := api.svc.Enroll(ctx.Request().Context(), usr, ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *batchApi) unenroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	b, err := api.svc.Unenroll(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("uid"))
	if err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *batchApi) createStudent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data batch.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	stu, err := api.svc.CreateStudent(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *batchApi) editStudent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data batch.EditStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditStudent")
	}
	stu, err := api.svc.EditStudent(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "editing student")
	}
	return ctx.JSON(http.StatusOK, stu)
}
