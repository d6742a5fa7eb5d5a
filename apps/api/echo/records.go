package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/user"
)

type recordsApi struct {
	svc    records.Service
	usrSvc user.Service
}

func registerRecordsAPI(authed *echo.Group, deps ServerDeps) {
	api := recordsApi{svc: deps.RecordsSvc, usrSvc: deps.UserSvc}

	authed.GET("/users/:id/fees", api.fees)
	authed.GET("/users/:id/attendance", api.attendance)
}

type (
	FeesResponse struct {
		records.FeeRecord
		Due float64 `json:"due"`
	}

	AttendanceResponse struct {
		Records []records.AttendanceRecord `json:"records"`
		Summary records.Summary            `json:"summary"`
		Rate    float64                    `json:"rate"`
	}
)

func (api *recordsApi) fees(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.Fees(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reading fees")
	}
	return ctx.JSON(http.StatusOK, FeesResponse{FeeRecord: rec, Due: rec.Due()})
}

func (api *recordsApi) attendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	recs, sum, err := api.svc.Attendance(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reading attendance")
	}
	if recs == nil {
		recs = []records.AttendanceRecord{}
	}
	return ctx.JSON(http.StatusOK, AttendanceResponse{Records: recs, Summary: sum, Rate: sum.Rate()})
}
