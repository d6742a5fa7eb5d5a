package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/core/video"
)

type curriculumApi struct {
	svc      curriculum.Service
	batchSvc batch.Service
	usrSvc   user.Service
	origin   string
}

func registerCurriculumAPI(authed *echo.Group, deps ServerDeps) {
	api := curriculumApi{
		svc:      deps.CurriculumSvc,
		batchSvc: deps.BatchSvc,
		usrSvc:   deps.UserSvc,
		origin:   deps.Conf.AppOrigin,
	}

	sg := authed.Group("/batches/:id/subjects/:subject", api.memberMiddleware)
	sg.GET("/chapters", api.chapters)
	sg.POST("/chapters", api.addChapter)

	lg := sg.Group("/chapters/:chapterID/lectures")
	lg.GET("", api.lectures)
	lg.POST("", api.addLecture)
	lg.GET("/:lectureID", api.lecture)
	lg.PUT("/:lectureID/resources", api.updateResources)
	lg.GET("/:lectureID/player", api.player)
}

// pathParam returns the unescaped value of a path param. Subjects may hold spaces.
func pathParam(ctx echo.Context, name string) string {
	v := ctx.Param(name)
	if uv, err := url.PathUnescape(v); err == nil {
		return uv
	}
	return v
}

// memberMiddleware hides the curriculum of batches the user may not see, and of subjects the batch does not teach.
func (api *curriculumApi) memberMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if _, err = api.batchSvc.GetFor(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
			return errors.Wrap(err, "getting batch")
		}
		return next(ctx)
	}
}

func (api *curriculumApi) lectureKey(ctx echo.Context) curriculum.LectureKey {
	return curriculum.LectureKey{
		BatchID:   ctx.Param("id"),
		Subject:   pathParam(ctx, "subject"),
		ChapterID: ctx.Param("chapterID"),
		LectureID: ctx.Param("lectureID"),
	}
}

func (api *curriculumApi) chapters(ctx echo.Context) error {
	chapters, err := api.svc.Chapters(ctx.Request().Context(), ctx.Param("id"), pathParam(ctx, "subject"))
	if err != nil {
		return errors.Wrap(err, "listing chapters")
	}
	return ctx.JSON(http.StatusOK, chapters)
}

func (api *curriculumApi) addChapter(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data curriculum.NewChapter
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChapter")
	}
	ch, err := api.svc.AddChapter(ctx.Request().Context(), usr, ctx.Param("id"), pathParam(ctx, "subject"), data)
	if err != nil {
		return errors.Wrap(err, "adding chapter")
	}
	return ctx.JSON(http.StatusCreated, ch)
}

func (api *curriculumApi) lectures(ctx echo.Context) error {
	key := api.lectureKey(ctx)
	lectures, err := api.svc.Lectures(ctx.Request().Context(), key.BatchID, key.Subject, key.ChapterID)
	if err != nil {
		return errors.Wrap(err, "listing lectures")
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *curriculumApi) addLecture(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data curriculum.NewLecture
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	key := api.lectureKey(ctx)
	data.BatchID, data.Subject, data.ChapterID = key.BatchID, key.Subject, key.ChapterID

	l, err := api.svc.AddLecture(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding lecture")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *curriculumApi) lecture(ctx echo.Context) error {
	l, err := api.svc.Lecture(ctx.Request().Context(), api.lectureKey(ctx))
	if err != nil {
		return errors.Wrap(err, "getting lecture")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *curriculumApi) updateResources(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data curriculum.Resources
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Resources")
	}
	l, err := api.svc.UpdateResources(ctx.Request().Context(), usr, api.lectureKey(ctx), data)
	if err != nil {
		return errors.Wrap(err, "updating resources")
	}
	return ctx.JSON(http.StatusOK, l)
}

// player returns what the lecture screen shows for the lecture video.
func (api *curriculumApi) player(ctx echo.Context) error {
	l, err := api.svc.Lecture(ctx.Request().Context(), api.lectureKey(ctx))
	if err != nil {
		return errors.Wrap(err, "getting lecture")
	}
	return ctx.JSON(http.StatusOK, video.Render(l.YoutubeURL, api.origin))
}
