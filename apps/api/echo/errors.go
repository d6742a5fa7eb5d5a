package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/exam"
	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errUnderMaintenance   = echo.NewHTTPError(http.StatusServiceUnavailable, "The app is under maintenance. Please check back later.")
)

// sentinelStatus maps domain errors to the status they are answered with. Their text is shown as is.
var sentinelStatus = []struct {
	err  error
	code int
}{
	{core.ErrForbidden, http.StatusForbidden},
	{user.ErrAccountDeactivated, http.StatusForbidden},
	{user.ErrInvalidCredentials, http.StatusBadRequest},
	{user.ErrNotFound, http.StatusNotFound},
	{batch.ErrNotFound, http.StatusNotFound},
	{curriculum.ErrChapterNotFound, http.StatusNotFound},
	{curriculum.ErrLectureNotFound, http.StatusNotFound},
	{curriculum.ErrSubjectNotFound, http.StatusNotFound},
	{exam.ErrNotFound, http.StatusNotFound},
	{records.ErrNotFound, http.StatusNotFound},
	{core.ErrIndexUnavailable, http.StatusServiceUnavailable},
}

// httpStatus classifies err. Anything it does not know about is a 500.
func httpStatus(err error, translator ut.Translator) (int, interface{}) {
	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if cause == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, cause.Message
		}
		if inner, ok := cause.Internal.(*echo.HTTPError); ok {
			cause = inner
		}
		return cause.Code, cause.Message

	case validator.ValidationErrors:
		fields := make(map[string]string, len(cause))
		for _, fe := range cause {
			fields[fe.Field()] = fe.Translate(translator)
		}
		return http.StatusBadRequest, fields

	case *core.ValidationError:
		if cause.Fields == nil {
			return http.StatusBadRequest, cause.Error()
		}
		fields := make(map[string]string, len(cause.Fields))
		for _, fe := range cause.Fields {
			fields[fe.Field] = fe.Error
		}
		return http.StatusBadRequest, fields

	case *user.RoleMismatchError:
		return http.StatusForbidden, cause.Error()

	case error:
		for _, s := range sentinelStatus {
			if cause != s.err {
				continue
			}
			if s.code == http.StatusServiceUnavailable {
				// the client keeps the error and may retry once the index is built
				return s.code, echo.Map{"error": cause.Error(), "provisioning": true}
			}
			return s.code, cause.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// newAppHTTPErrorHandler answers errors with JSON. Server errors are logged with the calling user,
// and errors built by core.NewShutdownError also call signalShutdown.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := httpStatus(err, translator)

		if code == http.StatusInternalServerError {
			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID, usr.Name, usr.Email = claims.Subject, claims.Name, claims.Email
			}
			logger.Error(http.StatusText(code), errors.Wrap(err, http.StatusText(code)), usr)

			if core.IsShutdown(err) && signalShutdown != nil {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				message = err.Error()
			}
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
