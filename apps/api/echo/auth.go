package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

const (
	tokenAudience  = "Institute"
	contextUserKey = "user"
)

var (
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	// liveJWTConfig reads the token from the query string: browsers cannot set headers on websockets.
	liveJWTConfig = middleware.JWTConfig{
		SigningKey:    appJWTConfig.SigningKey,
		SigningMethod: appJWTConfig.SigningMethod,
		ContextKey:    appJWTConfig.ContextKey,
		Claims:        new(Claims),
		TokenLookup:   "query:token",
	}
)

// Claims is what a session token says about its user.
// OrigIssuedAt is carried over on refresh and bounds how long a session can be extended.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

func (c Claims) IsAdmin() bool { return c.Role == user.RoleAdmin }

// refreshableUntil is the last moment the session may be refreshed.
func (c Claims) refreshableUntil() time.Time {
	return time.Unix(c.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
}

// IssueToken signs a fresh session token for usr.
func IssueToken(usr user.User) (string, error) {
	return issueToken(usr, time.Now())
}

func issueToken(usr user.User, sessionStart time.Time) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
		},
		OrigIssuedAt: sessionStart.Unix(),
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.GetSigningMethod(appJWTConfig.SigningMethod), claims).
		SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, _ := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token)
	if token == nil {
		return Claims{}, errUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, errUnauthorized
	}
	return *claims, nil
}

// getContextUser loads the authenticated user once per request.
// Users deleted or deactivated since their token was issued are refused.
func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		return user.User{}, errUnauthorized
	case err != nil:
		return user.User{}, errors.Wrap(err, "finding user by ID")
	case !usr.IsActive:
		return user.User{}, errAccountDeactivated
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// refreshToken extends the session of the context user, up to JWTRefreshExpirationDelta after sign in.
func refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	if time.Now().After(claims.refreshableUntil()) {
		return "", errRefreshExpired
	}
	token, err := issueToken(usr, time.Unix(claims.OrigIssuedAt, 0))
	return token, errors.Wrap(err, "generating token")
}
