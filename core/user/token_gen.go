package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
)

// Password reset tokens read "<issued unix seconds, base36>.<signature>".
// The signature covers the account state a reset changes, so a token stops working once used.

const tokenSep = "."

var (
	resetKeySalt = "classesx/password-reset"
	NowFunc      = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID is the user ID as carried in reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	return string(id), err
}

// MakeToken issues a password reset token for usr.
func MakeToken(usr User) (string, error) {
	return signedToken(usr, NowFunc().Unix()), nil
}

// verifyToken checks that token was issued for usr as it is now, and is still fresh.
func verifyToken(usr User, token string) error {
	issuedB36, _, ok := strings.Cut(token, tokenSep)
	if !ok || issuedB36 == "" {
		return errInvalidToken
	}
	issued, err := strconv.ParseInt(issuedB36, 36, 64)
	if err != nil {
		return errInvalidToken
	}
	if !hmac.Equal([]byte(signedToken(usr, issued)), []byte(token)) {
		return errInvalidToken
	}
	if NowFunc().Sub(time.Unix(issued, 0)) > core.Conf.PasswordResetTimeoutDelta {
		return errTokenExpired
	}
	return nil
}

func signedToken(usr User, issued int64) string {
	key := sha256.Sum256([]byte(resetKeySalt + core.Conf.SecretKey))
	mac := hmac.New(sha256.New, key[:])
	for _, part := range [][]byte{
		[]byte(usr.ID),
		[]byte(usr.Email),
		usr.PasswordHash,
		[]byte(strconv.FormatInt(lastLoginStamp(usr), 10)),
		[]byte(strconv.FormatInt(issued, 10)),
	} {
		mac.Write(part)
		mac.Write([]byte{0})
	}
	issuedB36 := strconv.FormatInt(issued, 36)
	return issuedB36 + tokenSep + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// lastLoginStamp is second precision: storage may not keep more.
func lastLoginStamp(usr User) int64 {
	if usr.LastLogin.IsZero() {
		return 0
	}
	return usr.LastLogin.Unix()
}
