package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

const resetTokenKeyPrefix = "skillfolio/password-reset/"

var (
	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")

	// NowFunc is mockable.
	NowFunc = func() time.Time { return time.Now().UTC() }
)

// EncodeUID encodes a User ID for use in password reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	return string(id), err
}

// resetToken is serialized as "<issued unix seconds in base 36>.<base64 HMAC>".
// The HMAC covers the password hash and last login, so changing either revokes the token.
type resetToken struct {
	issued int64
	sig    []byte
}

// MakeResetToken issues a password reset token for usr.
func MakeResetToken(usr User) string {
	tok := resetToken{issued: NowFunc().Unix()}
	return strconv.FormatInt(tok.issued, 36) + "." + base64.RawURLEncoding.EncodeToString(tok.mac(usr))
}

func parseResetToken(s string) (resetToken, error) {
	issued, sig, ok := strings.Cut(s, ".")
	if !ok {
		return resetToken{}, errInvalidToken
	}
	ts, err := strconv.ParseInt(issued, 36, 64)
	if err != nil || ts <= 0 {
		return resetToken{}, errInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return resetToken{}, errInvalidToken
	}
	return resetToken{issued: ts, sig: raw}, nil
}

func (tok resetToken) mac(usr User) []byte {
	var lastLogin int64
	if !usr.LastLogin.IsZero() {
		lastLogin = usr.LastLogin.Unix()
	}
	h := hmac.New(sha256.New, []byte(resetTokenKeyPrefix+core.Conf.SecretKey))
	_, _ = fmt.Fprintf(h, "%s|%x|%d|%d", usr.ID, usr.PasswordHash, lastLogin, tok.issued)
	return h.Sum(nil)
}

// checkResetToken returns errInvalidToken or errTokenExpired.
func checkResetToken(usr User, token string) error {
	tok, err := parseResetToken(token)
	if err != nil {
		return err
	}
	if !hmac.Equal(tok.sig, tok.mac(usr)) {
		return errInvalidToken
	}
	if NowFunc().Sub(time.Unix(tok.issued, 0)) > core.Conf.PasswordResetTimeoutDelta {
		return errTokenExpired
	}
	return nil
}
