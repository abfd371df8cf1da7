package user

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
)

func TestResetToken(t *testing.T) {
	now := time.Now().UTC()
	usr := User{
		ID:        "4b1f3a52-7f3e-4b8e-9a55-2f1f1c1f9c11",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	usr.SetActive(true)
	require.NoError(t, usr.SetPassword("pwd"))

	validToken := MakeResetToken(usr)

	late := core.Conf.PasswordResetTimeoutDelta + time.Minute
	NowFunc = func() time.Time { return now.Add(-late) }
	expiredToken := MakeResetToken(usr)
	NowFunc = func() time.Time { return time.Now().UTC() }

	changedUsr := usr
	require.NoError(t, changedUsr.SetPassword("new-pwd"))

	loggedUsr := usr
	loggedUsr.LastLogin = now.Add(time.Hour)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "no separator", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "!!.c2ln", wantErr: errInvalidToken},
		{name: "negative timestamp", usr: usr, token: "-1.c2ln", wantErr: errInvalidToken},
		{name: "invalid signature encoding", usr: usr, token: strconv.FormatInt(now.Unix(), 36) + ".%%%", wantErr: errInvalidToken},
		{name: "forged signature", usr: usr, token: strconv.FormatInt(now.Unix(), 36) + ".c2lnc2ln", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "password changed", usr: changedUsr, token: validToken, wantErr: errInvalidToken},
		{name: "logged in since", usr: loggedUsr, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, checkResetToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "4b1f3a52-7f3e-4b8e-9a55-2f1f1c1f9c11"}
	id, err := decodeUID(EncodeUID(usr))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("%%%")
	assert.Error(t, err)
}
