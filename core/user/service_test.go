package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
	dummydb "github.com/trezcool/skillfolio/storage/database/dummy"
	testutil "github.com/trezcool/skillfolio/tests"
)

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	repo := dummydb.NewUserRepository(dummydb.Open())
	svc := user.NewServiceMock(repo, nil)
	usr := testutil.CreateUser(t, repo, "Hero", "hero", "hero@test.cd", "lol", []string{user.RoleLearner}, true)

	late := core.Conf.PasswordResetTimeoutDelta + time.Hour
	user.NowFunc = func() time.Time { return time.Now().UTC().Add(-late) }
	expiredToken := user.MakeResetToken(usr)
	user.NowFunc = func() time.Time { return time.Now().UTC() }

	tests := []struct {
		name    string
		rp      user.ResetUserPassword
		wantErr string
	}{
		{name: "bad uid", rp: user.ResetUserPassword{UID: "%%%", Token: user.MakeResetToken(usr)}, wantErr: "invalid token"},
		{name: "unknown user", rp: user.ResetUserPassword{UID: user.EncodeUID(user.User{ID: "nope"}), Token: "x"}, wantErr: "invalid token"},
		{name: "forged token", rp: user.ResetUserPassword{UID: user.EncodeUID(usr), Token: "abc.c2ln"}, wantErr: "invalid token"},
		{name: "expired token", rp: user.ResetUserPassword{UID: user.EncodeUID(usr), Token: expiredToken}, wantErr: "invalid token"},
		{
			name:    "password policy",
			rp:      user.ResetUserPassword{UID: user.EncodeUID(usr), Token: user.MakeResetToken(usr), Password: "12345678"},
			wantErr: "password cannot be entirely numeric",
		},
		{name: "valid", rp: user.ResetUserPassword{UID: user.EncodeUID(usr), Token: user.MakeResetToken(usr), Password: "LolC@t123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tt.rp)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.EqualError(t, verr, tt.wantErr)
		})
	}
}
