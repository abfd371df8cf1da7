package tests

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/apps/api/echo"
	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
	testutil "github.com/trezcool/skillfolio/tests"
)

func Test_userApi_login(t *testing.T) {
	a := setup(t)
	testutil.CreateUser(t, a.usrRepo, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleLearner}, true)
	testutil.CreateUser(t, a.usrRepo, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleLearner}, false)

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: "this field is required", Password: "this field is required"}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest, wantData: authFailed,
			body: marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "LolC@t123"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest, wantData: authFailed,
			body: marchallObj(t, echoapi.LoginRequest{Username: "hero", Password: "lol"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
			body: marchallObj(t, echoapi.LoginRequest{Username: "ndog", Password: "LolC@t123"}),
		},
		{name: "login with username", body: marchallObj(t, echoapi.LoginRequest{Username: "HERO ", Password: "LolC@t123"})},
		{name: "login with email", body: marchallObj(t, echoapi.LoginRequest{Username: "hero@test.cd", Password: "LolC@t123"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := a.run(t, tt)
			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp echoapi.LoginResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
		})
	}

	usr, err := a.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{"hero"}})
	require.NoError(t, err)
	assert.False(t, usr.LastLogin.IsZero(), "last login not stamped")
}

func Test_userApi_signup(t *testing.T) {
	a := setup(t)
	a.createUser(t, "Taken", "taken")

	body := func(uname, email, pwd string) []byte {
		return marchallObj(t, user.Signup{Name: "New Learner", Username: uname, Email: email, Password: pwd, PasswordConfirm: pwd})
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, body: []byte(`{}`)},
		{name: "weak password", wantCode: http.StatusBadRequest, body: body("newbie", "newbie@test.cd", "12345678")},
		{name: "username taken", wantCode: http.StatusBadRequest, body: body("taken", "newbie@test.cd", "LolC@t123")},
		{name: "email taken", wantCode: http.StatusBadRequest, body: body("newbie", "taken@test.cd", "LolC@t123")},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/signup"
	}
	a.runAll(t, tests)

	t.Run("signed up", func(t *testing.T) {
		rec := a.run(t, httpTest{method: http.MethodPost, path: "/v1/users/signup", body: body("Newbie", "NewBie@test.cd", "LolC@t123")})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.SignupResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "newbie", resp.User.Username)
		assert.Equal(t, "newbie@test.cd", resp.User.Email)
		assert.Equal(t, []string{user.RoleLearner}, resp.User.Roles)

		// the token is usable right away
		rec = a.run(t, httpTest{method: http.MethodGet, path: "/v1/users/me", token: resp.Token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		sent := a.mail.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "newbie@test.cd", sent[0].To[0].Address)
	})
}

func Test_userApi_userQuery(t *testing.T) {
	a := setup(t)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	create := func(name, uname string, isActive bool, offset time.Duration, roles ...string) user.User {
		return testutil.CreateUser(t, a.usrRepo, name, uname, uname+"@test.cd", "", roles, isActive, now.Add(offset))
	}
	usr1 := create("User", "awe", true, time.Hour)
	learner := create("Hero", "hero", true, 2*time.Hour, user.RoleLearner)
	admin := create("Admin", "admin", true, 3*time.Hour, user.RoleAdmin)
	owner := create("Owner", "owner", true, 4*time.Hour, user.RoleAdminOwner)
	instructor := create("Instructor", "teach", true, 5*time.Hour, user.RoleInstructor)
	naughty := create("N Dog", "ndog", false, 6*time.Hour, user.RoleLearner) // 😂

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/users", token: getToken(t, learner), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, usr1, learner, admin, owner, instructor, naughty),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: empty},
		{name: "search=USE", path: path("USE", "", nil), token: adminToken, wantData: marchallList(t, usr1)},
		{name: "role (unknown)", path: path("", "", nil, "lol"), token: adminToken, wantData: empty},
		{name: "role=admin:", path: path("", "", nil, user.RoleAdmin), token: adminToken, wantData: marchallList(t, admin, owner)},
		{
			name: "role=instructor:,learner:", path: path("", "", nil, user.RoleInstructor, user.RoleLearner), token: adminToken,
			wantData: marchallList(t, learner, instructor, naughty),
		},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		// ordering
		{
			name: "order by -created_at", path: path("", "-created_at", nil), token: adminToken,
			wantData: marchallList(t, naughty, instructor, owner, admin, learner, usr1),
		},
		{
			name: "order by is_active,-name", path: path("", "is_active,-name", nil), token: adminToken,
			wantData: marchallList(t, naughty, usr1, owner, instructor, learner, admin),
		},
		// filtering & ordering
		{
			name: "filtering & ordering", path: path("", "name", bPtr(true), user.RoleAdmin, user.RoleLearner), token: adminToken,
			wantData: marchallList(t, admin, learner, owner),
		},
	}
	a.runAll(t, tests)
}

func Test_userApi_userDetail(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	other := a.createUser(t, "Other", "other", user.RoleLearner)
	admin := a.createUser(t, "Admin", "admin", user.RoleAdmin)
	owner := a.createUser(t, "Owner", "owner", user.RoleAdminOwner)

	learnerToken := getToken(t, learner)
	adminToken := getToken(t, admin)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	a.runAll(t, []httpTest{
		{name: "own account", path: "/v1/users/" + learner.ID, token: learnerToken, wantData: marchallObj(t, learner)},
		{name: "someone else's account", path: "/v1/users/" + other.ID, token: learnerToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "admin sees everyone", path: "/v1/users/" + other.ID, token: adminToken, wantData: marchallObj(t, other)},
		{name: "unknown user", path: "/v1/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "learner cannot change their roles", method: http.MethodPut, path: "/v1/users/" + learner.ID, token: learnerToken,
			body: []byte(`{"roles": ["admin:"]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin cannot grant roles above their own", method: http.MethodPut, path: "/v1/users/" + learner.ID, token: adminToken,
			body: []byte(`{"roles": ["admin:owner"]}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{name: "learner cannot delete", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: learnerToken, wantCode: http.StatusNotFound},
		{name: "learner cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + learner.ID, token: learnerToken, wantCode: http.StatusForbidden},
		{name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "admin cannot delete above them", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "admin deletes", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken, wantCode: http.StatusNoContent},
	})

	t.Run("learner renames themselves", func(t *testing.T) {
		rec := a.run(t, httpTest{method: http.MethodPut, path: "/v1/users/" + learner.ID, token: learnerToken, body: []byte(`{"name": "  Super Hero "}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr user.User
		decode(t, rec, &usr)
		assert.Equal(t, "Super Hero", usr.Name)
		assert.Equal(t, learner.Username, usr.Username)
	})

	t.Run("deleted user token is rejected", func(t *testing.T) {
		rec := a.run(t, httpTest{method: http.MethodGet, path: "/v1/users/me", token: getToken(t, other)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_userRefreshToken(t *testing.T) {
	a := setup(t)
	naughty := testutil.CreateUser(t, a.usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleLearner}, false) // 😂
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   learner.ID,
			Audience:  "Skillfolio",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     learner.Username,
		Roles:        learner.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, learner), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			rec := a.run(t, tt)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData echoapi.LoginResponse
				decode(t, rec, &respData)
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})
	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: learner.Email}),
			wantData: successData, extra: extraTest{emailSent: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			a.mail.Reset()
			rec := a.run(t, tt)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			sent := a.mail.Sent()
			if !extra.emailSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			msg := sent[0]
			assert.Equal(t, learner.Email, msg.To[0].Address)
			assert.Contains(t, msg.TextContent, learner.Name)
			assert.Contains(t, msg.HTMLContent, learner.Name)
			assert.Regexp(t, pathRegex, msg.TextContent)
			assert.Regexp(t, pathRegex, msg.HTMLContent)
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	a := setup(t)
	learner := testutil.CreateUser(t, a.usrRepo, "Hero", "hero", "hero@test.cd", "lol", []string{user.RoleLearner}, true)
	validUID := user.EncodeUID(learner)
	validToken := user.MakeResetToken(learner)

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := user.MakeResetToken(learner)
	user.NowFunc = func() time.Time { return time.Now().UTC() } // reset

	reqMsg := "this field is required"
	invalidToken := marchallObj(t, httpErr{Error: "invalid token"})
	body := func(token, uid, pwd string) []byte {
		return marchallObj(t, user.ResetUserPassword{Token: token, UID: uid, Password: pwd, PasswordConfirm: pwd})
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: reqMsg, PasswordConfirm: reqMsg}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{name: "invalid uid", wantCode: http.StatusBadRequest, body: body("lol", "bG9s", "LolC@t123"), wantData: invalidToken},
		{name: "invalid token", wantCode: http.StatusBadRequest, body: body("HE4TS-sigsig-sig", validUID, "LolC@t123"), wantData: invalidToken},
		{name: "expired token", wantCode: http.StatusBadRequest, body: body(expiredToken, validUID, "LolC@t123"), wantData: invalidToken},
		{
			name: "password policy", wantCode: http.StatusBadRequest, body: body(validToken, validUID, "12345678"),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "valid token", body: body(validToken, validUID, "LolC@t123"),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := a.run(t, tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := a.usrRepo.GetUser(ctx, user.GetFilter{ID: learner.ID})
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshed.PasswordHash, learner.PasswordHash), "password not updated")
			}
		})
	}
}

func Test_userApi_passwordResetRateLimit(t *testing.T) {
	a := setup(t, func(opts *echoapi.Options) { opts.PasswordResetRatePerMin = 2 })
	body := marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := a.run(t, httpTest{method: http.MethodPost, path: "/v1/users/password-reset", body: body})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func Test_userApi_roles(t *testing.T) {
	a := setup(t)
	admin := a.createUser(t, "Admin", "admin", user.RoleAdmin)

	rec := a.run(t, httpTest{method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []user.Role
	decode(t, rec, &roles)
	assert.Equal(t, user.Roles, roles)
	assert.True(t, strings.HasSuffix(roles[len(roles)-1].Value, "owner"))
}
