package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/skillfolio/apps/api/echo"
	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/profile"
	"github.com/trezcool/skillfolio/core/stats"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
	emailsvc "github.com/trezcool/skillfolio/services/email"
	"github.com/trezcool/skillfolio/services/events"
	"github.com/trezcool/skillfolio/services/metrics"
	"github.com/trezcool/skillfolio/services/notify"
	dummydb "github.com/trezcool/skillfolio/storage/database/dummy"
	testutil "github.com/trezcool/skillfolio/tests"
)

var (
	ctx = context.Background()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// app is a Server wired to in-memory repositories and a synchronous event bus.
type app struct {
	*Server

	usrRepo user.Repository
	mail    *emailsvc.Mock
	hub     *notify.Hub
	metrics *metrics.Metrics

	courseSvc       course.Service
	gamificationSvc gamification.Service
	notificationSvc notification.Service
}

func setup(t *testing.T, configure ...func(*Options)) *app {
	t.Helper()
	logger := testutil.NopLogger{T: t}

	// set up DB & repos
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)

	// set up services
	bus := events.NewSyncBus(logger)
	mailSvc := emailsvc.NewConsoleServiceMock(core.Conf, logger)
	hub := notify.NewHub(logger)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), bus, logger)
	gamificationSvc := gamification.NewService(dummydb.NewGamificationRepository(db), bus, logger)
	notificationSvc := notification.NewService(dummydb.NewNotificationRepository(db), hub, usrRepo, mailSvc, logger)
	gamificationSvc.Subscribe(bus)
	notificationSvc.Subscribe(bus)

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	validate, translator := testutil.NewValidator(
		user.InitValidators,
		profile.InitValidators,
		course.InitValidators,
		goal.InitValidators,
		forum.InitValidators,
		gamification.InitValidators,
	)

	a := &app{
		usrRepo:         usrRepo,
		mail:            mailSvc,
		hub:             hub,
		metrics:         metrics.New(),
		courseSvc:       courseSvc,
		gamificationSvc: gamificationSvc,
		notificationSvc: notificationSvc,
	}

	// set up server
	opts := &Options{
		TestMode:        true,
		DisableReqLogs:  true,
		FrontendBaseURL: "http://localhost:3000",
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		Enforcer:        enforcer,
		Metrics:         a.metrics,
		Hub:             hub,

		UserSvc:         usrSvc,
		ProfileSvc:      profile.NewService(dummydb.NewProfileRepository(db)),
		CourseSvc:       courseSvc,
		GoalSvc:         goal.NewService(dummydb.NewGoalRepository(db), bus, logger),
		GamificationSvc: gamificationSvc,
		ForumSvc:        forum.NewService(dummydb.NewForumRepository(db), bus, logger),
		NotificationSvc: notificationSvc,
		StatsSvc:        stats.NewService(dummydb.NewStatsRepository(db)),
	}
	for _, fn := range configure {
		fn(opts)
	}
	a.Server = NewServer(opts)
	return a
}

func (a *app) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	t.Helper()
	return testutil.CreateUser(t, a.usrRepo, name, uname, uname+"@test.cd", "", roles, true)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func (a *app) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	a.ServeHTTP(rec, req)
	return rec
}

// call runs a single request and requires its status code to be wantCode.
func (a *app) call(t *testing.T, method, path, token string, body interface{}, wantCode int) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	rec := a.run(t, httpTest{method: method, path: path, token: token, body: data})
	require.Equal(t, wantCode, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	return rec
}

// runAll runs each test case against the app, comparing the response data when wantData is set.
func (a *app) runAll(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := a.run(t, tt)
			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
