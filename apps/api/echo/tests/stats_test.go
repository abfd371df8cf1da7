package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/skillfolio/core/stats"
	"github.com/trezcool/skillfolio/core/user"
)

func Test_statsApi(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	instructor := a.createUser(t, "Prof", "prof", user.RoleInstructor)
	admin := a.createUser(t, "Admin", "admin", user.RoleAdmin)
	f := buildCatalog(t, a)
	a.call(t, http.MethodPost, "/v1/learning/courses/"+f.course.ID+"/enroll", getToken(t, learner), nil, http.StatusOK)
	a.call(t, http.MethodPost, "/v1/forum/threads", getToken(t, learner), map[string]string{"title": "Hi", "body": "Hello all"}, http.StatusCreated)

	a.runAll(t, []httpTest{
		{name: "auth required", path: "/v1/admin/stats", wantCode: http.StatusUnauthorized},
		{name: "learners denied", path: "/v1/admin/stats", token: getToken(t, learner), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "instructors denied", path: "/v1/admin/stats", token: getToken(t, instructor), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
	})

	var d stats.Dashboard
	decode(t, a.call(t, http.MethodGet, "/v1/admin/stats", getToken(t, admin), nil, http.StatusOK), &d)
	assert.Equal(t, 4, d.Users) // buildCatalog adds an instructor
	assert.Equal(t, 1, d.PublishedCourses)
	assert.Equal(t, 1, d.Enrollments)
	assert.Equal(t, 0, d.CompletedEnrollments)
	assert.Equal(t, 1, d.Threads)
	assert.Equal(t, 5, d.TotalXP)
	assert.False(t, d.GeneratedAt.IsZero())
}

func Test_metrics(t *testing.T) {
	a := setup(t)
	a.call(t, http.MethodGet, "/v1/courses", "", nil, http.StatusOK)
	a.call(t, http.MethodGet, "/v1/courses/nope", "", nil, http.StatusNotFound)

	rec := a.call(t, http.MethodGet, "/metrics", "", nil, http.StatusOK)
	body := rec.Body.String()
	assert.Contains(t, body, `skillfolio_http_requests_total{method="GET",route="/v1/courses",status="200"} 1`)
	assert.Contains(t, body, `skillfolio_http_requests_total{method="GET",route="/v1/courses/:slug",status="404"} 1`)
	assert.Contains(t, body, "skillfolio_notify_websockets_open 0")
}
