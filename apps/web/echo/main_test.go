package echoweb_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/apps/web/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/services/email"
	"github.com/trezcool/gradebook/services/logger"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
	"github.com/trezcool/gradebook/testutil"
)

// unrestricted sees every row; tests read the database through it
var unrestricted = core.Scope{IsAdmin: true}

func ctx() context.Context { return context.Background() }

type testApp struct {
	db       *sqlx.DB
	srv      echoweb.Server
	mailSvc  *emailsvc.ConsoleServiceMock
	users    user.Repository
	students student.Repository
	subjects subject.Repository
	grades   grade.Repository
}

type appOption func(*echoweb.Options)

func withCSRF(opts *echoweb.Options) { opts.DisableCSRF = false }

func newTestApp(t *testing.T, options ...appOption) *testApp {
	t.Helper()
	conf := testutil.Config(t)
	db := testutil.PrepareDB(t, conf)
	logger := logsvc.NewRollbarLogger(io.Discard, conf)

	a := &testApp{
		db:       db,
		mailSvc:  emailsvc.NewConsoleServiceMock(conf, logger),
		users:    sqlxrepos.NewUserRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
		subjects: sqlxrepos.NewSubjectRepository(db),
		grades:   sqlxrepos.NewGradeRepository(db),
	}
	studentSvc := student.NewService(a.students)
	subjectSvc := subject.NewService(a.subjects)
	gradeSvc := grade.NewService(a.grades, a.students, a.subjects)

	opts := &echoweb.Options{
		SecretKey:      conf.SecretKey,
		TestMode:       true,
		DisableReqLogs: true,
		DisableCSRF:    true,
		SessionMaxAge:  conf.Server.SessionMaxAge,
		Logger:         logger,
		HealthCheck:    db.PingContext,
		UserSvc:        user.NewService(a.users, a.mailSvc),
		StudentSvc:     studentSvc,
		SubjectSvc:     subjectSvc,
		GradeSvc:       gradeSvc,
		DashboardSvc:   dashboard.NewService(sqlxrepos.NewStatsRepository(db), studentSvc, subjectSvc, gradeSvc),
	}
	for _, o := range options {
		o(opts)
	}
	srv, err := echoweb.NewServer(opts)
	require.NoError(t, err)
	a.srv = srv
	return a
}

func (a *testApp) countUsers(t *testing.T) int {
	t.Helper()
	n, err := a.users.CountUsers(ctx())
	require.NoError(t, err)
	return n
}

func (a *testApp) listGrades(t *testing.T) []grade.Detail {
	t.Helper()
	grades, err := a.grades.ListGrades(ctx(), unrestricted, grade.Filter{})
	require.NoError(t, err)
	return grades
}

// client is a browser stand-in keeping the cookies set by the server.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.srv.ServeHTTP(rec, req)

	// a response may save the session several times: the last cookie of a name wins
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return c.do(t, http.MethodGet, path, nil)
}

func (c *client) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	return c.do(t, http.MethodPost, path, form)
}

// follow GETs the redirect target of rec.
func (c *client) follow(t *testing.T, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	loc := rec.Header().Get("Location")
	require.NotEmpty(t, loc, "no redirect (code %d)", rec.Code)
	return c.get(t, loc)
}

func (c *client) login(t *testing.T, uname string) {
	t.Helper()
	rec := c.post(t, "/login", url.Values{"username": {uname}, "password": {testutil.Password}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, code int, location string) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	require.Equal(t, location, rec.Header().Get("Location"))
}
