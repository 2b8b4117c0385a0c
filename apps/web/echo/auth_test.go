package echoweb_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.client().get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)
	c := app.client()

	tests := []struct {
		path     string
		wantText string
	}{
		{"/", "Welcome to Gradebook"},
		{"/about", "Tertiary: the final grade is the average of the midterm and finals scores."},
		{"/login", `name="password"`},
		{"/signup", `name="confirm_password"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := c.get(t, tt.path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}

	rec := c.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestLoginRequired(t *testing.T) {
	app := newTestApp(t)

	paths := []string{
		"/dashboard", "/profile", "/profile/edit", "/logout",
		"/students", "/students/add", "/students/view/1", "/students/edit/1",
		"/subjects", "/subjects/add", "/subjects/view/1",
		"/grades", "/grades/add", "/grades/edit/1",
		"/api/stats", "/api/students/search?q=a",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			c := app.client()
			rec := c.get(t, path)
			requireRedirect(t, rec, http.StatusFound, "/login")
			assert.Contains(t, c.follow(t, rec).Body.String(), "Please log in to access this page.")
		})
	}

	t.Run("POST", func(t *testing.T) {
		rec := app.client().post(t, "/students/delete/1", nil)
		requireRedirect(t, rec, http.StatusFound, "/login")
	})
}

func TestSignup(t *testing.T) {
	app := newTestApp(t)
	c := app.client()

	form := func(uname, email, pwd, confirm, lvl string) url.Values {
		return url.Values{
			"username":         {uname},
			"email":            {email},
			"password":         {pwd},
			"confirm_password": {confirm},
			"education_level":  {lvl},
		}
	}

	// success
	rec := c.post(t, "/signup", form(" Teacher ", "Teacher@Example.com", "pwd", "pwd", "Tertiary"))
	requireRedirect(t, rec, http.StatusSeeOther, "/login")
	assert.Contains(t, c.follow(t, rec).Body.String(), "Account created successfully! Please log in.")
	require.Equal(t, 1, app.countUsers(t))

	sent := app.mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "teacher@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "teacher")

	tests := []struct {
		name     string
		data     url.Values
		wantCode int
		wantText string
	}{
		{
			name:     "duplicate username",
			data:     form("teacher", "other@example.com", "pwd", "pwd", "Primary"),
			wantCode: http.StatusConflict,
			wantText: "Username or email already exists!",
		},
		{
			name:     "duplicate email",
			data:     form("other", "TEACHER@example.com", "pwd", "pwd", "Primary"),
			wantCode: http.StatusConflict,
			wantText: "Username or email already exists!",
		},
		{
			name:     "password mismatch",
			data:     form("other", "other@example.com", "pwd", "pwd2", "Primary"),
			wantCode: http.StatusBadRequest,
			wantText: "Passwords do not match!",
		},
		{
			name:     "missing username",
			data:     form("", "other@example.com", "pwd", "pwd", "Primary"),
			wantCode: http.StatusBadRequest,
			wantText: "this field is required",
		},
		{
			name:     "invalid email",
			data:     form("other", "nope", "pwd", "pwd", "Primary"),
			wantCode: http.StatusBadRequest,
			wantText: "Please correct the errors below.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.post(t, "/signup", tt.data)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Equal(t, 1, app.countUsers(t))
		})
	}

	// unknown levels fall back to Primary
	rec = c.post(t, "/signup", form("other", "other@example.com", "pwd", "pwd", "Kindergarten"))
	requireRedirect(t, rec, http.StatusSeeOther, "/login")
	usr, err := app.users.GetUser(ctx(), user.GetFilter{Username: "other"})
	require.NoError(t, err)
	assert.Equal(t, core.Primary, usr.EducationLevel)
	assert.Equal(t, user.RoleTeacher, usr.Role)

	// only the confirmation is checked at signup
	rec = c.post(t, "/signup", form("marie", "marie@example.com", "Marie1", "Marie1", "Secondary"))
	requireRedirect(t, rec, http.StatusSeeOther, "/login")
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)

	t.Run("invalid credentials", func(t *testing.T) {
		for _, data := range []url.Values{
			{"username": {"teacher"}, "password": {"wrong"}},
			{"username": {"nobody"}, "password": {testutil.Password}},
		} {
			c := app.client()
			rec := c.post(t, "/login", data)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid username or password!")
			requireRedirect(t, c.get(t, "/dashboard"), http.StatusFound, "/login")
		}
	})

	t.Run("login & logout", func(t *testing.T) {
		c := app.client()
		c.login(t, "TEACHER")

		rec := c.get(t, "/dashboard")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Welcome back, teacher!")

		rec = c.get(t, "/logout")
		requireRedirect(t, rec, http.StatusSeeOther, "/")
		assert.Contains(t, c.follow(t, rec).Body.String(), "You have been logged out successfully.")

		requireRedirect(t, c.get(t, "/dashboard"), http.StatusFound, "/login")
	})
}

func TestCSRF(t *testing.T) {
	app := newTestApp(t, withCSRF)
	c := app.client()

	rec := c.get(t, "/signup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="_csrf"`)

	rec = c.post(t, "/signup", url.Values{
		"username":         {"teacher"},
		"email":            {"teacher@example.com"},
		"password":         {"pwd"},
		"confirm_password": {"pwd"},
	})
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
	assert.Equal(t, 0, app.countUsers(t))
}

func TestProfile(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)

	c := app.client()
	c.login(t, "teacher")

	rec := c.get(t, "/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "teacher@example.com")

	// conflict
	rec = c.post(t, "/profile/edit", url.Values{
		"username": {"other"}, "email": {"teacher@example.com"}, "education_level": {"Secondary"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username or email already in use!")

	// a new password must not resemble the username or email
	rec = c.post(t, "/profile/edit", url.Values{
		"username": {"teacher"}, "email": {"teacher@example.com"}, "education_level": {"Secondary"}, "password": {"Teacher1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password cannot be similar to your username or email")

	// success: the session follows the new username & level
	rec = c.post(t, "/profile/edit", url.Values{
		"username": {"teach"}, "email": {"teach@example.com"}, "education_level": {"Tertiary"}, "password": {"n3w-pwd"},
	})
	requireRedirect(t, rec, http.StatusSeeOther, "/profile")
	body := c.follow(t, rec).Body.String()
	assert.Contains(t, body, "Profile updated successfully!")
	assert.Contains(t, body, "teach (Tertiary)")

	rec = c.post(t, "/login", url.Values{"username": {"teach"}, "password": {"n3w-pwd"}})
	requireRedirect(t, rec, http.StatusSeeOther, "/dashboard")
}

func TestSession(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	other := testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)
	testutil.CreateStudent(t, app.students, other, core.Secondary, "S-001", "Mary", "Major")

	t.Run("role & level are reloaded on every request", func(t *testing.T) {
		c := app.client()
		c.login(t, "teacher")
		assert.NotContains(t, c.get(t, "/students").Body.String(), "Major")

		promoted := teacher
		promoted.Role = user.RoleAdmin
		_, err := app.users.UpdateUser(ctx(), promoted)
		require.NoError(t, err)
		assert.Contains(t, c.get(t, "/students").Body.String(), "Major")

		_, err = app.users.UpdateUser(ctx(), teacher)
		require.NoError(t, err)
		assert.NotContains(t, c.get(t, "/students").Body.String(), "Major")
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := testutil.CreateUser(t, app.users, "ghost", user.RoleTeacher, core.Primary)
		c := app.client()
		c.login(t, "ghost")

		_, err := app.db.ExecContext(ctx(), app.db.Rebind("DELETE FROM users WHERE id = ?"), ghost.ID)
		require.NoError(t, err)

		rec := c.get(t, "/dashboard")
		requireRedirect(t, rec, http.StatusFound, "/login")
		assert.Contains(t, c.follow(t, rec).Body.String(), "User not found. Please log in again.")

		rec = c.get(t, "/dashboard")
		requireRedirect(t, rec, http.StatusFound, "/login")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Please log in to access this page.")
	})

	t.Run("cookie signed with the raw secret", func(t *testing.T) {
		values := map[interface{}]interface{}{"user_id": other.ID, "role": user.RoleAdmin}
		encoded, err := securecookie.New([]byte(testutil.Config(t).SecretKey), nil).Encode("gradebook_session", values)
		require.NoError(t, err)

		c := app.client()
		c.cookies["gradebook_session"] = &http.Cookie{Name: "gradebook_session", Value: encoded}
		requireRedirect(t, c.get(t, "/students"), http.StatusFound, "/login")
	})
}
