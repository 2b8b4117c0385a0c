package echoweb_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func TestAPI_SearchStudents(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	other := testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)
	testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-001", "John", "Doe")
	testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-002", "Jane", "Doerr")
	testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-003", "Ann", "Lee")
	testutil.CreateStudent(t, app.students, other, core.Secondary, "S-004", "Jim", "Doe")

	c := app.client()
	c.login(t, "teacher")

	search := func(q string) []string {
		rec := c.get(t, "/api/students/search?q="+url.QueryEscape(q))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var got []student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		ids := make([]string, 0, len(got))
		for _, s := range got {
			ids = append(ids, s.StudentID)
		}
		return ids
	}

	assert.Equal(t, []string{"S-001", "S-002"}, search("doe"))
	assert.Equal(t, []string{"S-003"}, search("s-003"))
	assert.Equal(t, []string{"S-002"}, search("JANE"))
	assert.Equal(t, []string{}, search("nobody"))
	// a blank query lists the scope
	assert.Equal(t, []string{"S-001", "S-002", "S-003"}, search(""))
}

func TestAPI_Stats(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	other := testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)

	stats := func(c *client) dashboard.Stats {
		rec := c.get(t, "/api/stats")
		require.Equal(t, http.StatusOK, rec.Code)
		var got dashboard.Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	c := app.client()
	c.login(t, "teacher")
	assert.Equal(t, dashboard.Stats{}, stats(c))

	john := testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-001", "John", "Doe")
	jane := testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-002", "Jane", "Roe")
	math := testutil.CreateSubject(t, app.subjects, teacher, core.Secondary, "MATH101", "Mathematics")
	testutil.CreateGrade(t, app.grades, john, math, grading.Scores{Prelim: 80, Midterm: 70, Finals: 90})
	testutil.CreateGrade(t, app.grades, jane, math, grading.Scores{Prelim: 60, Midterm: 60, Finals: 60})

	jim := testutil.CreateStudent(t, app.students, other, core.Secondary, "S-003", "Jim", "Beam")
	sci := testutil.CreateSubject(t, app.subjects, other, core.Secondary, "SCI101", "Science")
	testutil.CreateGrade(t, app.grades, jim, sci, grading.Scores{Prelim: 100, Midterm: 100, Finals: 100})

	assert.Equal(t, dashboard.Stats{
		TotalStudents: 2,
		TotalSubjects: 1,
		TotalGrades:   2,
		AvgGrade:      70,
		PassingRate:   50,
	}, stats(c))

	rec := c.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "70.00")
	assert.Contains(t, body, "50.00%")
	assert.NotContains(t, body, "Jim Beam")
	// recent grades are rendered as rows only, never inlined as JSON
	assert.Contains(t, body, "John Doe")
	assert.NotContains(t, body, `"student_ref"`)
}
