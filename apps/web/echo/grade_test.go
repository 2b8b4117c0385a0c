package echoweb_test

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func gradeForm(studentID, subjectID int, prelim, midterm, finals string) url.Values {
	return url.Values{
		"student_id": {strconv.Itoa(studentID)},
		"subject_id": {strconv.Itoa(subjectID)},
		"quarter":    {grade.Quarters[0]},
		"prelim":     {prelim},
		"midterm":    {midterm},
		"finals":     {finals},
	}
}

func TestGradeViews_Add(t *testing.T) {
	app := newTestApp(t)
	secondary := testutil.CreateUser(t, app.users, "secondary", user.RoleTeacher, core.Secondary)
	tertiary := testutil.CreateUser(t, app.users, "tertiary", user.RoleTeacher, core.Tertiary)

	highSchooler := testutil.CreateStudent(t, app.students, secondary, core.Secondary, "S-001", "John", "Doe")
	math := testutil.CreateSubject(t, app.subjects, secondary, core.Secondary, "MATH101", "Mathematics")
	undergrad := testutil.CreateStudent(t, app.students, tertiary, core.Tertiary, "T-001", "Jane", "Roe")
	physics := testutil.CreateSubject(t, app.subjects, tertiary, core.Tertiary, "PHY201", "Physics")

	tests := []struct {
		name       string
		teacher    string
		data       url.Values
		wantFinal  float64
		wantRemark grading.Remark
	}{
		{"secondary: mean of 3 scores", "secondary", gradeForm(highSchooler.ID, math.ID, "80", "70", "90"), 80, grading.Passed},
		{"secondary: failed", "secondary", gradeForm(highSchooler.ID, math.ID, "60", "60", "60"), 60, grading.Failed},
		{"secondary: invalid scores count as 0", "secondary", gradeForm(highSchooler.ID, math.ID, "abc", "", "90"), 30, grading.Failed},
		{"tertiary: mean of midterm & finals", "tertiary", gradeForm(undergrad.ID, physics.ID, "0", "70", "90"), 80, grading.Passed},
		{"tertiary: boundary", "tertiary", gradeForm(undergrad.ID, physics.ID, "10", "75", "75"), 75, grading.Passed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.db.Exec("DELETE FROM grades")
			require.NoError(t, err)

			c := app.client()
			c.login(t, tt.teacher)
			rec := c.post(t, "/grades/add", tt.data)
			requireRedirect(t, rec, http.StatusSeeOther, "/grades")
			assert.Contains(t, c.follow(t, rec).Body.String(), "Grade added successfully!")

			grades := app.listGrades(t)
			require.Len(t, grades, 1)
			assert.InDelta(t, tt.wantFinal, grades[0].FinalGrade, 0.001)
			assert.Equal(t, tt.wantRemark, grades[0].Remarks)
		})
	}

	t.Run("invalid submissions", func(t *testing.T) {
		_, err := app.db.Exec("DELETE FROM grades")
		require.NoError(t, err)

		c := app.client()
		c.login(t, "secondary")

		tests := []struct {
			name     string
			data     url.Values
			wantText string
		}{
			{"student of another teacher", gradeForm(undergrad.ID, math.ID, "80", "80", "80"), "select a valid student"},
			{"subject of another teacher", gradeForm(highSchooler.ID, physics.ID, "80", "80", "80"), "select a valid subject"},
			{"missing student", gradeForm(0, math.ID, "80", "80", "80"), "this field is required"},
			{"unknown student", gradeForm(9999, math.ID, "80", "80", "80"), "select a valid student"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := c.post(t, "/grades/add", tt.data)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.wantText)
			})
		}
		assert.Empty(t, app.listGrades(t))
	})

	t.Run("form choices are scoped", func(t *testing.T) {
		c := app.client()
		c.login(t, "secondary")
		body := c.get(t, "/grades/add?student_id="+strconv.Itoa(highSchooler.ID)).Body.String()
		assert.Contains(t, body, "Doe, John")
		assert.Contains(t, body, "MATH101")
		assert.NotContains(t, body, "Roe, Jane")
		assert.NotContains(t, body, "PHY201")
		assert.Contains(t, body, `value="`+strconv.Itoa(highSchooler.ID)+`" selected`)
	})
}

func TestGradeViews_ListEditDelete(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	other := testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)

	john := testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-001", "John", "Doe")
	jane := testutil.CreateStudent(t, app.students, teacher, core.Secondary, "S-002", "Jane", "Roe")
	jim := testutil.CreateStudent(t, app.students, other, core.Secondary, "S-003", "Jim", "Beam")
	math := testutil.CreateSubject(t, app.subjects, teacher, core.Secondary, "MATH101", "Mathematics")
	science := testutil.CreateSubject(t, app.subjects, other, core.Secondary, "SCI101", "Science")

	now := time.Now()
	johnMath := testutil.CreateGrade(t, app.grades, john, math, grading.Scores{Prelim: 80, Midterm: 80, Finals: 80}, now.Add(-time.Hour))
	testutil.CreateGrade(t, app.grades, jane, math, grading.Scores{Prelim: 70, Midterm: 70, Finals: 70}, now)
	jimSci := testutil.CreateGrade(t, app.grades, jim, science, grading.Scores{Prelim: 90, Midterm: 90, Finals: 90}, now)

	c := app.client()
	c.login(t, "teacher")

	t.Run("list", func(t *testing.T) {
		rec := c.get(t, "/grades")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "John Doe")
		assert.Contains(t, body, "Jane Roe")
		assert.NotContains(t, body, "Jim Beam")
		assert.Contains(t, body, `class="passed">PASSED`)
		assert.Contains(t, body, `class="failed">FAILED`)
		// most recently updated first
		assert.Less(t, strings.Index(body, "Jane Roe"), strings.Index(body, "John Doe"))

		body = c.get(t, "/grades?student_id="+strconv.Itoa(john.ID)).Body.String()
		assert.Contains(t, body, "John Doe <small>")
		assert.NotContains(t, body, "Jane Roe <small>")
	})

	t.Run("edit recomputes", func(t *testing.T) {
		rec := c.get(t, "/grades/edit/"+strconv.Itoa(johnMath.ID))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="80"`)

		rec = c.post(t, "/grades/edit/"+strconv.Itoa(johnMath.ID), url.Values{
			"prelim": {"50"}, "midterm": {"60"}, "finals": {"70"},
		})
		requireRedirect(t, rec, http.StatusSeeOther, "/grades")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Grade updated successfully!")

		d, err := app.grades.GetGrade(ctx(), unrestricted, johnMath.ID)
		require.NoError(t, err)
		assert.InDelta(t, 60, d.FinalGrade, 0.001)
		assert.Equal(t, grading.Failed, d.Remarks)
		assert.True(t, d.UpdatedAt.After(johnMath.UpdatedAt))
	})

	t.Run("out of scope", func(t *testing.T) {
		id := strconv.Itoa(jimSci.ID)
		rec := c.get(t, "/grades/edit/"+id)
		requireRedirect(t, rec, http.StatusSeeOther, "/grades")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Grade not found.")

		requireRedirect(t, c.post(t, "/grades/edit/"+id, url.Values{"prelim": {"0"}}), http.StatusSeeOther, "/grades")
		requireRedirect(t, c.post(t, "/grades/delete/"+id, nil), http.StatusSeeOther, "/grades")

		d, err := app.grades.GetGrade(ctx(), unrestricted, jimSci.ID)
		require.NoError(t, err)
		assert.InDelta(t, 90, d.FinalGrade, 0.001)
	})

	t.Run("delete", func(t *testing.T) {
		rec := c.post(t, "/grades/delete/"+strconv.Itoa(johnMath.ID), nil)
		requireRedirect(t, rec, http.StatusSeeOther, "/grades")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Grade deleted successfully!")

		_, err := app.grades.GetGrade(ctx(), unrestricted, johnMath.ID)
		assert.ErrorIs(t, err, grade.ErrNotFound)
		assert.Len(t, app.listGrades(t), 2)
	})
}

