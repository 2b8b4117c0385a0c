package echoweb_test

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grading"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func studentForm(sid, first, last, email, lvl string) url.Values {
	return url.Values{
		"student_id":      {sid},
		"first_name":      {first},
		"last_name":       {last},
		"email":           {email},
		"section":         {"B"},
		"year_level":      {"2"},
		"education_level": {lvl},
		"school_year":     {"2025-2026"},
	}
}

func TestStudentViews(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	other := testutil.CreateUser(t, app.users, "other", user.RoleTeacher, core.Secondary)
	theirs := testutil.CreateStudent(t, app.students, other, core.Secondary, "S-900", "Jim", "Beam")

	c := app.client()
	c.login(t, "teacher")

	// add
	rec := c.post(t, "/students/add", studentForm(" S-001 ", "John", "Doe", "John.Doe@Example.com", "Secondary"))
	requireRedirect(t, rec, http.StatusSeeOther, "/students")
	body := c.follow(t, rec).Body.String()
	assert.Contains(t, body, "Student added successfully!")
	assert.Contains(t, body, "Doe, John")
	assert.NotContains(t, body, "Beam")

	mine, err := app.students.ListStudents(ctx(), teacher.Scope())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	s := mine[0]
	assert.Equal(t, "S-001", s.StudentID)
	assert.Equal(t, "john.doe@example.com", s.Email)
	assert.Equal(t, teacher.ID, int(s.TeacherID.Int))

	t.Run("invalid submissions", func(t *testing.T) {
		tests := []struct {
			name     string
			data     url.Values
			wantCode int
			wantText string
		}{
			{"duplicate student id", studentForm("S-001", "Jane", "Roe", "jane@example.com", "Secondary"), http.StatusConflict, "Student ID or email already exists!"},
			{"duplicate email", studentForm("S-002", "Jane", "Roe", "JOHN.DOE@example.com", "Secondary"), http.StatusConflict, "Student ID or email already exists!"},
			{"duplicate of another teacher", studentForm("S-900", "Jane", "Roe", "jane@example.com", "Secondary"), http.StatusConflict, "Student ID or email already exists!"},
			{"missing first name", studentForm("S-002", "", "Roe", "jane@example.com", "Secondary"), http.StatusBadRequest, "this field is required"},
			{"invalid email", studentForm("S-002", "Jane", "Roe", "jane", "Secondary"), http.StatusBadRequest, "Please correct the errors below."},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := c.post(t, "/students/add", tt.data)
				assert.Equal(t, tt.wantCode, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.wantText)
			})
		}
		n, err := app.students.CountStudents(ctx(), unrestricted)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("view & edit", func(t *testing.T) {
		path := "/students/view/" + strconv.Itoa(s.ID)
		rec := c.get(t, path)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "john.doe@example.com")

		rec = c.get(t, "/students/edit/"+strconv.Itoa(s.ID))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="S-001"`)

		rec = c.post(t, "/students/edit/"+strconv.Itoa(s.ID), studentForm("S-001", "Johnny", "Doe", "john.doe@example.com", "Secondary"))
		requireRedirect(t, rec, http.StatusSeeOther, "/students")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Student updated successfully!")

		got, err := app.students.GetStudent(ctx(), unrestricted, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Johnny", got.FirstName)
	})

	t.Run("out of scope", func(t *testing.T) {
		id := strconv.Itoa(theirs.ID)
		for _, path := range []string{"/students/view/" + id, "/students/edit/" + id, "/students/view/0", "/students/view/abc"} {
			requireRedirect(t, c.get(t, path), http.StatusSeeOther, "/students")
		}

		rec := c.post(t, "/students/edit/"+id, studentForm("S-900", "Hacked", "Beam", "hacked@example.com", "Secondary"))
		requireRedirect(t, rec, http.StatusSeeOther, "/students")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Student not found.")

		rec = c.post(t, "/students/delete/"+id, nil)
		requireRedirect(t, rec, http.StatusSeeOther, "/students")

		got, err := app.students.GetStudent(ctx(), unrestricted, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jim", got.FirstName)
	})

	t.Run("level change hides the student", func(t *testing.T) {
		rec := c.post(t, "/students/add", studentForm("S-003", "Ann", "Lee", "ann@example.com", "Primary"))
		requireRedirect(t, rec, http.StatusSeeOther, "/students")
		assert.NotContains(t, c.follow(t, rec).Body.String(), "Lee, Ann")
	})

	t.Run("delete cascades to grades", func(t *testing.T) {
		subj := testutil.CreateSubject(t, app.subjects, teacher, core.Secondary, "MATH101", "Mathematics")
		testutil.CreateGrade(t, app.grades, s, subj, grading.Scores{Prelim: 80, Midterm: 80, Finals: 80})
		theirSubj := testutil.CreateSubject(t, app.subjects, other, core.Secondary, "SCI101", "Science")
		testutil.CreateGrade(t, app.grades, theirs, theirSubj, grading.Scores{Prelim: 80, Midterm: 80, Finals: 80})
		require.Len(t, app.listGrades(t), 2)

		rec := c.post(t, "/students/delete/"+strconv.Itoa(s.ID), nil)
		requireRedirect(t, rec, http.StatusSeeOther, "/students")
		assert.Contains(t, c.follow(t, rec).Body.String(), "Student deleted successfully!")

		_, err := app.students.GetStudent(ctx(), unrestricted, s.ID)
		assert.ErrorIs(t, err, student.ErrNotFound)
		grades := app.listGrades(t)
		require.Len(t, grades, 1)
		assert.Equal(t, theirs.ID, grades[0].StudentID)
	})
}

func TestStudentViews_Admin(t *testing.T) {
	app := newTestApp(t)
	teacher := testutil.CreateUser(t, app.users, "teacher", user.RoleTeacher, core.Secondary)
	testutil.CreateUser(t, app.users, "admin", user.RoleAdmin, core.Secondary)
	testutil.CreateStudent(t, app.students, teacher, core.Primary, "S-001", "John", "Doe")
	testutil.CreateStudent(t, app.students, teacher, core.Tertiary, "S-002", "Jane", "Roe")

	c := app.client()
	c.login(t, "admin")

	body := c.get(t, "/students").Body.String()
	assert.Contains(t, body, "Doe, John")
	assert.Contains(t, body, "Roe, Jane")
}
