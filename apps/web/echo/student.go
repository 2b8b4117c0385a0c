package echoweb

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

const (
	studentsPath        = "/students"
	studentNotFound     = "Student not found."
	studentExistsNotice = "Student ID or email already exists!"
)

type studentViews struct {
	svc        *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentViews(e *echo.Echo, s *server, svc *student.Service) {
	v := studentViews{
		svc:        svc,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
	}

	g := e.Group(studentsPath)
	g.GET("", loginRequired(v.list))
	g.GET("/add", loginRequired(v.addForm))
	g.POST("/add", loginRequired(v.add))
	g.GET("/view/:id", loginRequired(v.view))
	g.GET("/edit/:id", loginRequired(v.editForm))
	g.POST("/edit/:id", loginRequired(v.edit))
	g.POST("/delete/:id", loginRequired(v.delete))
}

// pathID returns the :id path param; malformed ids are reported as 0, which never matches a row.
func pathID(ctx echo.Context) int {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// getStudent loads the :id student in scope. A missing one redirects to the list: ok is then false and err is the redirect.
func (v *studentViews) getStudent(ctx echo.Context, sc core.Scope) (s student.Student, ok bool, err error) {
	s, err = v.svc.Get(ctx.Request().Context(), sc, pathID(ctx))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return s, false, redirectWithFlash(ctx, studentsPath, flashWarning, studentNotFound)
		}
		return s, false, errors.Wrap(err, "getting student")
	}
	return s, true, nil
}

func (v *studentViews) list(ctx echo.Context, sc core.Scope) error {
	students, err := v.svc.List(ctx.Request().Context(), sc)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return render(ctx, http.StatusOK, "students", "Students", echo.Map{"Students": students})
}

func (v *studentViews) addForm(ctx echo.Context, sc core.Scope) error {
	lvl := sc.EducationLevel
	if lvl == "" {
		lvl = core.Secondary
	}
	return render(ctx, http.StatusOK, "student_form", "Add Student", echo.Map{
		"Form":   student.NewStudent{EducationLevel: string(lvl)},
		"Action": studentsPath + "/add",
	})
}

func (v *studentViews) add(ctx echo.Context, sc core.Scope) error {
	var data student.NewStudent
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(v.validate); err == nil {
		_, err = v.svc.Create(ctx.Request().Context(), sc, data)
	}
	if err != nil {
		f, ok := checkFormError(err, v.translator, studentExistsNotice)
		if !ok {
			return errors.Wrap(err, "adding student")
		}
		return renderForm(ctx, f.code, "student_form", "Add Student", f.notice, echo.Map{
			"Form":   data,
			"Action": studentsPath + "/add",
		}, f.fields)
	}
	return redirectWithFlash(ctx, studentsPath, flashSuccess, "Student added successfully!")
}

func (v *studentViews) view(ctx echo.Context, sc core.Scope) error {
	s, ok, err := v.getStudent(ctx, sc)
	if !ok {
		return err
	}
	return render(ctx, http.StatusOK, "view_student", s.FullName(), echo.Map{"Student": s})
}

func (v *studentViews) editForm(ctx echo.Context, sc core.Scope) error {
	s, ok, err := v.getStudent(ctx, sc)
	if !ok {
		return err
	}
	return render(ctx, http.StatusOK, "student_form", "Edit Student", echo.Map{
		"Form":    student.FromStudent(s),
		"Action":  studentsPath + "/edit/" + strconv.Itoa(s.ID),
		"Student": s,
	})
}

func (v *studentViews) edit(ctx echo.Context, sc core.Scope) error {
	id := pathID(ctx)

	var data student.NewStudent
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(v.validate); err == nil {
		_, err = v.svc.Update(ctx.Request().Context(), sc, id, data)
	}
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return redirectWithFlash(ctx, studentsPath, flashWarning, studentNotFound)
		}
		f, ok := checkFormError(err, v.translator, studentExistsNotice)
		if !ok {
			return errors.Wrap(err, "updating student")
		}
		return renderForm(ctx, f.code, "student_form", "Edit Student", f.notice, echo.Map{
			"Form":   data,
			"Action": studentsPath + "/edit/" + strconv.Itoa(id),
		}, f.fields)
	}
	return redirectWithFlash(ctx, studentsPath, flashSuccess, "Student updated successfully!")
}

func (v *studentViews) delete(ctx echo.Context, sc core.Scope) error {
	if err := v.svc.Delete(ctx.Request().Context(), sc, pathID(ctx)); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return redirectWithFlash(ctx, studentsPath, flashWarning, studentNotFound)
		}
		return errors.Wrap(err, "deleting student")
	}
	return redirectWithFlash(ctx, studentsPath, flashSuccess, "Student deleted successfully!")
}
