package echoweb

import (
	"context"
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
)

const (
	gradesPath    = "/grades"
	gradeNotFound = "Grade not found."
)

type gradeViews struct {
	svc        *grade.Service
	studentSvc *student.Service
	subjectSvc *subject.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerGradeViews(e *echo.Echo, s *server, svc *grade.Service, studentSvc *student.Service, subjectSvc *subject.Service) {
	v := gradeViews{
		svc:        svc,
		studentSvc: studentSvc,
		subjectSvc: subjectSvc,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
	}

	g := e.Group(gradesPath)
	g.GET("", loginRequired(v.list))
	g.GET("/add", loginRequired(v.addForm))
	g.POST("/add", loginRequired(v.add))
	g.GET("/edit/:id", loginRequired(v.editForm))
	g.POST("/edit/:id", loginRequired(v.edit))
	g.POST("/delete/:id", loginRequired(v.delete))
}

func queryID(ctx echo.Context, name string) int {
	id, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// choices returns the students & subjects in scope, offered by the grade forms & filters.
func (v *gradeViews) choices(ctx context.Context, sc core.Scope) (echo.Map, error) {
	students, err := v.studentSvc.List(ctx, sc)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	subjects, err := v.subjectSvc.List(ctx, sc)
	if err != nil {
		return nil, errors.Wrap(err, "listing subjects")
	}
	return echo.Map{"Students": students, "Subjects": subjects}, nil
}

func (v *gradeViews) list(ctx echo.Context, sc core.Scope) error {
	reqCtx := ctx.Request().Context()
	filter := grade.Filter{
		StudentID: queryID(ctx, "student_id"),
		SubjectID: queryID(ctx, "subject_id"),
	}

	grades, err := v.svc.List(reqCtx, sc, filter)
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	data, err := v.choices(reqCtx, sc)
	if err != nil {
		return err
	}
	totalGrades, err := v.svc.Count(reqCtx, sc)
	if err != nil {
		return errors.Wrap(err, "counting grades")
	}

	data["Grades"] = grades
	data["Filter"] = filter
	data["TotalStudents"] = len(data["Students"].([]student.Student))
	data["TotalSubjects"] = len(data["Subjects"].([]subject.Subject))
	data["TotalGrades"] = totalGrades
	return render(ctx, http.StatusOK, "grades", "Grades", data)
}

func (v *gradeViews) addForm(ctx echo.Context, sc core.Scope) error {
	data, err := v.choices(ctx.Request().Context(), sc)
	if err != nil {
		return err
	}
	data["Form"] = grade.NewGrade{
		StudentID: queryID(ctx, "student_id"),
		SubjectID: queryID(ctx, "subject_id"),
		Quarter:   grade.Quarters[0],
	}
	return render(ctx, http.StatusOK, "add_grade", "Add Grade", data)
}

func (v *gradeViews) add(ctx echo.Context, sc core.Scope) error {
	reqCtx := ctx.Request().Context()

	var data grade.NewGrade
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(v.validate); err == nil {
		_, err = v.svc.Create(reqCtx, sc, data)
	}
	if err != nil {
		f, ok := checkFormError(err, v.translator, "")
		if !ok {
			return errors.Wrap(err, "adding grade")
		}
		tmplData, cErr := v.choices(reqCtx, sc)
		if cErr != nil {
			return cErr
		}
		tmplData["Form"] = data
		return renderForm(ctx, f.code, "add_grade", "Add Grade", f.notice, tmplData, f.fields)
	}
	return redirectWithFlash(ctx, gradesPath, flashSuccess, "Grade added successfully!")
}

func (v *gradeViews) editForm(ctx echo.Context, sc core.Scope) error {
	d, err := v.svc.Get(ctx.Request().Context(), sc, pathID(ctx))
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return redirectWithFlash(ctx, gradesPath, flashWarning, gradeNotFound)
		}
		return errors.Wrap(err, "getting grade")
	}
	return render(ctx, http.StatusOK, "edit_grade", "Edit Grade", echo.Map{
		"Grade": d,
		"Form":  grade.FromGrade(d.Grade),
	})
}

func (v *gradeViews) edit(ctx echo.Context, sc core.Scope) error {
	var data grade.UpdateGrade
	if err := ctx.Bind(&data); err != nil {
		return bindError(ctx, err)
	}
	if _, err := v.svc.Update(ctx.Request().Context(), sc, pathID(ctx), data); err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return redirectWithFlash(ctx, gradesPath, flashWarning, gradeNotFound)
		}
		return errors.Wrap(err, "updating grade")
	}
	return redirectWithFlash(ctx, gradesPath, flashSuccess, "Grade updated successfully!")
}

func (v *gradeViews) delete(ctx echo.Context, sc core.Scope) error {
	if err := v.svc.Delete(ctx.Request().Context(), sc, pathID(ctx)); err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return redirectWithFlash(ctx, gradesPath, flashWarning, gradeNotFound)
		}
		return errors.Wrap(err, "deleting grade")
	}
	return redirectWithFlash(ctx, gradesPath, flashSuccess, "Grade deleted successfully!")
}
