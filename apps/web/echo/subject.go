package echoweb

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/subject"
)

const (
	subjectsPath        = "/subjects"
	subjectNotFound     = "Subject not found."
	subjectExistsNotice = "Subject code already exists!"
)

type subjectViews struct {
	svc        *subject.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerSubjectViews(e *echo.Echo, s *server, svc *subject.Service) {
	v := subjectViews{
		svc:        svc,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
	}

	g := e.Group(subjectsPath)
	g.GET("", loginRequired(v.list))
	g.GET("/add", loginRequired(v.addForm))
	g.POST("/add", loginRequired(v.add))
	g.GET("/view/:id", loginRequired(v.view))
	g.GET("/edit/:id", loginRequired(v.editForm))
	g.POST("/edit/:id", loginRequired(v.edit))
	g.POST("/delete/:id", loginRequired(v.delete))
}

func (v *subjectViews) getSubject(ctx echo.Context, sc core.Scope) (s subject.Subject, ok bool, err error) {
	s, err = v.svc.Get(ctx.Request().Context(), sc, pathID(ctx))
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return s, false, redirectWithFlash(ctx, subjectsPath, flashWarning, subjectNotFound)
		}
		return s, false, errors.Wrap(err, "getting subject")
	}
	return s, true, nil
}

func (v *subjectViews) list(ctx echo.Context, sc core.Scope) error {
	subjects, err := v.svc.List(ctx.Request().Context(), sc)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return render(ctx, http.StatusOK, "subjects", "Subjects", echo.Map{"Subjects": subjects})
}

func (v *subjectViews) addForm(ctx echo.Context, sc core.Scope) error {
	lvl := sc.EducationLevel
	if lvl == "" {
		lvl = core.Secondary
	}
	return render(ctx, http.StatusOK, "subject_form", "Add Subject", echo.Map{
		"Form":   subject.NewSubject{EducationLevel: string(lvl), Units: strconv.Itoa(subject.DefaultUnits)},
		"Action": subjectsPath + "/add",
	})
}

func (v *subjectViews) add(ctx echo.Context, sc core.Scope) error {
	var data subject.NewSubject
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(v.validate); err == nil {
		_, err = v.svc.Create(ctx.Request().Context(), sc, data)
	}
	if err != nil {
		f, ok := checkFormError(err, v.translator, subjectExistsNotice)
		if !ok {
			return errors.Wrap(err, "adding subject")
		}
		return renderForm(ctx, f.code, "subject_form", "Add Subject", f.notice, echo.Map{
			"Form":   data,
			"Action": subjectsPath + "/add",
		}, f.fields)
	}
	return redirectWithFlash(ctx, subjectsPath, flashSuccess, "Subject added successfully!")
}

func (v *subjectViews) view(ctx echo.Context, sc core.Scope) error {
	s, ok, err := v.getSubject(ctx, sc)
	if !ok {
		return err
	}
	return render(ctx, http.StatusOK, "view_subject", s.Name, echo.Map{"Subject": s})
}

func (v *subjectViews) editForm(ctx echo.Context, sc core.Scope) error {
	s, ok, err := v.getSubject(ctx, sc)
	if !ok {
		return err
	}
	return render(ctx, http.StatusOK, "subject_form", "Edit Subject", echo.Map{
		"Form":    subject.FromSubject(s),
		"Action":  subjectsPath + "/edit/" + strconv.Itoa(s.ID),
		"Subject": s,
	})
}

func (v *subjectViews) edit(ctx echo.Context, sc core.Scope) error {
	id := pathID(ctx)

	var data subject.NewSubject
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(v.validate); err == nil {
		_, err = v.svc.Update(ctx.Request().Context(), sc, id, data)
	}
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return redirectWithFlash(ctx, subjectsPath, flashWarning, subjectNotFound)
		}
		f, ok := checkFormError(err, v.translator, subjectExistsNotice)
		if !ok {
			return errors.Wrap(err, "updating subject")
		}
		return renderForm(ctx, f.code, "subject_form", "Edit Subject", f.notice, echo.Map{
			"Form":   data,
			"Action": subjectsPath + "/edit/" + strconv.Itoa(id),
		}, f.fields)
	}
	return redirectWithFlash(ctx, subjectsPath, flashSuccess, "Subject updated successfully!")
}

func (v *subjectViews) delete(ctx echo.Context, sc core.Scope) error {
	if err := v.svc.Delete(ctx.Request().Context(), sc, pathID(ctx)); err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return redirectWithFlash(ctx, subjectsPath, flashWarning, subjectNotFound)
		}
		return errors.Wrap(err, "deleting subject")
	}
	return redirectWithFlash(ctx, subjectsPath, flashSuccess, "Subject deleted successfully!")
}
