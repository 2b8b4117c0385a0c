package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

type profileViews struct {
	svc        *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerProfileViews(e *echo.Echo, s *server, svc *user.Service) {
	v := profileViews{
		svc:        svc,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
	}

	e.GET("/profile", loginRequired(v.profile))
	e.GET("/profile/edit", loginRequired(v.editForm))
	e.POST("/profile/edit", loginRequired(v.edit))
}

func (v *profileViews) profile(ctx echo.Context, sc core.Scope) error {
	return render(ctx, http.StatusOK, "profile", "My Profile", echo.Map{"Profile": currentUser(ctx)})
}

func (v *profileViews) editForm(ctx echo.Context, sc core.Scope) error {
	usr := currentUser(ctx)
	return render(ctx, http.StatusOK, "edit_profile", "Edit Profile", echo.Map{
		"Form": user.UpdateProfile{
			Username:       usr.Username,
			Email:          usr.Email,
			EducationLevel: string(usr.EducationLevel),
		},
	})
}

func (v *profileViews) edit(ctx echo.Context, sc core.Scope) error {
	usr := currentUser(ctx)
	reqCtx := ctx.Request().Context()

	var data user.UpdateProfile
	var err error
	if err = ctx.Bind(&data); err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(reqCtx, usr, v.validate, v.svc); err == nil {
		usr, err = v.svc.UpdateProfile(reqCtx, usr, data)
	}
	if err != nil {
		f, ok := checkFormError(err, v.translator, "Username or email already in use!")
		if !ok {
			return errors.Wrap(err, "updating profile")
		}
		data.Password = ""
		return renderForm(ctx, f.code, "edit_profile", "Edit Profile", f.notice, echo.Map{"Form": data}, f.fields)
	}

	if err = startSession(ctx, usr); err != nil {
		return err
	}
	return redirectWithFlash(ctx, "/profile", flashSuccess, "Profile updated successfully!")
}
