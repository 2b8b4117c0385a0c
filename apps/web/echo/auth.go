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

type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type authViews struct {
	svc        *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerPublicViews(e *echo.Echo) {
	e.GET("/", index)
	e.GET("/about", about)
}

func index(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "index", "Welcome", nil)
}

func about(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "about", "About", nil)
}

func registerAuthViews(e *echo.Echo, s *server, svc *user.Service) {
	v := authViews{
		svc:        svc,
		validate:   s.opts.Validate,
		translator: s.opts.Translator,
	}

	e.GET("/signup", v.signupForm)
	e.POST("/signup", v.signup)
	e.GET(loginPath, v.loginForm)
	e.POST(loginPath, v.login)
	e.GET("/logout", loginRequired(v.logout))
}

func (v *authViews) signupForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "signup", "Sign Up", echo.Map{
		"Form": user.NewUser{EducationLevel: string(core.Primary)},
	})
}

func (v *authViews) signup(ctx echo.Context) error {
	var data user.NewUser
	err := ctx.Bind(&data)
	if err != nil {
		err = bindError(ctx, err)
	} else if err = data.Validate(ctx.Request().Context(), v.validate, v.svc); err == nil {
		_, err = v.svc.SignUp(ctx.Request().Context(), data)
	}
	if err != nil {
		f, ok := checkFormError(err, v.translator, "Username or email already exists!")
		if !ok {
			return errors.Wrap(err, "signing up")
		}
		if _, mismatch := f.fields["confirm_password"]; mismatch && f.code == http.StatusBadRequest {
			f.notice = "Passwords do not match!"
		}
		data.Password, data.PasswordConfirm = "", ""
		return renderForm(ctx, f.code, "signup", "Sign Up", f.notice, echo.Map{"Form": data}, f.fields)
	}
	return redirectWithFlash(ctx, loginPath, flashSuccess, "Account created successfully! Please log in.")
}

func (v *authViews) loginForm(ctx echo.Context) error {
	return render(ctx, http.StatusOK, "login", "Log In", echo.Map{"Form": LoginRequest{}})
}

func (v *authViews) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return renderForm(ctx, http.StatusBadRequest, "login", "Log In", invalidFormNotice, echo.Map{"Form": data}, nil)
	}

	usr, err := v.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			data.Password = ""
			return renderForm(ctx, http.StatusUnauthorized, "login", "Log In", "Invalid username or password!", echo.Map{"Form": data}, nil)
		}
		return errors.Wrap(err, "authenticating")
	}
	if err = startSession(ctx, usr); err != nil {
		return err
	}
	return redirectWithFlash(ctx, "/dashboard", flashSuccess, "Welcome back, "+usr.Username+"!")
}

func (v *authViews) logout(ctx echo.Context, _ core.Scope) error {
	if err := clearSession(ctx); err != nil {
		return err
	}
	return redirectWithFlash(ctx, "/", flashInfo, "You have been logged out successfully.")
}
