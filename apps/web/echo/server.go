package echoweb

import (
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/dashboard"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
)

type (
	Options struct {
		Address        string
		SecretKey      string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		DisableCSRF    bool
		CookieSecure   bool
		SessionMaxAge  time.Duration

		Logger       core.Logger
		Validate     *validator.Validate
		Translator   ut.Translator
		HealthCheck  func(context.Context) error
		UserSvc      *user.Service
		StudentSvc   *student.Service
		SubjectSvc   *subject.Service
		GradeSvc     *grade.Service
		DashboardSvc *dashboard.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) (Server, error) {
	if opts.Validate == nil || opts.Translator == nil {
		opts.Validate, opts.Translator = core.NewValidator()
	}
	user.RegisterValidators(opts.Validate, opts.Translator)
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 7 * 24 * time.Hour
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.app.Renderer = renderer
	if err = s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) setup() error {
	s.app.HideBanner = true
	s.app.Debug = s.opts.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	hashKey, blockKey, err := sessionKeys(s.opts.SecretKey)
	if err != nil {
		return err
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = s.cookieOptions()
	s.app.Use(session.Middleware(store), s.loadSessionUser)

	if !s.opts.DisableCSRF {
		s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + csrfField,
			ContextKey:     csrfField,
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieSecure:   s.opts.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
			Skipper: func(ctx echo.Context) bool {
				return strings.HasPrefix(ctx.Path(), "/api/")
			},
		}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)

	s.app.GET("/health", s.health)
	registerPublicViews(s.app)
	registerAuthViews(s.app, s, s.opts.UserSvc)
	registerDashboardViews(s.app, s, s.opts.DashboardSvc)
	registerProfileViews(s.app, s, s.opts.UserSvc)
	registerStudentViews(s.app, s, s.opts.StudentSvc)
	registerSubjectViews(s.app, s, s.opts.SubjectSvc)
	registerGradeViews(s.app, s, s.opts.GradeSvc, s.opts.StudentSvc, s.opts.SubjectSvc)
	registerAPI(s.app, s, s.opts.StudentSvc, s.opts.DashboardSvc)
	return nil
}

// sessionKeys derives the cookie signing & AES-256 encryption keys from the app secret.
func sessionKeys(secret string) (hashKey, blockKey []byte, err error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("gradebook session"))
	hashKey, blockKey = make([]byte, 64), make([]byte, 32)
	if _, err = io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, errors.Wrap(err, "deriving session hash key")
	}
	if _, err = io.ReadFull(kdf, blockKey); err != nil {
		return nil, nil, errors.Wrap(err, "deriving session block key")
	}
	return hashKey, blockKey, nil
}

func (s *server) cookieOptions() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(s.opts.SessionMaxAge.Seconds()),
		Secure:   s.opts.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *server) Start() error {
	err := s.app.Start(s.opts.Address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(ctx echo.Context) error {
	if s.opts.HealthCheck != nil {
		if err := s.opts.HealthCheck(ctx.Request().Context()); err != nil {
			s.opts.Logger.Error("health check failed", err)
			return ctx.String(http.StatusServiceUnavailable, "unavailable")
		}
	}
	return ctx.String(http.StatusOK, "ok")
}
