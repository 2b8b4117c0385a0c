package echoweb

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

const (
	sessionName = "gradebook_session"
	csrfField   = "_csrf"

	userIDKey = "user_id" // the only session value besides flashes

	// echo.Context keys
	currentUserKey  = "user"
	staleSessionKey = "stale_session"

	loginPath = "/login"
)

// flash categories
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// scopedHandler is an echo.HandlerFunc that receives the visibility scope of the logged-in user.
type scopedHandler func(ctx echo.Context, sc core.Scope) error

func getSession(ctx echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, ctx)
	if sess == nil {
		return nil, errors.Wrap(err, "getting session")
	}
	// a tampered or expired cookie yields a fresh session along with err
	return sess, nil
}

func saveSession(ctx echo.Context, sess *sessions.Session) error {
	return errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

// startSession binds the session to usr. Only the id is stored: role & level are reloaded on every request.
func startSession(ctx echo.Context, usr user.User) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}
	sess.Values[userIDKey] = usr.ID
	return saveSession(ctx, sess)
}

// clearSession forgets the logged-in user; the session itself survives to carry flash messages.
func clearSession(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	return saveSession(ctx, sess)
}

// sessionUserID returns the id of the logged-in user, if any.
func sessionUserID(ctx echo.Context) (int, bool) {
	sess, err := getSession(ctx)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values[userIDKey].(int)
	return id, ok && id > 0
}

// currentUser returns the user loaded by loadSessionUser.
func currentUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(currentUserKey).(user.User)
	return usr
}

// addFlash queues a message displayed on the next rendered page.
func addFlash(ctx echo.Context, category, msg string) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}
	sess.AddFlash(Flash{Category: category, Message: msg})
	return saveSession(ctx, sess)
}

// popFlashes returns & clears the queued flash messages.
func popFlashes(ctx echo.Context) []Flash {
	sess, err := getSession(ctx)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err = saveSession(ctx, sess); err != nil {
		ctx.Logger().Error(err)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}

// redirectWithFlash flashes msg then redirects to path with 303 See Other.
func redirectWithFlash(ctx echo.Context, path, category, msg string) error {
	if err := addFlash(ctx, category, msg); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, path)
}

// loadSessionUser reloads the logged-in user from the database on every request, so role & level
// changes apply immediately. A session whose user no longer exists is cleared.
func (s *server) loadSessionUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, ok := sessionUserID(ctx)
		if !ok {
			return next(ctx)
		}
		usr, err := s.opts.UserSvc.GetByID(ctx.Request().Context(), id)
		switch {
		case err == nil:
			ctx.Set(currentUserKey, usr)
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.WithScope(req.Context(), usr.Scope())))
		case errors.Cause(err) == user.ErrNotFound:
			if err = clearSession(ctx); err != nil {
				return err
			}
			ctx.Set(staleSessionKey, true)
		default:
			return errors.Wrap(err, "loading session user")
		}
		return next(ctx)
	}
}

// loginRequired redirects anonymous users to the login page; authenticated ones reach h with their Scope.
func loginRequired(h scopedHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, ok := ctx.Get(currentUserKey).(user.User)
		if !ok {
			msg := "Please log in to access this page."
			if stale, _ := ctx.Get(staleSessionKey).(bool); stale {
				msg = "User not found. Please log in again."
			}
			if err := addFlash(ctx, flashWarning, msg); err != nil {
				return err
			}
			return ctx.Redirect(http.StatusFound, loginPath)
		}
		return h(ctx, usr.Scope())
	}
}
