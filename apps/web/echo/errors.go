package echoweb

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

const invalidFormNotice = "Please correct the errors below."

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// HTML pages get an error page, /api endpoints get {"error": "..."}.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)

			sc, _ := core.ScopeFromContext(ctx.Request().Context())
			logger.Error(message, errors.Wrap(err, message), sc, map[string]interface{}{
				"method":     ctx.Request().Method,
				"path":       ctx.Request().URL.Path,
				"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
			})
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			err = ctx.NoContent(code)
		case strings.HasPrefix(ctx.Request().URL.Path, "/api/"):
			err = ctx.JSON(code, echo.Map{"error": message})
		default:
			err = render(ctx, code, "error", http.StatusText(code), echo.Map{"Code": code, "Message": message})
			if err != nil {
				err = ctx.String(code, message)
			}
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

// formFailure describes why a submitted form was rejected.
type formFailure struct {
	code   int
	notice string
	fields map[string]string
}

// checkFormError turns validation & conflict errors into a formFailure.
// ok is false for any other error, which must be returned to the error handler.
func checkFormError(err error, translator ut.Translator, conflictNotice string) (formFailure, bool) {
	if vErrs, isV := errors.Cause(err).(validator.ValidationErrors); isV {
		err = core.TranslateValidationErrors(vErrs, translator, invalidFormNotice)
	}

	var (
		confErr *core.ConflictError
		valErr  *core.ValidationError
	)
	if errors.As(err, &confErr) {
		f := formFailure{code: http.StatusConflict, notice: conflictNotice}
		if errors.As(confErr.Err, &valErr) {
			f.fields = valErr.FieldMap()
		}
		return f, true
	}
	if errors.As(err, &valErr) {
		notice := valErr.Error()
		if notice == "" {
			notice = invalidFormNotice
		}
		return formFailure{code: http.StatusBadRequest, notice: notice, fields: valErr.FieldMap()}, true
	}
	return formFailure{}, false
}

// bindError reports a malformed submission as a validation failure.
func bindError(ctx echo.Context, err error) error {
	ctx.Logger().Debugf("binding form: %v", err)
	return core.NewValidationError(errors.New(invalidFormNotice))
}
