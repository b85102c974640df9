package echoapi

import (
	"encoding/json"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errEditorNotLoaded      = echo.NewHTTPError(http.StatusConflict, "class not loaded yet; reload the editor")
	errSubmitInProgress     = echo.NewHTTPError(http.StatusConflict, "class is already being saved")
	errUpstreamUnavailable  = echo.NewHTTPError(http.StatusBadGateway, "school API unavailable")
)

// httpError maps the errors of the core packages to their HTTP error, if any.
func httpError(err error) *echo.HTTPError {
	cause := errors.Cause(err)
	switch cause {
	case auth.ErrInvalidCredentials:
		return errAuthenticationFailed
	case auth.ErrAccountDeactivated:
		return errAccountDeactivated
	case auth.ErrSessionNotFound, auth.ErrSessionExpired:
		return errUnauthorized
	case classroom.ErrEditorClosed:
		return errHttpNotFound
	case classroom.ErrNotLoaded:
		return errEditorNotLoaded
	case classroom.ErrSubmitting:
		return errSubmitInProgress
	case catalog.ErrClosed:
		return errUnauthorized
	}

	if rerr, ok := cause.(*core.RequestError); ok {
		switch rerr.Status {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return echo.NewHTTPError(rerr.Status, upstreamMessage(rerr))
		case http.StatusUnauthorized:
			return errUnauthorized
		case http.StatusForbidden:
			return echo.NewHTTPError(http.StatusForbidden, "permission denied")
		default:
			return errUpstreamUnavailable
		}
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if herr := httpError(err); herr != nil {
			err = herr
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors, *core.ValidationError:
			code = http.StatusBadRequest
			if flds := core.TranslateErrors(origErr, translator); len(flds) > 0 {
				message = flds
			} else {
				message = origErr.Error()
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg), echo.Map{"method": ctx.Request().Method, "path": ctx.Path()}}
			if sess, ok := contextSession(ctx); ok {
				args = append(args, sess.User)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// upstreamMessage returns the message of an upstream error body, or the status text.
func upstreamMessage(rerr *core.RequestError) interface{} {
	var body struct {
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal([]byte(rerr.Body), &body); err == nil && body.Message != nil {
		return body.Message
	}
	return http.StatusText(rerr.Status)
}
