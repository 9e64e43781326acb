package apperror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Response is the JSON error envelope returned to clients.
type Response struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func statusFor(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBedUnavailable, CodeInvalidState, CodeAlreadyDischarged:
		return http.StatusConflict
	case CodeValidation, CodeInvalidTransition:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf returns the HTTP status the error handler will render err with.
// Middleware that runs before the error handler (metrics, request logging)
// uses it so failed requests are not labeled with the default 200.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if appErr, ok := As(err); ok {
		return statusFor(appErr.Code)
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

// HTTPErrorHandler returns an echo error handler that maps the taxonomy onto
// status codes and the {message, code} envelope. Unrecognized errors become
// an opaque 500 so internal detail never reaches the caller.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		resp := Response{Message: "internal server error", Code: CodeInternal}

		if appErr, ok := As(err); ok {
			status = statusFor(appErr.Code)
			resp = Response{Message: appErr.Message, Code: appErr.Code}
		} else if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			resp.Message = http.StatusText(status)
			if msg, ok := httpErr.Message.(string); ok {
				resp.Message = msg
			}
			switch {
			case status == http.StatusNotFound:
				resp.Code = CodeNotFound
			case status >= 400 && status < 500:
				resp.Code = CodeValidation
			}
		}

		if status >= 500 {
			logger.Error().Err(err).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, resp)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
