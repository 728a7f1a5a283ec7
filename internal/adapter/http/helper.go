package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/adapter/middleware"
	"loan-origination/internal/domain/apperr"
)

// statusFor maps an error kind onto its HTTP status.
func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition, apperr.KindInvalidParameters:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as an ErrorResponse. Internal failures are logged
// and their cause is not exposed.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal("INTERNAL_ERROR", "internal error", err)
	}
	if ae.Kind == apperr.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"code":   ae.Code,
		}).Error("request failed")
	}
	return c.JSON(statusFor(ae.Kind), ErrorResponse{Error: ae.Message, Code: ae.Code, Allowed: ae.Allowed})
}

// bind decodes and validates req. When done is true the request was
// rejected and err is the result of writing that response.
func bind(c echo.Context, req any) (done bool, err error) {
	if err := c.Bind(req); err != nil {
		return true, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "INVALID_PARAMETERS"})
	}
	if err := c.Validate(req); err != nil {
		return true, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_FAILED",
			Details: ToFieldErrors(err),
		})
	}
	return false, nil
}

// actor returns the authenticated subject or writes a 401.
func actor(c echo.Context) (string, bool) {
	sub := middleware.Subject(c)
	if sub == "" {
		_ = c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not authenticated", Code: "UNAUTHORIZED"})
		return "", false
	}
	return sub, true
}

// pageParams reads limit/offset. Malformed values fall back to zero and the
// usecase applies its defaults.
func pageParams(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
