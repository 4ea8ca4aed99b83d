package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"apptracker/internal/auth"
	apperrors "apptracker/internal/errors"
)

// ContextKeyUser is where the JWT middleware stores *auth.Claims.
const ContextKeyUser = "user"

// fail converts err into an echo error carrying an ErrorResponse body.
// Unexpected errors are logged and replaced by a generic 500.
func fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(msg, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// ownerID returns the authenticated user id bound by the JWT middleware.
func ownerID(c echo.Context) (uint, error) {
	claims, ok := c.Get(ContextKeyUser).(*auth.Claims)
	if !ok || claims == nil || claims.UserID == 0 {
		return 0, apperrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

// applicationID parses the :id path parameter as a positive integer.
func applicationID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid application id", "INVALID_ID")
	}
	return uint(id), nil
}

// validationMessage renders the first validator failure as a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
