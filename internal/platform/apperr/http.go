package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPError maps a domain error to the HTTP error handlers return.
// ValidationError → 422, UserError → 409, anything else → 500.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case IsUser(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
