package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wiseroute/transport-booking/internal/dto"
)

// ErrorHandler renders every error as a {"message": ...} body. Internal
// errors are masked; handlers surface user-facing problems as
// *echo.HTTPError with an explicit status.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
