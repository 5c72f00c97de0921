package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/anonto42/bsg-marketplace/backend/internal/middleware"
	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
	"github.com/anonto42/bsg-marketplace/backend/validators"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors,omitempty"`
}

func success(c echo.Context, status int, message string, data interface{}) error {
	if message == "" {
		message = "Success"
	}
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// fieldError is an HTTP error carrying per-field messages, such as a 409
// for a taken username.
type fieldError struct {
	code    int
	message string
	fields  validators.FieldErrors
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.message, e.fields)
}

func (e *fieldError) StatusCode() int {
	return e.code
}

func conflict(message string, fields validators.FieldErrors) error {
	return &fieldError{code: http.StatusConflict, message: message, fields: fields}
}

func invalid(fields validators.FieldErrors) error {
	return &fieldError{code: http.StatusUnprocessableEntity, message: "Validation failed", fields: fields}
}

// ErrorHandler renders every error as the JSON envelope. Validation failures
// become 422, echo HTTP errors keep their code, anything else is logged and
// reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := Response{Message: "Internal server error"}

	var fe *fieldError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &fe):
		code, body.Message, body.Errors = fe.code, fe.message, fe.fields
	case isFieldErrors(err):
		fields, _ := validators.Collect(err)
		code, body.Message, body.Errors = http.StatusUnprocessableEntity, "Validation failed", fields
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(code)
		}
		if code >= http.StatusInternalServerError && he.Internal != nil {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", he.Internal)
		}
	default:
		logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}

func isFieldErrors(err error) bool {
	_, ok := validators.Collect(err)
	return ok
}

// bind decodes the request into req and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// idParam parses a positive integer path parameter.
func idParam(c echo.Context, name, message string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, message)
	}
	return uint(id), nil
}

// queryInt reads a non-negative integer query value, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func currentUser(c echo.Context) (*auth.Identity, error) {
	identity := middleware.CurrentUser(c)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}
	return identity, nil
}
