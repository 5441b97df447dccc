package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"-"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

// Predefined errors
var (
	ErrNotFound           = newAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	ErrRateLimitExceeded  = newAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded", nil)
	ErrInternalServer     = newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", nil)
	ErrServiceUnavailable = newAPIError(http.StatusServiceUnavailable, "DATA_LOADING", "Dataset is still loading", nil)
)

// InvalidParameter reports a query parameter that could not be parsed
func InvalidParameter(err error) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value", err.Error())
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationFailed reports a selection that failed validation
func ValidationFailed(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

// requestValidator plugs validator/v10 into echo's Context.Validate
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// errorHandler renders every handler error as an APIError body
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = fromHTTPError(httpErr)
		default:
			apiErr = ErrInternalServer
		}

		if apiErr.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(apiErr.StatusCode)
		} else {
			err = c.JSON(apiErr.StatusCode, apiErr)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", slog.String("error", err.Error()))
		}
	}
}

func fromHTTPError(he *echo.HTTPError) *APIError {
	switch he.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case http.StatusBadRequest:
		return newAPIError(he.Code, "INVALID_REQUEST", "Invalid request format", fmt.Sprint(he.Message))
	}
	return newAPIError(he.Code, "HTTP_ERROR", http.StatusText(he.Code), fmt.Sprint(he.Message))
}
