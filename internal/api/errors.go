package api

import (
	"errors"
	"net/http"

	"github.com/micro-nova/lcdb-go/internal/lcdb"
)

// AppError is the JSON error body returned by every handler.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

func errBadRequest(msg string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: msg, Status: http.StatusBadRequest}
}

func errMethodNotAllowed(msg string) *AppError {
	return &AppError{Code: "METHOD_NOT_ALLOWED", Message: msg, Status: http.StatusMethodNotAllowed}
}

// toAppError maps device errors onto HTTP statuses.
func toAppError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, lcdb.ErrUnknownRail):
		return &AppError{Code: "NOT_FOUND", Message: err.Error(), Status: http.StatusNotFound}
	case errors.Is(err, lcdb.ErrRange):
		return &AppError{Code: "OUT_OF_RANGE", Message: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, lcdb.ErrTimeout):
		return &AppError{Code: "TIMEOUT", Message: err.Error(), Status: http.StatusGatewayTimeout}
	case errors.Is(err, lcdb.ErrRegister):
		return &AppError{Code: "REGISTER_ACCESS", Message: err.Error(), Status: http.StatusBadGateway}
	default:
		return &AppError{Code: "INTERNAL", Message: err.Error(), Status: http.StatusInternalServerError}
	}
}
