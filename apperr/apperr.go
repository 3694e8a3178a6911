// Package apperr define la taxonomía de errores estándar de los
// microservicios Gravity: cada error lleva un code estable, un mensaje
// para el cliente y el status HTTP al que se traduce en el borde.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error estructura estándar para errores de aplicación.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // usado para el header, no se serializa
	Err        error  `json:"-"` // causa original, para logs, no se expone
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder a la causa con errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetail retorna una copia con detail para el cliente.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// New crea un Error.
func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// Wrap crea un Error envolviendo la causa.
func Wrap(err error, status int, code, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Constructores por tipo, espejo de la taxonomía histórica de Gravity.

func NotFound(message string) *Error {
	return New(http.StatusNotFound, "not_found", orDefault(message, "Resource not found"))
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "bad_request", orDefault(message, "Bad request"))
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", orDefault(message, "Unauthorized"))
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "forbidden", orDefault(message, "Forbidden"))
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, "conflict", orDefault(message, "Conflict"))
}

func Validation(message string) *Error {
	return New(http.StatusUnprocessableEntity, "validation_error", orDefault(message, "Validation error"))
}

func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, "service_unavailable", orDefault(message, "Service unavailable"))
}

func Database(err error) *Error {
	return Wrap(err, http.StatusInternalServerError, "database_error", "Database error")
}

func External(err error) *Error {
	return Wrap(err, http.StatusBadGateway, "external_service_error", "External service error")
}

func Internal(err error) *Error {
	return Wrap(err, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// FromError coerce cualquier error a *Error. Los que ya son *Error pasan
// intactos; el resto se envuelve como internal_error sin filtrar detalle.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
