// Package httpx provee la capa HTTP común de los servicios Gravity:
// envelopes de respuesta, middlewares (request id, logging, auth bearer)
// y un router base con health y métricas.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gravity-platform/gravity-common/apperr"
)

// Envelope formato de respuesta uniforme de la plataforma.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Meta      any       `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Paginated respuesta de listados con paginación.
type Paginated struct {
	Items       any  `json:"items"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaginated arma la página con los flags derivados.
func NewPaginated(items any, total, page, pageSize int) Paginated {
	if pageSize <= 0 {
		pageSize = 10
	}
	totalPages := (total + pageSize - 1) / pageSize
	return Paginated{
		Items:       items,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// PaginationParams parámetros comunes de paginación.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset para la query a la base.
func (p PaginationParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = 10
	}
	return (page - 1) * size
}

// OK escribe una respuesta exitosa con el envelope estándar.
func OK(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Fail escribe el error con la taxonomía de apperr.
func Fail(w http.ResponseWriter, err error) {
	apperr.WriteJSON(w, err)
}
