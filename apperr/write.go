package apperr

import (
	"encoding/json"
	"net/http"
)

// errorResponse estructura interna de serialización. Controla exactamente
// qué campos ve el cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteJSON escribe la respuesta HTTP para el error dado. Errores
// genéricos se coercen primero con FromError.
func WriteJSON(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
