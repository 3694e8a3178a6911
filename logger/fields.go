package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para que todos los servicios logueen igual.

// RequestID campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Subject campo para la identidad autenticada. Nunca loguear el token.
func Subject(v string) zap.Field {
	return zap.String("subject", v)
}

// TokenType campo para el tipo de token (access|refresh).
func TokenType(v string) zap.Field {
	return zap.String("token_type", v)
}

// KID campo para el key id de firma.
func KID(v string) zap.Field {
	return zap.String("kid", v)
}

// Reason campo para el motivo de un rechazo.
func Reason(v string) zap.Field {
	return zap.String("reason", v)
}

// Component campo para el componente emisor.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Err campo estándar para errores.
func Err(err error) zap.Field {
	return zap.Error(err)
}
