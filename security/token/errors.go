package token

import "errors"

// Errores del servicio de tokens. Cada uno es distinguible por errors.Is
// porque los consumidores reaccionan distinto (expirado → refresh,
// firma inválida → señal de ataque).
var (
	// ErrNoActiveKey no hay clave activa configurada. Fatal al arranque,
	// nunca debe tragarse.
	ErrNoActiveKey = errors.New("token: no active signing key")

	// ErrMalformedToken el token no tiene estructura JWT parseable.
	ErrMalformedToken = errors.New("token: malformed token")

	// ErrUnknownKey el token referencia un kid que no está en el keyring
	// (clave purgada o kid forjado). Es un fallo de verificación, no un
	// bug de configuración.
	ErrUnknownKey = errors.New("token: unknown signing key")

	// ErrInvalidSignature la firma no corresponde al contenido.
	ErrInvalidSignature = errors.New("token: invalid signature")

	// ErrTokenExpired el token ya venció (now >= exp).
	ErrTokenExpired = errors.New("token: token expired")

	// ErrWrongTokenType se presentó un access donde se esperaba refresh
	// (o viceversa).
	ErrWrongTokenType = errors.New("token: wrong token type")

	// ErrRefreshReplayed el refresh token ya fue consumido (ver ReplayGuard).
	ErrRefreshReplayed = errors.New("token: refresh token already used")
)
