package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gravity-platform/gravity-common/apperr"
	"github.com/gravity-platform/gravity-common/logger"
	"github.com/gravity-platform/gravity-common/security/token"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClaims
)

const headerRequestID = "X-Request-ID"

// RequestID asegura un request id por request: respeta el header entrante
// o genera un uuid, y lo propaga en contexto y respuesta.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(headerRequestID, rid)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext retorna el request id, o "" si no hay.
func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKeyRequestID).(string)
	return rid
}

// statusRecorder captura el status para el log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger loguea cada request con los campos estándar.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Named("http").Info("request",
			logger.RequestID(RequestIDFromContext(r.Context())),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(rec.status),
			logger.Duration(time.Since(start)),
		)
	})
}

// RequireAuth exige un access token Bearer válido. Deja las claims
// verificadas en el contexto; los fallos se traducen a 401 con codes
// distinguibles (token_expired dispara el refresh en el cliente).
func RequireAuth(svc *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				Fail(w, apperr.Unauthorized("Missing bearer token"))
				return
			}
			claims, err := svc.Verify(raw)
			if err != nil {
				Fail(w, authError(err))
				return
			}
			if claims.TokenType != token.TypeAccess {
				Fail(w, apperr.New(http.StatusUnauthorized, "wrong_token_type", "Access token required"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retorna las claims dejadas por RequireAuth.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*token.Claims)
	return c, ok
}

// authError traduce los errores del servicio de tokens a la taxonomía
// HTTP. Todos son 401; el code preserva la distinción.
func authError(err error) *apperr.Error {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return apperr.New(http.StatusUnauthorized, "token_expired", "Token expired")
	case errors.Is(err, token.ErrWrongTokenType):
		return apperr.New(http.StatusUnauthorized, "wrong_token_type", "Wrong token type")
	case errors.Is(err, token.ErrMalformedToken),
		errors.Is(err, token.ErrUnknownKey),
		errors.Is(err, token.ErrInvalidSignature):
		return apperr.Wrap(err, http.StatusUnauthorized, "invalid_token", "Invalid token")
	default:
		return apperr.Internal(err)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
