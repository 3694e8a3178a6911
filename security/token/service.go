package token

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gravity-platform/gravity-common/metrics"
)

// Type tipo de token emitido.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// TTLs por defecto cuando el servicio consumidor no configura otros.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims payload verificado de un token. Inmutable una vez emitido:
// solo se verifica o se deja expirar.
type Claims struct {
	Subject   string
	TokenType Type
	IssuedAt  time.Time
	ExpiresAt time.Time
	KID       string
	JTI       string
	Issuer    string
	Custom    map[string]any
}

// claims reservadas por el servicio; no pueden usarse como custom.
var reservedClaims = map[string]bool{
	"sub": true, "iat": true, "exp": true, "typ": true,
	"jti": true, "iss": true, "nbf": true, "aud": true,
}

// Service emite y verifica tokens firmados con la clave activa del
// keyring. Stateless por llamada: todo el estado es el keyring, que se
// lee como snapshot inmutable. Seguro para uso concurrente.
type Service struct {
	Issuer     string
	Keys       *Keyring
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// OnRefreshConsumed hook opcional: se invoca con el jti del refresh
	// token recién consumido por Refresh. El host puede persistir ahí la
	// revocación (rotación single-use, ver ReplayGuard).
	OnRefreshConsumed func(jti string)
}

// NewService construye un Service con los TTLs por defecto.
func NewService(issuer string, keys *Keyring) *Service {
	return &Service{
		Issuer:     issuer,
		Keys:       keys,
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
	}
}

// Mint emite un token del tipo dado con el TTL por defecto del tipo.
// custom es un extension point abierto de claims escalares; las keys
// reservadas (sub, exp, iat, typ, jti, iss, nbf, aud) se rechazan.
func (s *Service) Mint(subject string, typ Type, custom map[string]any) (string, error) {
	return s.MintWithTTL(subject, typ, custom, s.ttlFor(typ))
}

// MintWithTTL emite un token con un TTL explícito. Un ttl de 0 produce
// un token ya vencido (exp == iat), útil solo para pruebas.
func (s *Service) MintWithTTL(subject string, typ Type, custom map[string]any, ttl time.Duration) (string, error) {
	if typ != TypeAccess && typ != TypeRefresh {
		return "", fmt.Errorf("token: unknown token type %q", typ)
	}
	key, err := s.Keys.Active()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	mc := jwtv5.MapClaims{
		"sub": subject,
		"iat": jwtv5.NewNumericDate(now),
		"exp": jwtv5.NewNumericDate(now.Add(ttl)),
		"typ": string(typ),
		"jti": uuid.NewString(),
	}
	if s.Issuer != "" {
		mc["iss"] = s.Issuer
	}
	for k, v := range custom {
		if reservedClaims[k] {
			return "", fmt.Errorf("token: custom claim %q collides with a reserved claim", k)
		}
		mc[k] = v
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc)
	tk.Header["kid"] = key.KID
	signed, err := tk.SignedString(key.Secret)
	if err != nil {
		return "", err
	}
	metrics.TokensIssued.WithLabelValues(string(typ)).Inc()
	return signed, nil
}

// Verify parsea y valida un token: estructura, kid conocido, firma
// (comparación constant-time vía HMAC) y expiración, en ese orden de
// diagnóstico. Retorna las claims solo si todo pasa.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	tok, err := jwtv5.Parse(tokenString, s.keyfunc,
		jwtv5.WithValidMethods([]string{AlgHS256}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, s.mapVerifyError(err)
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		metrics.TokenVerifyFailures.WithLabelValues("malformed").Inc()
		return nil, ErrMalformedToken
	}
	kid, _ := tok.Header["kid"].(string)
	return claimsFromMap(mc, kid), nil
}

// Refresh verifica un refresh token y emite un par nuevo (access,
// refresh) con el mismo subject y las mismas claims custom. El jti
// consumido se reporta por OnRefreshConsumed; la invalidación del token
// viejo (rotación single-use) es responsabilidad del host, típicamente
// con un ReplayGuard sobre cache compartido.
func (s *Service) Refresh(refreshToken string) (access string, refresh string, err error) {
	claims, err := s.Verify(refreshToken)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != TypeRefresh {
		metrics.TokenVerifyFailures.WithLabelValues("wrong_type").Inc()
		return "", "", ErrWrongTokenType
	}

	access, err = s.Mint(claims.Subject, TypeAccess, claims.Custom)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.Mint(claims.Subject, TypeRefresh, claims.Custom)
	if err != nil {
		return "", "", err
	}
	if s.OnRefreshConsumed != nil {
		s.OnRefreshConsumed(claims.JTI)
	}
	return access, refresh, nil
}

// keyfunc resuelve el secreto por kid contra el snapshot del keyring.
func (s *Service) keyfunc(t *jwtv5.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrMalformedToken
	}
	key, ok := s.Keys.ByKID(kid)
	if !ok {
		return nil, ErrUnknownKey
	}
	return key.Secret, nil
}

func (s *Service) mapVerifyError(err error) error {
	switch {
	case errors.Is(err, ErrMalformedToken), errors.Is(err, jwtv5.ErrTokenMalformed):
		metrics.TokenVerifyFailures.WithLabelValues("malformed").Inc()
		return ErrMalformedToken
	case errors.Is(err, ErrUnknownKey):
		metrics.TokenVerifyFailures.WithLabelValues("unknown_key").Inc()
		return ErrUnknownKey
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
		metrics.TokenVerifyFailures.WithLabelValues("invalid_signature").Inc()
		return ErrInvalidSignature
	case errors.Is(err, jwtv5.ErrTokenExpired):
		metrics.TokenVerifyFailures.WithLabelValues("expired").Inc()
		return ErrTokenExpired
	default:
		metrics.TokenVerifyFailures.WithLabelValues("other").Inc()
		return fmt.Errorf("token: verification failed: %w", err)
	}
}

func (s *Service) ttlFor(typ Type) time.Duration {
	if typ == TypeRefresh {
		if s.RefreshTTL > 0 {
			return s.RefreshTTL
		}
		return DefaultRefreshTTL
	}
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func claimsFromMap(mc jwtv5.MapClaims, kid string) *Claims {
	c := &Claims{
		KID:    kid,
		Custom: map[string]any{},
	}
	if v, ok := mc["sub"].(string); ok {
		c.Subject = v
	}
	if v, ok := mc["typ"].(string); ok {
		c.TokenType = Type(v)
	}
	if v, ok := mc["jti"].(string); ok {
		c.JTI = v
	}
	if v, ok := mc["iss"].(string); ok {
		c.Issuer = v
	}
	if v, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0).UTC()
	}
	for k, v := range mc {
		if !reservedClaims[k] {
			c.Custom[k] = v
		}
	}
	return c
}
