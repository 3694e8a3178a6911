package token_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/gravity-platform/gravity-common/security/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) *token.Service {
	t.Helper()
	kr, err := token.NewKeyring(token.SigningKey{KID: "k-1", Secret: testSecret})
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return token.NewService("https://auth.gravity.local", kr)
}

// b64urlAlphabet used to corrupt encoded segments with a guaranteed
// byte-level change (xor the high bit of the 6-bit group, so even the
// final character of a segment decodes differently).
const b64urlAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func corruptChar(c byte) byte {
	idx := strings.IndexByte(b64urlAlphabet, c)
	if idx < 0 {
		return 'A'
	}
	return b64urlAlphabet[idx^32]
}

func TestMintVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t)
	custom := map[string]any{"role": "admin", "tenant": "acme"}

	signed, err := svc.Mint("user-42", token.TypeAccess, custom)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("subject = %q, want user-42", claims.Subject)
	}
	if claims.TokenType != token.TypeAccess {
		t.Errorf("token type = %q, want access", claims.TokenType)
	}
	if claims.KID != "k-1" {
		t.Errorf("kid = %q, want k-1", claims.KID)
	}
	if claims.JTI == "" {
		t.Error("jti is empty")
	}
	if claims.Issuer != "https://auth.gravity.local" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		t.Errorf("exp %v not after iat %v", claims.ExpiresAt, claims.IssuedAt)
	}
	if got := claims.Custom["role"]; got != "admin" {
		t.Errorf("custom role = %v, want admin", got)
	}
	if got := claims.Custom["tenant"]; got != "acme" {
		t.Errorf("custom tenant = %v, want acme", got)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	svc := newTestService(t)
	signed, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	for i := 0; i < len(parts[2]); i++ {
		sig := []byte(parts[2])
		sig[i] = corruptChar(sig[i])
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := svc.Verify(tampered)
		if !errors.Is(err, token.ErrInvalidSignature) {
			t.Fatalf("byte %d: got %v, want ErrInvalidSignature", i, err)
		}
	}
}

func TestVerifyTamperedClaims(t *testing.T) {
	svc := newTestService(t)
	signed, err := svc.Mint("u1", token.TypeAccess, map[string]any{"role": "viewer"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	parts := strings.Split(signed, ".")

	// Any altered byte in the claims segment must be rejected: either the
	// JSON no longer parses (malformed) or the signature no longer matches.
	// Never silently accepted with altered claims.
	for i := 0; i < len(parts[1]); i++ {
		body := []byte(parts[1])
		body[i] = corruptChar(body[i])
		tampered := parts[0] + "." + string(body) + "." + parts[2]

		_, err := svc.Verify(tampered)
		if err == nil {
			t.Fatalf("byte %d: tampered claims accepted", i)
		}
		if !errors.Is(err, token.ErrInvalidSignature) && !errors.Is(err, token.ErrMalformedToken) {
			t.Fatalf("byte %d: got %v, want invalid signature or malformed", i, err)
		}
	}
}

func TestVerifyTamperedHeader(t *testing.T) {
	svc := newTestService(t)
	signed, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	parts := strings.Split(signed, ".")
	head := []byte(parts[0])
	head[len(head)/2] = corruptChar(head[len(head)/2])
	tampered := string(head) + "." + parts[1] + "." + parts[2]

	if _, err := svc.Verify(tampered); err == nil {
		t.Fatal("tampered header accepted")
	}
}

func TestVerifyExpiredAtZeroTTL(t *testing.T) {
	svc := newTestService(t)
	signed, err := svc.MintWithTTL("u1", token.TypeAccess, nil, 0)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	svc := newTestService(t)
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d", "!!!.@@@.###"} {
		_, err := svc.Verify(raw)
		if !errors.Is(err, token.ErrMalformedToken) {
			t.Errorf("Verify(%q) = %v, want ErrMalformedToken", raw, err)
		}
	}
}

func TestVerifyUnknownKID(t *testing.T) {
	svc := newTestService(t)

	// Token firmado con una clave que el keyring nunca vio.
	mc := jwtv5.MapClaims{
		"sub": "intruder",
		"iat": jwtv5.NewNumericDate(time.Now()),
		"exp": jwtv5.NewNumericDate(time.Now().Add(time.Minute)),
		"typ": "access",
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc)
	tk.Header["kid"] = "ghost"
	signed, err := tk.SignedString([]byte("another-secret-entirely-0123456"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrUnknownKey) {
		t.Fatalf("got %v, want ErrUnknownKey", err)
	}
}

func TestVerifyRejectsMissingKID(t *testing.T) {
	svc := newTestService(t)
	mc := jwtv5.MapClaims{
		"sub": "u1",
		"exp": jwtv5.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrMalformedToken) {
		t.Fatalf("got %v, want ErrMalformedToken", err)
	}
}

func TestVerifyRejectsUnexpectedAlg(t *testing.T) {
	svc := newTestService(t)

	mc := jwtv5.MapClaims{
		"sub": "u1",
		"exp": jwtv5.NewNumericDate(time.Now().Add(time.Minute)),
		"typ": "access",
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS384, mc)
	tk.Header["kid"] = "k-1"
	signed, err := tk.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrInvalidSignature) {
		t.Fatalf("got %v, want ErrInvalidSignature", err)
	}
}

func TestRotationKeepsOldTokensVerifiable(t *testing.T) {
	svc := newTestService(t)

	oldToken, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint under k-1: %v", err)
	}

	if err := svc.Keys.Rotate(token.SigningKey{KID: "k-2", Secret: []byte("ffffffffffffffffffffffffffffffff")}); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// El token viejo sigue verificando contra la clave retirada.
	if _, err := svc.Verify(oldToken); err != nil {
		t.Fatalf("old token after rotation: %v", err)
	}

	// Los nuevos salen firmados por k-2.
	newToken, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint under k-2: %v", err)
	}
	claims, err := svc.Verify(newToken)
	if err != nil {
		t.Fatalf("verify new token: %v", err)
	}
	if claims.KID != "k-2" {
		t.Errorf("new token kid = %q, want k-2", claims.KID)
	}

	// Purga temprana: el hazard documentado, los tokens pendientes fallan.
	if !svc.Keys.Purge("k-1") {
		t.Fatal("purge k-1 refused")
	}
	if _, err := svc.Verify(oldToken); !errors.Is(err, token.ErrUnknownKey) {
		t.Fatalf("after purge got %v, want ErrUnknownKey", err)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	svc := newTestService(t)
	var consumed []string
	svc.OnRefreshConsumed = func(jti string) { consumed = append(consumed, jti) }

	refresh, err := svc.Mint("u7", token.TypeRefresh, map[string]any{"role": "editor"})
	if err != nil {
		t.Fatalf("mint refresh: %v", err)
	}
	orig, err := svc.Verify(refresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}

	newAccess, newRefresh, err := svc.Refresh(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	ac, err := svc.Verify(newAccess)
	if err != nil {
		t.Fatalf("verify new access: %v", err)
	}
	if ac.TokenType != token.TypeAccess || ac.Subject != "u7" {
		t.Errorf("new access claims = %+v", ac)
	}
	if ac.Custom["role"] != "editor" {
		t.Errorf("custom claims not carried over: %v", ac.Custom)
	}

	rc, err := svc.Verify(newRefresh)
	if err != nil {
		t.Fatalf("verify new refresh: %v", err)
	}
	if rc.TokenType != token.TypeRefresh {
		t.Errorf("new refresh type = %q", rc.TokenType)
	}
	if rc.JTI == orig.JTI {
		t.Error("new refresh reuses the consumed jti")
	}

	if len(consumed) != 1 || consumed[0] != orig.JTI {
		t.Errorf("OnRefreshConsumed got %v, want [%s]", consumed, orig.JTI)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(t)
	access, err := svc.Mint("u1", token.TypeAccess, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, _, err = svc.Refresh(access)
	if !errors.Is(err, token.ErrWrongTokenType) {
		t.Fatalf("got %v, want ErrWrongTokenType", err)
	}
}

func TestMintWithoutActiveKey(t *testing.T) {
	svc := token.NewService("iss", &token.Keyring{})
	_, err := svc.Mint("u1", token.TypeAccess, nil)
	if !errors.Is(err, token.ErrNoActiveKey) {
		t.Fatalf("got %v, want ErrNoActiveKey", err)
	}
}

func TestMintRejectsReservedCustomClaim(t *testing.T) {
	svc := newTestService(t)
	for _, k := range []string{"sub", "exp", "iat", "typ", "jti", "iss"} {
		if _, err := svc.Mint("u1", token.TypeAccess, map[string]any{k: "x"}); err == nil {
			t.Errorf("custom claim %q accepted", k)
		}
	}
}

func TestMintRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Mint("u1", token.Type("session"), nil); err == nil {
		t.Fatal("unknown token type accepted")
	}
}
