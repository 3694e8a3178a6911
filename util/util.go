// Package util helpers chicos compartidos entre servicios.
package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"
)

const alphanum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString genera un string alfanumérico aleatorio (crypto/rand).
func RandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	out := make([]byte, length)
	size := big.NewInt(int64(len(alphanum)))
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[i] = alphanum[n.Int64()]
	}
	return string(out), nil
}

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin
// padding), para reset links, API keys, etc.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Hex devuelve sha256(s) en hexadecimal.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}

// SHA256Base64URL devuelve sha256(s) en base64url sin padding (apto para
// guardar en DB como fingerprint).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// UTCNow retorna el tiempo actual en UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}
