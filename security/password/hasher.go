// Package password implementa el hashing de credenciales compartido:
// argon2id como algoritmo vigente y verificación legacy de bcrypt (los
// hashes que produjo la versión Python de esta librería). El string
// almacenado es auto-descriptivo (tag PHC + parámetros + salt + digest),
// así el verificador no necesita contexto externo.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravity-platform/gravity-common/metrics"
)

var (
	// ErrMalformedCredential el hash almacenado no se pudo parsear.
	// Distinto de "password incorrecta": un registro corrupto no debe
	// confundirse con un fallo de verificación.
	ErrMalformedCredential = errors.New("password: malformed stored credential")

	// ErrEmptyPassword no se hashean strings vacíos.
	ErrEmptyPassword = errors.New("password: empty password")
)

// Params costo de argon2id. Subir el costo y redeployar alcanza: los
// hashes viejos siguen verificando y NeedsUpgrade los reporta.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

// DefaultParams costo vigente.
var DefaultParams = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

const saltLen = 16

// Hasher hashea y verifica credenciales. Stateless por llamada; el
// hashing es CPU-intensivo a propósito, despacharlo fuera del camino
// caliente del scheduler si el caller es cooperativo.
type Hasher struct {
	params Params
}

// New crea un Hasher con los parámetros dados (campos en cero toman el
// default).
func New(p Params) *Hasher {
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultParams.Parallelism
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return &Hasher{params: p}
}

// Default crea un Hasher con el costo vigente.
func Default() *Hasher { return New(DefaultParams) }

// Params retorna los parámetros vigentes del hasher.
func (h *Hasher) Params() Params { return h.params }

// Hash deriva un PHC string argon2id con salt fresco:
// $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
// El plaintext no se loguea ni se retiene.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	start := time.Now()
	dk := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLen)
	metrics.PasswordHashDuration.Observe(float64(time.Since(start).Milliseconds()))

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara plain contra el hash almacenado. Despacha por el tag
// embebido sobre el set cerrado {argon2id, bcrypt}; comparación
// constant-time. (false, nil) = password incorrecta;
// ErrMalformedCredential = registro corrupto.
func (h *Hasher) Verify(plain, stored string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return verifyArgon2id(plain, stored)
	case isBcrypt(stored):
		return verifyBcrypt(plain, stored)
	default:
		return false, ErrMalformedCredential
	}
}

// NeedsUpgrade reporta si el hash almacenado debería re-derivarse con el
// algoritmo/costo vigente en el próximo login exitoso. bcrypt (legacy) y
// argon2id con costo distinto al vigente reportan true; un registro
// imparseable también, re-hashearlo es la única salida.
func (h *Hasher) NeedsUpgrade(stored string) bool {
	if isBcrypt(stored) {
		return true
	}
	p, _, _, err := parseArgon2id(stored)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory ||
		p.Time != h.params.Time ||
		p.Parallelism != h.params.Parallelism ||
		p.KeyLen != h.params.KeyLen
}

func verifyArgon2id(plain, stored string) (bool, error) {
	p, salt, dk, err := parseArgon2id(stored)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return subtle.ConstantTimeCompare(key, dk) == 1, nil
}

// parseArgon2id parsea el PHC string. Estricto: cualquier desviación del
// layout es ErrMalformedCredential.
func parseArgon2id(stored string) (Params, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	// ["", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk]
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	var m, t, par uint32
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &par); err != nil || n != 3 {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	if par == 0 || par > 255 {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	dk, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dk) == 0 {
		return Params{}, nil, nil, ErrMalformedCredential
	}
	p := Params{Memory: m, Time: t, Parallelism: uint8(par), KeyLen: uint32(len(dk))}
	return p, salt, dk, nil
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

func verifyBcrypt(plain, stored string) (bool, error) {
	// Validar el formato primero para no confundir un registro corrupto
	// con una password incorrecta.
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return false, ErrMalformedCredential
	}
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrMalformedCredential
}
