// Package token implementa el servicio de tokens firmados compartido por
// los microservicios Gravity: emisión y verificación de access/refresh
// tokens HS256 con rotación de claves por kid.
//
// El keyring es un snapshot inmutable detrás de un atomic.Pointer: las
// lecturas son lock-free y una rotación publica un snapshot nuevo
// completo, nunca edita el vigente. Un verificador concurrente ve el
// registro viejo o el nuevo, jamás uno a medias.
package token

import (
	"fmt"
	"sync/atomic"
)

// AlgHS256 es el único algoritmo del set soportado. Tags desconocidos se
// rechazan explícitamente en verificación.
const AlgHS256 = "HS256"

// KeyStatus estado de una clave dentro del keyring.
type KeyStatus string

const (
	KeyActive  KeyStatus = "active"
	KeyRetired KeyStatus = "retired"
)

// SigningKey clave HMAC identificada por kid. Las retiradas se conservan
// para verificar tokens emitidos antes de la rotación.
type SigningKey struct {
	KID    string
	Secret []byte
	Alg    string
	Status KeyStatus
}

func (k SigningKey) validate() error {
	if k.KID == "" {
		return fmt.Errorf("token: signing key without kid")
	}
	if len(k.Secret) == 0 {
		return fmt.Errorf("token: signing key %q without secret material", k.KID)
	}
	if k.Alg != "" && k.Alg != AlgHS256 {
		return fmt.Errorf("token: unsupported algorithm %q for key %q", k.Alg, k.KID)
	}
	return nil
}

// snapshot registro inmutable de claves. Se reemplaza entero en cada
// rotación/purge.
type snapshot struct {
	active *SigningKey
	byKID  map[string]*SigningKey
}

// Keyring registro de claves de proceso. A lo sumo una clave activa;
// cero o más retiradas verificables.
type Keyring struct {
	snap atomic.Pointer[snapshot]
}

// NewKeyring construye el keyring inicial con la clave activa y las
// retiradas que sigan siendo verificables.
func NewKeyring(active SigningKey, retired ...SigningKey) (*Keyring, error) {
	if err := active.validate(); err != nil {
		return nil, err
	}
	act := normalize(active, KeyActive)

	byKID := map[string]*SigningKey{act.KID: act}
	for _, r := range retired {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := byKID[r.KID]; dup {
			return nil, fmt.Errorf("token: duplicate kid %q in keyring", r.KID)
		}
		byKID[r.KID] = normalize(r, KeyRetired)
	}

	kr := &Keyring{}
	kr.snap.Store(&snapshot{active: act, byKID: byKID})
	return kr, nil
}

// Active retorna la clave activa actual. ErrNoActiveKey si no hay.
func (kr *Keyring) Active() (*SigningKey, error) {
	s := kr.snap.Load()
	if s == nil || s.active == nil {
		return nil, ErrNoActiveKey
	}
	return s.active, nil
}

// ByKID busca una clave por kid (activa o retirada).
func (kr *Keyring) ByKID(kid string) (*SigningKey, bool) {
	s := kr.snap.Load()
	if s == nil {
		return nil, false
	}
	k, ok := s.byKID[kid]
	return k, ok
}

// Rotate publica un snapshot nuevo: newKey pasa a activa y la activa
// anterior queda retirada (sigue verificando hasta que se purgue).
// Los tokens emitidos bajo la clave anterior no se invalidan.
func (kr *Keyring) Rotate(newKey SigningKey) error {
	if err := newKey.validate(); err != nil {
		return err
	}
	old := kr.snap.Load()
	if old != nil {
		if _, dup := old.byKID[newKey.KID]; dup {
			return fmt.Errorf("token: kid %q already present in keyring", newKey.KID)
		}
	}

	act := normalize(newKey, KeyActive)
	byKID := map[string]*SigningKey{act.KID: act}
	if old != nil {
		for kid, k := range old.byKID {
			if old.active != nil && kid == old.active.KID {
				ret := *old.active
				ret.Status = KeyRetired
				byKID[kid] = &ret
				continue
			}
			byKID[kid] = k
		}
	}
	kr.snap.Store(&snapshot{active: act, byKID: byKID})
	return nil
}

// Purge elimina una clave retirada del keyring. Purgar antes de que
// venzan los tokens firmados con ella los hace fallar con ErrUnknownKey:
// es un hazard operacional, no algo que el keyring maneje solo. La clave
// activa no se puede purgar.
func (kr *Keyring) Purge(kid string) bool {
	old := kr.snap.Load()
	if old == nil {
		return false
	}
	k, ok := old.byKID[kid]
	if !ok || k.Status == KeyActive {
		return false
	}

	byKID := make(map[string]*SigningKey, len(old.byKID)-1)
	for id, key := range old.byKID {
		if id != kid {
			byKID[id] = key
		}
	}
	kr.snap.Store(&snapshot{active: old.active, byKID: byKID})
	return true
}

// Retired lista las claves retiradas vigentes (copia).
func (kr *Keyring) Retired() []SigningKey {
	s := kr.snap.Load()
	if s == nil {
		return nil
	}
	var out []SigningKey
	for _, k := range s.byKID {
		if k.Status == KeyRetired {
			out = append(out, *k)
		}
	}
	return out
}

func normalize(k SigningKey, st KeyStatus) *SigningKey {
	cp := k
	cp.Alg = AlgHS256
	cp.Status = st
	cp.Secret = append([]byte(nil), k.Secret...)
	return &cp
}
