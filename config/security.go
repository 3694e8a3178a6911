package config

import (
	"fmt"
	"time"

	"github.com/gravity-platform/gravity-common/cache"
	"github.com/gravity-platform/gravity-common/database"
	"github.com/gravity-platform/gravity-common/logger"
	"github.com/gravity-platform/gravity-common/security/password"
	"github.com/gravity-platform/gravity-common/security/token"
)

// Puentes config → componentes. Fallar acá es fatal de arranque: un
// servicio sin clave activa o sin hasher no debe levantar.

// Keyring construye el keyring de firma desde la sección security.jwt.
func (c *Config) Keyring() (*token.Keyring, error) {
	jwt := c.Security.JWT
	if jwt.ActiveKey.KID == "" || jwt.ActiveKey.Secret == "" {
		return nil, token.ErrNoActiveKey
	}
	active := token.SigningKey{
		KID:    jwt.ActiveKey.KID,
		Secret: DecodeSecret(jwt.ActiveKey.Secret),
		Alg:    token.AlgHS256,
	}
	retired := make([]token.SigningKey, 0, len(jwt.RetiredKeys))
	for _, k := range jwt.RetiredKeys {
		retired = append(retired, token.SigningKey{
			KID:    k.KID,
			Secret: DecodeSecret(k.Secret),
			Alg:    token.AlgHS256,
		})
	}
	return token.NewKeyring(active, retired...)
}

// TokenService construye el servicio de tokens completo.
func (c *Config) TokenService() (*token.Service, error) {
	kr, err := c.Keyring()
	if err != nil {
		return nil, err
	}
	svc := token.NewService(c.Security.JWT.Issuer, kr)
	svc.AccessTTL = c.AccessTTL()
	svc.RefreshTTL = c.RefreshTTL()
	return svc, nil
}

// Hasher construye el hasher de credenciales según security.password.
func (c *Config) Hasher() (*password.Hasher, error) {
	p := c.Security.Password
	if p.Algorithm != "" && p.Algorithm != "argon2id" {
		return nil, fmt.Errorf("config: unsupported hash algorithm %q", p.Algorithm)
	}
	return password.New(password.Params{
		Memory:      p.MemoryKiB,
		Time:        p.Time,
		Parallelism: p.Parallelism,
		KeyLen:      p.KeyLen,
	}), nil
}

// CacheConfig mapea la sección cache al paquete cache.
func (c *Config) CacheConfig() cache.Config {
	out := cache.Config{Driver: c.Cache.Driver}
	out.Redis.Addr = c.Cache.Redis.Addr
	out.Redis.Password = c.Cache.Redis.Password
	out.Redis.DB = c.Cache.Redis.DB
	out.Redis.Prefix = c.Cache.Redis.Prefix
	out.Memory.DefaultTTL = parseDuration(c.Cache.Memory.DefaultTTL, 5*time.Minute)
	return out
}

// DatabaseConfig mapea la sección database al paquete database.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		DSN:             c.Database.DSN,
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: parseDuration(c.Database.MaxConnLifetime, time.Hour),
		MaxConnIdleTime: parseDuration(c.Database.MaxConnIdleTime, 30*time.Minute),
	}
}

// LoggerConfig mapea app+logging al paquete logger.
func (c *Config) LoggerConfig() logger.Config {
	env := "dev"
	if c.App.Env == "prod" || c.App.Env == "staging" {
		env = "prod"
	}
	return logger.Config{
		Env:     env,
		Level:   c.Logging.Level,
		Service: c.App.Name,
		Version: c.App.Version,
	}
}
