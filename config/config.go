// Package config carga la configuración compartida de los servicios
// Gravity: YAML + .env opcional + overrides GRAVITY_* de entorno.
// La sección security alimenta directamente el keyring de firma y el
// hasher de credenciales.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KeyConfig una clave de firma en configuración. El secret puede venir
// en base64 (recomendado) o como texto plano.
type KeyConfig struct {
	KID    string `yaml:"kid"`
	Secret string `yaml:"secret"`
}

// Config raíz. Cada servicio carga la suya; la librería solo fija el
// formato.
type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Database struct {
		DSN             string `yaml:"dsn"`
		MaxConns        int32  `yaml:"max_conns"`
		MinConns        int32  `yaml:"min_conns"`
		MaxConnLifetime string `yaml:"max_conn_lifetime"`
		MaxConnIdleTime string `yaml:"max_conn_idle_time"`
	} `yaml:"database"`

	Cache struct {
		Driver string `yaml:"driver"` // memory | redis
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Security struct {
		JWT struct {
			Issuer      string      `yaml:"issuer"`
			AccessTTL   string      `yaml:"access_ttl"`
			RefreshTTL  string      `yaml:"refresh_ttl"`
			ActiveKey   KeyConfig   `yaml:"active_key"`
			RetiredKeys []KeyConfig `yaml:"retired_keys"`
		} `yaml:"jwt"`
		Password struct {
			// Solo "argon2id" como algoritmo de escritura; bcrypt queda
			// aceptado en verificación por compatibilidad.
			Algorithm   string `yaml:"algorithm"`
			MemoryKiB   uint32 `yaml:"memory_kib"`
			Time        uint32 `yaml:"time"`
			Parallelism uint8  `yaml:"parallelism"`
			KeyLen      uint32 `yaml:"key_len"`
		} `yaml:"password"`
	} `yaml:"security"`
}

// Load lee el YAML de path y aplica overrides de entorno. Si existe un
// .env junto al proceso, LoadDotenv puede cargarse antes.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadDotenv carga un .env si existe (no es error que falte).
func LoadDotenv(path string) {
	if path == "" {
		path = ".env"
	}
	_ = godotenv.Load(path)
}

// applyEnv pisa campos sensibles con variables GRAVITY_*. Los secretos
// nunca deberían vivir en el YAML commiteado.
func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.App.Env, "GRAVITY_ENV")
	set(&c.App.Name, "GRAVITY_SERVICE_NAME")
	set(&c.Server.Addr, "GRAVITY_SERVER_ADDR")
	set(&c.Logging.Level, "GRAVITY_LOG_LEVEL")
	set(&c.Database.DSN, "GRAVITY_DATABASE_DSN")
	set(&c.Cache.Driver, "GRAVITY_CACHE_DRIVER")
	set(&c.Cache.Redis.Addr, "GRAVITY_REDIS_ADDR")
	set(&c.Cache.Redis.Password, "GRAVITY_REDIS_PASSWORD")
	set(&c.Security.JWT.Issuer, "GRAVITY_JWT_ISSUER")
	set(&c.Security.JWT.AccessTTL, "GRAVITY_JWT_ACCESS_TTL")
	set(&c.Security.JWT.RefreshTTL, "GRAVITY_JWT_REFRESH_TTL")
	set(&c.Security.JWT.ActiveKey.KID, "GRAVITY_JWT_ACTIVE_KID")
	set(&c.Security.JWT.ActiveKey.Secret, "GRAVITY_JWT_ACTIVE_SECRET")

	if v := os.Getenv("GRAVITY_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.DB = n
		}
	}
}

// AccessTTL duración del access token (default 15m).
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.Security.JWT.AccessTTL, 15*time.Minute)
}

// RefreshTTL duración del refresh token (default 168h).
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.Security.JWT.RefreshTTL, 7*24*time.Hour)
}

// DecodeSecret decodifica el material de clave: base64 estándar (con o
// sin padding) o, si no decodifica, los bytes literales.
func DecodeSecret(s string) []byte {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
