package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración del proceso, cargada una vez en main y pasada
// por referencia a los constructores. Inmutable después de Load.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL pública, usada en los links de los mails (verify/reset).
		BaseURL            string   `yaml:"base_url"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		SessionTTL string `yaml:"session_ttl"` // ej: "1h"
		VerifyTTL  string `yaml:"verify_ttl"`  // ej: "24h"
	} `yaml:"jwt"`

	Auth struct {
		Session struct {
			CookieName string `yaml:"cookie_name"`
			Domain     string `yaml:"domain"`
			SameSite   string `yaml:"samesite"`
			Secure     bool   `yaml:"secure"`
		} `yaml:"session"`
		Reset struct {
			TTL string `yaml:"ttl"` // ventana del reset token, ej: "30m"
		} `yaml:"reset"`
		// BcryptCost es el cost factor del hash de passwords.
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	TOTP struct {
		// Issuer aparece en la app authenticator: "Passave (username)".
		Issuer string `yaml:"issuer"`
		// Window en steps de 30s tolerados hacia cada lado.
		Window int `yaml:"window"`
	} `yaml:"totp"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Google struct {
		Enabled      bool     `yaml:"enabled"`
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"` // si vacío => <server.base_url>/auth/google
		Scopes       []string `yaml:"scopes"`       // default: openid,email,profile
	} `yaml:"google"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.JWT.SessionTTL == "" {
		c.JWT.SessionTTL = "1h"
	}
	if c.JWT.VerifyTTL == "" {
		c.JWT.VerifyTTL = "24h"
	}
	if c.Auth.Reset.TTL == "" {
		c.Auth.Reset.TTL = "30m"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "token"
	}
	if c.Auth.Session.SameSite == "" {
		c.Auth.Session.SameSite = "Lax"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = "Passave"
	}
	if c.TOTP.Window == 0 {
		c.TOTP.Window = 1
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if len(c.Google.Scopes) == 0 {
		c.Google.Scopes = []string{"openid", "email", "profile"}
	}

	// validate string durations
	for _, d := range []string{c.JWT.SessionTTL, c.JWT.VerifyTTL, c.Auth.Reset.TTL} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: bad duration %q: %w", d, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return nil, err
	}

	// Si Google.RedirectURL vacío pero hay base_url ⇒ autogenerar
	if c.Google.Enabled && strings.TrimSpace(c.Google.RedirectURL) == "" && c.Server.BaseURL != "" {
		c.Google.RedirectURL = strings.TrimRight(c.Server.BaseURL, "/") + "/auth/google"
	}

	return &c, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if strings.EqualFold(c.App.Env, "prod") && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("config: jwt.secret too short for prod (min 32 bytes)")
	}
	if c.Google.Enabled && (c.Google.ClientID == "" || c.Google.ClientSecret == "") {
		return fmt.Errorf("config: google enabled but client_id/client_secret missing")
	}
	return nil
}

// Duration accessors. Los strings ya fueron validados en Load.

func (c *Config) SessionTTL() time.Duration { return mustDur(c.JWT.SessionTTL, time.Hour) }
func (c *Config) VerifyTTL() time.Duration  { return mustDur(c.JWT.VerifyTTL, 24*time.Hour) }
func (c *Config) ResetTTL() time.Duration   { return mustDur(c.Auth.Reset.TTL, 30*time.Minute) }

func mustDur(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("JWT_SECRET_KEY"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_SESSION_TTL"); ok {
		if _, err := time.ParseDuration(v); err == nil {
			c.JWT.SessionTTL = v
		}
	}
	if v, ok := getEnvStr("JWT_VERIFY_TTL"); ok {
		if _, err := time.ParseDuration(v); err == nil {
			c.JWT.VerifyTTL = v
		}
	}
	if v, ok := getEnvStr("AUTH_RESET_TTL"); ok {
		if _, err := time.ParseDuration(v); err == nil {
			c.Auth.Reset.TTL = v
		}
	}
	if v, ok := getEnvInt("AUTH_BCRYPT_COST"); ok {
		c.Auth.BcryptCost = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_REDIRECT_URL"); ok {
		c.Google.RedirectURL = v
	}

	// Guardia dura: en prod el cookie siempre viaja Secure.
	if strings.EqualFold(c.App.Env, "prod") {
		c.Auth.Session.Secure = true
	}
}
