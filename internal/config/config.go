package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// Config holds all environment-provided settings. Nothing here comes from
// user input; secrets stay out of logs via the Secret type.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Addr string `env:"ADDR" envDefault:":8080"`

	ClientID     string `env:"LINKEDIN_CLIENT_ID"`
	ClientSecret Secret `env:"LINKEDIN_CLIENT_SECRET"`
	RedirectURI  string `env:"LINKEDIN_REDIRECT_URI"`
	Scopes       string `env:"LINKEDIN_SCOPES" envDefault:"openid profile w_member_social email"`

	// Endpoint overrides exist for tests against httptest servers.
	AuthURL    string `env:"LINKEDIN_AUTH_URL" envDefault:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL   string `env:"LINKEDIN_TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken"`
	APIBaseURL string `env:"LINKEDIN_API_BASE_URL" envDefault:"https://api.linkedin.com"`
	JWKSURL    string `env:"LINKEDIN_JWKS_URL" envDefault:"https://www.linkedin.com/oauth/openid/jwks"`
	Issuer     string `env:"LINKEDIN_ISSUER" envDefault:"https://www.linkedin.com/oauth"`

	// Versioned REST header value, e.g. "202502"
	APIVersion string `env:"LINKEDIN_API_VERSION" envDefault:"202502"`

	SigningKey Secret `env:"COOKIE_SIGNING_KEY"`
	SealingKey Secret `env:"COOKIE_SEALING_KEY"`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"1440h"`
	HandshakeTTL time.Duration `env:"HANDSHAKE_TTL" envDefault:"5m"`

	DefaultReturnPath string   `env:"DEFAULT_RETURN_PATH" envDefault:"/success.html"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ImageProxyHosts   []string `env:"IMAGE_PROXY_HOSTS" envSeparator:","`
}

// Load parses configuration from the environment and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that everything the OAuth and publish flows depend on is present
func Validate(cfg *Config) error {
	if cfg.ClientID == "" {
		return fmt.Errorf("LINKEDIN_CLIENT_ID is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("LINKEDIN_CLIENT_SECRET is required")
	}
	if cfg.RedirectURI == "" {
		return fmt.Errorf("LINKEDIN_REDIRECT_URI is required")
	}
	if cfg.SigningKey == "" {
		return fmt.Errorf("COOKIE_SIGNING_KEY is required")
	}
	if len(cfg.SigningKey) < 32 {
		return fmt.Errorf("COOKIE_SIGNING_KEY must be at least 32 bytes")
	}
	if cfg.SealingKey == "" {
		return fmt.Errorf("COOKIE_SEALING_KEY is required")
	}
	if len(cfg.SealingKey) < 32 {
		return fmt.Errorf("COOKIE_SEALING_KEY must be at least 32 bytes")
	}
	if cfg.HandshakeTTL <= 0 || cfg.SessionTTL <= 0 {
		return fmt.Errorf("cookie TTLs must be positive")
	}
	return nil
}

// IsProduction reports whether the deployment should use production-grade
// cookie attributes (Secure flag)
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
