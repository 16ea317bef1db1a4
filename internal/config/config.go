package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret        string `env:"JWT_SECRET,required"`
	JWTExpiresInHrs  int    `env:"JWT_EXPIRES_IN_HOURS" envDefault:"24"`
	CookieExpiresHrs int    `env:"JWT_COOKIE_EXPIRES_IN_HOURS" envDefault:"24"`
	// TokenCarrier selects where session tokens travel: "cookie" or "header".
	TokenCarrier string `env:"TOKEN_CARRIER" envDefault:"cookie"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"10"`

	// PublicReads permits unauthenticated access to tour list/read routes.
	PublicReads bool `env:"PUBLIC_READS" envDefault:"true"`

	RateLimitPerMin int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`

	SMTPHost     string `env:"EMAIL_HOST"`
	SMTPPort     int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUser     string `env:"EMAIL_ADDRESS"`
	SMTPPassword string `env:"EMAIL_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Trailhead Tours <no-reply@trailhead.example>"`
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresInHrs) * time.Hour
}

func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.CookieExpiresHrs) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	if c.TokenCarrier != "cookie" && c.TokenCarrier != "header" {
		return fmt.Errorf("TOKEN_CARRIER must be \"cookie\" or \"header\", got %q", c.TokenCarrier)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 18 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 18, got %d", c.BcryptCost)
	}

	if c.IsProduction() {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if c.SMTPHost == "" {
			log.Warn().Msg("EMAIL_HOST is empty in production: password reset emails will only be logged")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Env = strings.ToLower(cfg.Env)
	return &cfg, nil
}
