package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Host         string
	Port         int
	DatabaseURL  string
	DatabaseType string

	// SigningKey is used to HMAC auth tokens before storage.
	SigningKey string
	// AdminKey protects the question-seeding endpoint.
	AdminKey string

	// Twilio delivery settings. When TwilioSID is empty the server
	// logs verification codes instead of sending SMS (dev mode).
	TwilioAccount             string
	TwilioMessagingServiceSID string
	TwilioSID                 string
	TwilioSecret              string

	// AllowedPhoneNumbers restricts real SMS delivery; nil means all.
	AllowedPhoneNumbers []string

	AuthExpirationSeconds int
	CodeExpirationSeconds int
}

// ParseFlags validates flags and applies environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("pinion-server", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.StringVar(&cfg.Host, "host", "", "Host to listen on")
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SigningKey, "signing-key", "", "Token signing key (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key for question seeding (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Host == "" {
		cfg.Host = os.Getenv("HOST")
	}
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3003 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}

	// Secrets - signing key MUST be provided
	if cfg.SigningKey == "" {
		cfg.SigningKey = os.Getenv("SIGNING_KEY")
	}
	if cfg.SigningKey == "" {
		return Config{}, errors.New("SIGNING_KEY required")
	}

	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}

	cfg.TwilioAccount = os.Getenv("TWILIO_ACCOUNT")
	cfg.TwilioMessagingServiceSID = os.Getenv("TWILIO_MESSAGING_SERVICE_SID")
	cfg.TwilioSID = os.Getenv("TWILIO_SID")
	cfg.TwilioSecret = os.Getenv("TWILIO_SECRET")

	if allowed := os.Getenv("ALLOWED_PHONE_NUMBERS"); allowed != "" {
		for _, p := range strings.Split(allowed, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.AllowedPhoneNumbers = append(cfg.AllowedPhoneNumbers, p)
			}
		}
	}

	var err error
	cfg.AuthExpirationSeconds, err = envInt("AUTH_EXPIRATION_SECONDS", 2592000) // 30 days
	if err != nil {
		return Config{}, err
	}
	cfg.CodeExpirationSeconds, err = envInt("CODE_EXPIRATION_SECONDS", 120)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key + " env variable")
	}
	return v, nil
}
