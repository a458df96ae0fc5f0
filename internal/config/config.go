// Package config loads runtime settings from HOUSEHOLD_* environment variables and the
// optional YAML program catalog.
package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"household/internal/domain/program"
)

// Mail providers accepted by HOUSEHOLD_MAIL_PROVIDER.
const (
	MailNoop   = "noop"
	MailResend = "resend"
	MailSES    = "ses"
)

// EnvProduction is the HOUSEHOLD_ENV value that makes secrets mandatory.
const EnvProduction = "production"

// Config holds every setting the commands need.
type Config struct {
	Env      string
	Addr     string
	DBPath   string
	LogLevel slog.Level

	CSRFKey        []byte
	TrustedOrigins []string
	AllowedOrigins []string
	RateLimit      int

	JWTSecret []byte
	TokenTTL  time.Duration

	NATSURL       string
	EventsPrefix  string
	MailProvider  string
	ResendKey     string
	SESRegion     string
	MailFrom      string
	MailReplyTo   string
	CatalogPath   string
	ShutdownGrace time.Duration

	// DirectoryURL switches the server to a remote directory service; the local
	// database is not opened.
	DirectoryURL   string
	DirectoryToken string

	SlowRequest   time.Duration
	SlowQuery     time.Duration
}

// Production reports whether the service runs with production requirements.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads the environment. Missing values fall back to development defaults;
// production refuses to start without the CSRF key and token secret.
// PRE: .env, if any, has already been loaded into the environment
// POST: Returns a validated Config or the first configuration error
func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv("HOUSEHOLD_ENV", "development"),
		Addr:           getEnv("HOUSEHOLD_ADDR", ":8080"),
		DBPath:         getEnv("HOUSEHOLD_DB_PATH", "household.db"),
		TrustedOrigins: getEnvAsList("HOUSEHOLD_TRUSTED_ORIGINS"),
		AllowedOrigins: getEnvAsList("HOUSEHOLD_CORS_ORIGINS"),
		NATSURL:        os.Getenv("HOUSEHOLD_NATS_URL"),
		EventsPrefix:   getEnv("HOUSEHOLD_EVENTS_PREFIX", "household.events"),
		ResendKey:      os.Getenv("HOUSEHOLD_RESEND_KEY"),
		SESRegion:      os.Getenv("HOUSEHOLD_SES_REGION"),
		MailFrom:       getEnv("HOUSEHOLD_MAIL_FROM", "Riverside Athletics <noreply@riverside.example>"),
		MailReplyTo:    os.Getenv("HOUSEHOLD_MAIL_REPLY_TO"),
		CatalogPath:    os.Getenv("HOUSEHOLD_PROGRAM_CATALOG"),
		DirectoryURL:   strings.TrimRight(os.Getenv("HOUSEHOLD_DIRECTORY_URL"), "/"),
		DirectoryToken: os.Getenv("HOUSEHOLD_DIRECTORY_TOKEN"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("HOUSEHOLD_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = getEnvAsInt("HOUSEHOLD_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit <= 0 {
		return Config{}, errors.New("HOUSEHOLD_RATE_LIMIT must be positive")
	}
	if cfg.TokenTTL, err = getEnvAsDuration("HOUSEHOLD_TOKEN_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownGrace, err = getEnvAsDuration("HOUSEHOLD_SHUTDOWN_GRACE", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SlowRequest, err = getEnvAsDuration("HOUSEHOLD_SLOW_REQUEST", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SlowQuery, err = getEnvAsDuration("HOUSEHOLD_SLOW_QUERY", 50*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey, err = loadCSRFKey(cfg.Production()); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret, err = loadJWTSecret(cfg.Production()); err != nil {
		return Config{}, err
	}
	if cfg.MailProvider, err = mailProvider(cfg); err != nil {
		return Config{}, err
	}
	if err := checkDirectory(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Remote reports whether the directory is served by another instance.
func (c Config) Remote() bool {
	return c.DirectoryURL != ""
}

// checkDirectory requires an absolute http(s) URL and a bearer token for remote mode.
func checkDirectory(cfg Config) error {
	if !cfg.Remote() {
		return nil
	}
	u, err := url.Parse(cfg.DirectoryURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("HOUSEHOLD_DIRECTORY_URL must be an absolute http(s) URL, got %q", cfg.DirectoryURL)
	}
	if cfg.DirectoryToken == "" {
		return errors.New("HOUSEHOLD_DIRECTORY_TOKEN is required with HOUSEHOLD_DIRECTORY_URL")
	}
	return nil
}

// loadCSRFKey reads HOUSEHOLD_CSRF_KEY (hex-encoded, 32 bytes). Outside production a
// random key is generated per startup.
func loadCSRFKey(production bool) ([]byte, error) {
	if keyHex := os.Getenv("HOUSEHOLD_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("HOUSEHOLD_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("HOUSEHOLD_CSRF_KEY is required in production")
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set HOUSEHOLD_CSRF_KEY")
	return randomKey()
}

// loadJWTSecret reads HOUSEHOLD_JWT_SECRET. A random secret in development means tokens
// minted by cmd/token only work when both share the variable.
func loadJWTSecret(production bool) ([]byte, error) {
	if secret := os.Getenv("HOUSEHOLD_JWT_SECRET"); secret != "" {
		if len(secret) < 32 {
			return nil, errors.New("HOUSEHOLD_JWT_SECRET must be at least 32 characters")
		}
		return []byte(secret), nil
	}
	if production {
		return nil, errors.New("HOUSEHOLD_JWT_SECRET is required in production")
	}
	slog.Warn("config_event", "event", "random_jwt_secret", "hint", "set HOUSEHOLD_JWT_SECRET")
	return randomKey()
}

func randomKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// mailProvider resolves HOUSEHOLD_MAIL_PROVIDER. When unset, a Resend key selects Resend
// and an SES region selects SES.
func mailProvider(cfg Config) (string, error) {
	provider := strings.ToLower(os.Getenv("HOUSEHOLD_MAIL_PROVIDER"))
	if provider == "" {
		switch {
		case cfg.ResendKey != "":
			provider = MailResend
		case cfg.SESRegion != "":
			provider = MailSES
		default:
			provider = MailNoop
		}
	}
	switch provider {
	case MailNoop:
	case MailResend:
		if cfg.ResendKey == "" {
			return "", errors.New("HOUSEHOLD_RESEND_KEY is required for the resend provider")
		}
	case MailSES:
		if cfg.SESRegion == "" {
			return "", errors.New("HOUSEHOLD_SES_REGION is required for the ses provider")
		}
	default:
		return "", fmt.Errorf("unknown HOUSEHOLD_MAIL_PROVIDER %q", provider)
	}
	return provider, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("HOUSEHOLD_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// catalogFile is the YAML document shape of the program catalog.
type catalogFile struct {
	Programs []program.Program `yaml:"programs"`
}

// LoadCatalog reads the program catalog at path. An empty path yields no programs.
// PRE: path is empty or names a readable YAML file
// POST: Returns every program, each validated; ids are unique
func LoadCatalog(path string) ([]program.Program, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a catalog document. Unknown keys are rejected.
func ParseCatalog(raw []byte) ([]program.Program, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var doc catalogFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(doc.Programs))
	for i := range doc.Programs {
		p := doc.Programs[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	return doc.Programs, nil
}
