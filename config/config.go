package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lostfound-bot/matcher"

	"github.com/joho/godotenv"
)

// Backend names accepted by STORE_BACKEND and SESSION_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	defaultPort         = "3000"
	defaultBotName      = "Lost And Found Bot"
	defaultDatabase     = "lostfound"
	defaultMediaTimeout = 20 * time.Second
	defaultMaxImage     = 5 << 20 // 5 MiB
	defaultMaxMatches   = 5
	defaultMaxAge       = 10 * time.Minute
	defaultSweep        = 5 * time.Minute
	defaultRateWindow   = time.Minute
)

// Config is everything the process reads from its environment.
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string
	BotName   string

	StoreBackend   string
	SessionBackend string
	MongoURI       string
	MongoDatabase  string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int

	TwilioAccountSID string
	TwilioAuthToken  string
	WebhookBaseURL   string
	MediaHosts       []string
	MediaTimeout     time.Duration
	MaxImageBytes    int64

	ImageIntake      bool
	MatchMode        matcher.Mode
	SearchMode       matcher.SearchMode
	SearchScope      matcher.SearchScope
	MaxMatches       int
	LegacyStatusFlow bool

	SessionMaxAge time.Duration
	SweepInterval time.Duration

	WebhookRateLimit  int
	WebhookRateWindow time.Duration

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	CORSOrigins       []string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:      readEnv("PORT", defaultPort),
		GinMode:   readEnv("GIN_MODE", ""),
		LogLevel:  readEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(readEnv("LOG_FORMAT", "json")),
		BotName:   readEnv("BOT_NAME", defaultBotName),

		StoreBackend:  strings.ToLower(readEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: readEnv("MONGODB_DATABASE", defaultDatabase),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		WebhookBaseURL:   strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/"),
		MediaHosts:       parseList("MEDIA_HOSTS"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSOrigins:       parseList("CORS_ORIGINS"),
	}
	cfg.SessionBackend = strings.ToLower(readEnv("SESSION_BACKEND", cfg.StoreBackend))

	var err error
	p := parser{}
	cfg.RedisDB = p.integer("REDIS_DB", 0)
	cfg.MediaTimeout = p.duration("MEDIA_TIMEOUT", defaultMediaTimeout)
	cfg.MaxImageBytes = int64(p.integer("MAX_IMAGE_BYTES", defaultMaxImage))
	cfg.ImageIntake = p.boolean("IMAGE_INTAKE", true)
	cfg.MaxMatches = p.integer("MAX_MATCHES", defaultMaxMatches)
	cfg.LegacyStatusFlow = p.boolean("LEGACY_STATUS_FLOW", false)
	cfg.SessionMaxAge = p.duration("SESSION_MAX_AGE", defaultMaxAge)
	cfg.SweepInterval = p.duration("SWEEP_INTERVAL", defaultSweep)
	cfg.WebhookRateLimit = p.integer("WEBHOOK_RATE_LIMIT", 0)
	cfg.WebhookRateWindow = p.duration("WEBHOOK_RATE_WINDOW", defaultRateWindow)
	if p.err != nil {
		return nil, p.err
	}

	if cfg.MatchMode, err = matcher.ParseMode(os.Getenv("MATCH_MODE")); err != nil {
		return nil, fmt.Errorf("MATCH_MODE: %w", err)
	}
	if cfg.SearchMode, err = matcher.ParseSearchMode(os.Getenv("SEARCH_MODE")); err != nil {
		return nil, fmt.Errorf("SEARCH_MODE: %w", err)
	}
	if cfg.SearchScope, err = matcher.ParseSearchScope(os.Getenv("SEARCH_SCOPE")); err != nil {
		return nil, fmt.Errorf("SEARCH_SCOPE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND: unknown backend %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case BackendMongo, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND: unknown backend %q", c.SessionBackend)
	}
	if c.SessionBackend == BackendMongo && c.StoreBackend != BackendMongo {
		return fmt.Errorf("SESSION_BACKEND mongo needs STORE_BACKEND mongo")
	}
	if c.usesMongo() && c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI must be set for the mongo backend")
	}
	if c.usesRedis() && c.RedisAddress == "" {
		return fmt.Errorf("REDIS_ADDRESS must be set for redis sessions or rate limiting")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	if c.MaxMatches <= 0 {
		return fmt.Errorf("MAX_MATCHES must be positive")
	}
	if c.SessionMaxAge <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE and SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) usesMongo() bool {
	return c.StoreBackend == BackendMongo || c.SessionBackend == BackendMongo
}

func (c *Config) usesRedis() bool {
	return c.SessionBackend == BackendRedis || c.WebhookRateLimit > 0
}

// SignaturesEnabled reports whether webhook posts must carry a valid
// X-Twilio-Signature.
func (c *Config) SignaturesEnabled() bool {
	return c.TwilioAuthToken != ""
}

// AdminEnabled reports whether the authenticated admin routes are served.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != ""
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first malformed value it sees.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: invalid value %q: %w", key, value, err)
	}
}

func (p *parser) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return parsed
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return parsed
}

func (p *parser) boolean(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return parsed
}
