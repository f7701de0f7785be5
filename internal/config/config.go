package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Bot delivery modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string
	DBPass string // empty allowed
	DBHost string
	DBPort string
	DBName string

	BotToken      string  // Telegram bot credential
	OperatorIDs   []int64 // privileged chat ids, in configured order
	BotMode       string  // ModePolling or ModeWebhook
	WebhookURL    string  // public base URL Telegram posts updates to
	WebhookSecret string  // path segment guarding the webhook route

	SessionTTL        time.Duration
	RabbitURL         string
	OpsJWTSecret      string // empty disables the ops API and /token
	OpsTokenTTLMin    int
	NotifyMaxAttempts int
	NotifyMaxBackoff  time.Duration
	BroadcastDelay    time.Duration
	WorkerConcurrency int

	Event     EventConfig
	RateLimit RateLimitConfig
}

// EventConfig describes the event tickets are sold for.  It is rendered on
// the info screen and has no effect on the reservation flow.
type EventConfig struct {
	Title          string
	Date           string
	Venue          string
	Time           string
	Price          decimal.Decimal
	Currency       string
	Description    string
	PaymentURL     string
	PaymentAccount string
	GameURL        string
}

// OpsEnabled reports whether the JWT-protected ops API is served.
func (c Config) OpsEnabled() bool { return c.OpsJWTSecret != "" }

// Load reads a .env file when one exists, then builds the Config from the
// environment.  Missing or malformed required values are fatal.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	ids, err := ParseOperatorIDs(must("TELEGRAM_ADMIN_IDS"))
	if err != nil {
		log.Fatalf("invalid TELEGRAM_ADMIN_IDS: %v", err)
	}

	cfg := Config{
		Env:    envStr("APP_ENV", "dev"),
		Port:   envStr("APP_PORT", "8080"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		BotToken:      must("TELEGRAM_BOT_TOKEN"),
		OperatorIDs:   ids,
		BotMode:       strings.ToLower(envStr("BOT_MODE", ModePolling)),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		SessionTTL:        envDur("SESSION_TTL", 24*time.Hour),
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
		OpsJWTSecret:      os.Getenv("OPS_JWT_SECRET"),
		OpsTokenTTLMin:    envInt("OPS_TOKEN_TTL_MIN", 60),
		NotifyMaxAttempts: envInt("NOTIFY_MAX_ATTEMPTS", 5),
		NotifyMaxBackoff:  envDur("NOTIFY_MAX_BACKOFF", 30*time.Second),
		BroadcastDelay:    envDur("BROADCAST_DELAY", 50*time.Millisecond),
		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 32),

		Event:     loadEvent(),
		RateLimit: LoadRateLimitConfig(),
	}

	switch cfg.BotMode {
	case ModePolling:
	case ModeWebhook:
		if cfg.WebhookURL == "" || cfg.WebhookSecret == "" {
			log.Fatalf("BOT_MODE=webhook requires WEBHOOK_URL and WEBHOOK_SECRET")
		}
	default:
		log.Fatalf("invalid BOT_MODE: %q", cfg.BotMode)
	}
	return cfg
}

func loadEvent() EventConfig {
	price := decimal.Zero
	if s := os.Getenv("EVENT_PRICE"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			log.Fatalf("invalid decimal for EVENT_PRICE: %q", s)
		}
		price = p
	}
	return EventConfig{
		Title:          envStr("EVENT_TITLE", "Student Gala"),
		Date:           os.Getenv("EVENT_DATE"),
		Venue:          os.Getenv("EVENT_VENUE"),
		Time:           os.Getenv("EVENT_TIME"),
		Price:          price,
		Currency:       envStr("EVENT_CURRENCY", "UAH"),
		Description:    os.Getenv("EVENT_DESCRIPTION"),
		PaymentURL:     os.Getenv("PAYMENT_URL"),
		PaymentAccount: os.Getenv("PAYMENT_ACCOUNT"),
		GameURL:        os.Getenv("GAME_URL"),
	}
}

// ParseOperatorIDs parses a comma separated list of chat ids, keeping the
// configured order and dropping duplicates.  At least one id is required.
func ParseOperatorIDs(s string) ([]int64, error) {
	var ids []int64
	seen := map[int64]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("operator id %q: %w", part, err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one operator id is required")
	}
	return ids, nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
