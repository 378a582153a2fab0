package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	PrivateKey string
	APITimeout time.Duration

	ModelProvider     string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32

	StoreBackend    string // "mongo" | "postgres"
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	DatabaseURL     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSOrigins       []string
	PromptDir         string
	MaxCheckpoints    int
	DefaultFlashcards int

	LogLevel string
	LogFile  string

	TelegramBotToken   string
	WebhookURL         string
	TelegramAdminChats []int64

	// Warnings collects bad values that fell back to defaults. Load runs
	// before the logger exists, so callers log these once it does.
	Warnings []string
}

// env reads typed values from the process environment and remembers the
// ones it had to replace with defaults.
type env struct {
	warnings []string
}

func (e *env) warnf(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (e *env) getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		e.warnf("bad int in %s=%q, using %d", k, v, def)
	}
	return def
}

func (e *env) getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		e.warnf("bad duration in %s=%q, using %s", k, v, def)
	}
	return def
}

func (e *env) getEnvFloat32(k string, def float32) float32 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
		e.warnf("bad float in %s=%q, using %g", k, v, def)
	}
	return def
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *env) parseChatIDs(s string) []int64 {
	var out []int64
	for _, p := range splitList(s) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			e.warnf("skip bad chat id %q in TELEGRAM_ADMIN_CHATS", p)
			continue
		}
		out = append(out, id)
	}
	return out
}

// Load reads .env (if present) and then the process environment. It never
// fails; problems end up in Config.Warnings.
func Load() *Config {
	e := &env{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.warnf("ignoring .env: %v", err)
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8000"),
		PrivateKey: getEnv("PRIVATE_KEY", ""),
		APITimeout: e.getEnvDuration("API_TIMEOUT", 180*time.Second),

		ModelProvider:     strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature: e.getEnvFloat32("GEMINI_TEMPERATURE", 0.7),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: e.getEnvFloat32("OPENAI_TEMPERATURE", 0.7),

		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", "mongo")),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "track_generator"),
		MongoCollection: getEnv("MONGO_COLLECTION", "tracks"),
		DatabaseURL:     ResolveDSN(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       e.getEnvInt("REDIS_DB", 0),
		CacheTTL:      e.getEnvDuration("CACHE_TTL", time.Hour),

		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		PromptDir:         getEnv("PROMPT_DIR", ""),
		MaxCheckpoints:    e.getEnvInt("MAX_CHECKPOINTS", 20),
		DefaultFlashcards: e.getEnvInt("DEFAULT_FLASHCARDS", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		TelegramAdminChats: e.parseChatIDs(getEnv("TELEGRAM_ADMIN_CHATS", "")),
	}
	cfg.Warnings = e.warnings
	return cfg
}

// RequirePrivateKey fails when PRIVATE_KEY is unset. Only the HTTP API
// checks the key, so only it requires one.
func (c *Config) RequirePrivateKey() error {
	if strings.TrimSpace(c.PrivateKey) == "" {
		return errors.New("missing required env PRIVATE_KEY")
	}
	return nil
}

// ResolveDSN prefers DATABASE_URL and otherwise builds a DSN from POSTGRES_* / PG* vars.
func ResolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	user := getEnv("POSTGRES_USER", "trackgen")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnv("PGHOST", "localhost")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "trackgen")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SafeDSNSummary renders a DSN without its password, for logs.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	host, port := u.Host, ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return "host=" + host + " db=" + db + " user=" + u.User.Username()
	}
	return "host=" + host + " port=" + port + " db=" + db + " user=" + u.User.Username()
}
