package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested sections group the optional backends.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    StoreDriver    string // "mysql" (default) or "memory"
    AutoMigrate    bool   // apply the embedded schema on start
    DB             DBConfig
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    RequestTimeout time.Duration
    StreamBeat     time.Duration // heartbeat interval of live streams
    Redis          RedisConfig
    RateLimit      RateLimitConfig
    Events         EventsConfig
    Log            LogConfig
}

// DBConfig is the MySQL connection.
type DBConfig struct {
    User string
    Pass string // empty allowed
    Host string
    Port string
    Name string
}

// EventsConfig controls the RabbitMQ workflow event stream. An empty URL
// disables publishing and the notification consumer.
type EventsConfig struct {
    URL             string
    Queue           string
    NotificationLog string
}

// LogConfig is handed to logging.NewLogger.
type LogConfig struct {
    Level  string
    Format string
    Output string
}

// Load reads a .env file when present, then builds a Config from the
// environment.  Missing required variables are reported together.
func Load() (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        return Config{}, fmt.Errorf("load .env: %w", err)
    }
    return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
    var l loader
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8080"),
        StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
        AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
        JWTSecret:      l.must("JWT_SECRET"),
        AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:     l.mustInt("BCRYPT_COST", 10),
        RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
        StreamBeat:     envDur("STREAM_HEARTBEAT", 15*time.Second),
        Redis:          LoadRedisConfig(),
        RateLimit:      LoadRateLimitConfig(),
        Events: EventsConfig{
            URL:             firstEnv("RABBITMQ_URL", "AMQP_URL"),
            Queue:           envStr("EVENTS_QUEUE", "campaign.events"),
            NotificationLog: envStr("NOTIFICATION_LOG", "logs/notifications.log"),
        },
        Log: LogConfig{
            Level:  envStr("LOG_LEVEL", "info"),
            Format: envStr("LOG_FORMAT", "json"),
            Output: envStr("LOG_OUTPUT", "stdout"),
        },
    }
    switch cfg.StoreDriver {
    case DriverMySQL:
        cfg.DB = DBConfig{
            User: l.must("DB_USER"),
            Pass: os.Getenv("DB_PASS"),
            Host: l.must("DB_HOST"),
            Port: envStr("DB_PORT", "3306"),
            Name: l.must("DB_NAME"),
        }
    case DriverMemory:
    default:
        l.fail(fmt.Sprintf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
    }
    if err := l.err(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// loader collects problems instead of stopping at the first one.
type loader struct{ problems []string }

func (l *loader) fail(msg string) { l.problems = append(l.problems, msg) }

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        l.fail("missing required env var: " + key)
    }
    return v
}

// mustInt reads an optional integer; a value that does not parse is an error.
func (l *loader) mustInt(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        l.fail(fmt.Sprintf("invalid int for %s: %q", key, s))
    }
    return n
}

func (l *loader) err() error {
    if len(l.problems) == 0 {
        return nil
    }
    return errors.New("config: " + strings.Join(l.problems, "; "))
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}
