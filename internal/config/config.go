package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Environment string
	LogLevel    string // пусто: debug для разработки, info для production
	HTTPAddr    string

	StoreDriver string
	DBDSN       string
	SQLitePath  string

	JWTSecret string

	TelegramToken string
	TelegramChats map[string]int64 // имя учителя -> chat id

	Archive Archive

	TemplatesFile string

	Scheduling Scheduling
}

// Archive параметры S3 для архива удалённых строк; пустой Bucket отключает архив
type Archive struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

func (a Archive) Enabled() bool {
	return a.Bucket != ""
}

// Scheduling неизменяемые параметры расписания, передаются в сервисы по значению
type Scheduling struct {
	Location        *time.Location
	WindowWeeks     int
	VacantThreshold int
	RetentionDays   int
	LockName        string
	LockTimeout     time.Duration
	SlotDuration    time.Duration
	CalendarTimeout time.Duration
	GenerateEvery   time.Duration
	CleanupEvery    time.Duration
	CacheTTL        time.Duration
}

// DefaultScheduling значения по умолчанию
func DefaultScheduling() Scheduling {
	return Scheduling{
		Location:        time.UTC,
		WindowWeeks:     4,
		VacantThreshold: 3,
		RetentionDays:   30,
		LockName:        "schedule-mutations",
		LockTimeout:     15 * time.Second,
		SlotDuration:    45 * time.Minute,
		CalendarTimeout: 10 * time.Second,
		GenerateEvery:   24 * time.Hour,
		CleanupEvery:    time.Hour,
		CacheTTL:        30 * time.Second,
	}
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из getenv; все ошибки возвращаются вместе
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Environment:   p.str("ENV", "development"),
		LogLevel:      strings.ToLower(getenv("LOG_LEVEL")),
		HTTPAddr:      p.str("HTTP_ADDR", ":8080"),
		StoreDriver:   strings.ToLower(p.str("STORE_DRIVER", DriverMemory)),
		DBDSN:         getenv("DB_DSN"),
		SQLitePath:    p.str("SQLITE_PATH", "scheduler.db"),
		JWTSecret:     getenv("JWT_SECRET"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		TelegramChats: p.chats("TELEGRAM_CHATS"),
		TemplatesFile: getenv("TEMPLATES_FILE"),
		Archive: Archive{
			Bucket:          getenv("ARCHIVE_S3_BUCKET"),
			Region:          getenv("ARCHIVE_S3_REGION"),
			Endpoint:        getenv("ARCHIVE_S3_ENDPOINT"),
			PathStyle:       p.boolean("ARCHIVE_S3_PATH_STYLE"),
			AccessKeyID:     getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
		},
	}

	def := DefaultScheduling()
	cfg.Scheduling = Scheduling{
		Location:        p.location("SCHEDULER_TIMEZONE", def.Location),
		WindowWeeks:     p.positiveInt("SCHEDULER_WINDOW_WEEKS", def.WindowWeeks),
		VacantThreshold: p.positiveInt("SCHEDULER_VACANT_THRESHOLD", def.VacantThreshold),
		RetentionDays:   p.nonNegativeInt("SCHEDULER_RETENTION_DAYS", def.RetentionDays),
		LockName:        p.str("SCHEDULER_LOCK_NAME", def.LockName),
		LockTimeout:     p.duration("SCHEDULER_LOCK_TIMEOUT", def.LockTimeout),
		SlotDuration:    p.duration("SCHEDULER_SLOT_DURATION", def.SlotDuration),
		CalendarTimeout: p.duration("SCHEDULER_CALENDAR_TIMEOUT", def.CalendarTimeout),
		GenerateEvery:   p.duration("SCHEDULER_GENERATE_EVERY", def.GenerateEvery),
		CleanupEvery:    p.duration("SCHEDULER_CLEANUP_EVERY", def.CleanupEvery),
		CacheTTL:        p.duration("SCHEDULER_CACHE_TTL", def.CacheTTL),
	}

	// Проверяем обязательные поля
	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DBDSN == "" {
			p.fail(fmt.Errorf("DB_DSN is required for STORE_DRIVER=postgres"))
		}
	default:
		p.fail(fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			p.fail(fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	if cfg.JWTSecret == "" {
		p.fail(fmt.Errorf("JWT_SECRET is required but not set"))
	}

	if p.errs != nil {
		return nil, p.errs
	}
	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

type parser struct {
	getenv func(string) string
	errs   error
}

func (p *parser) fail(err error) {
	p.errs = multierr.Append(p.errs, err)
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) boolean(key string) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
	}
	return b
}

func (p *parser) integer(key string, def int) (int, bool) {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def, false
	}
	return n, true
}

func (p *parser) positiveInt(key string, def int) int {
	n, ok := p.integer(key, def)
	if ok && n <= 0 {
		p.fail(fmt.Errorf("%s must be positive, got %d", key, n))
	}
	return n
}

func (p *parser) nonNegativeInt(key string, def int) int {
	n, ok := p.integer(key, def)
	if ok && n < 0 {
		p.fail(fmt.Errorf("%s must not be negative, got %d", key, n))
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	if d <= 0 {
		p.fail(fmt.Errorf("%s must be positive, got %s", key, d))
	}
	return d
}

func (p *parser) location(key string, def *time.Location) *time.Location {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return loc
}

// chats разбирает "Ivanova=123,Petrov=456"
func (p *parser) chats(key string) map[string]int64 {
	out := make(map[string]int64)
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return out
	}
	for _, pair := range strings.Split(v, ",") {
		name, id, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			p.fail(fmt.Errorf("%s: malformed entry %q", key, pair))
			continue
		}
		chatID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			p.fail(fmt.Errorf("%s: chat id for %s: %w", key, name, err))
			continue
		}
		out[name] = chatID
	}
	return out
}
