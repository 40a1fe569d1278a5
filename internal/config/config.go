package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Config holds process settings read from the environment.
type Config struct {
	Port           string
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration
	LogLevel       slog.Level

	ReportProfile string
	FixturesPath  string

	// URL por tipo de fuente; vacío = sin fuente HTTP para ese tipo.
	SourceURLs map[models.Kind]string

	WarehouseDriver string
	WarehouseDSN    string
	WarehouseSchema string

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)
	return FromEnv()
}

func FromEnv() Config {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	urls := make(map[models.Kind]string)
	for _, k := range models.Kinds {
		if v := os.Getenv(SourceURLEnv(k)); v != "" {
			urls[k] = v
		}
	}
	return Config{
		Port:            envOr("PORT", "8080"),
		HTTPTimeout:     seconds("HTTP_TIMEOUT_SECONDS", 15*time.Second),
		RequestTimeout:  seconds("REQUEST_TIMEOUT_SECONDS", 60*time.Second),
		LogLevel:        lvl,
		ReportProfile:   os.Getenv("REPORT_PROFILE"),
		FixturesPath:    os.Getenv("FIXTURES_PATH"),
		SourceURLs:      urls,
		WarehouseDriver: envOr("WAREHOUSE_DRIVER", "pgx"),
		WarehouseDSN:    os.Getenv("WAREHOUSE_DSN"),
		WarehouseSchema: os.Getenv("WAREHOUSE_SCHEMA"),
		BreakerFailures: uint32(intOr("BREAKER_FAILURES", 3)),
		BreakerTimeout:  seconds("BREAKER_TIMEOUT_SECONDS", 30*time.Second),
	}
}

// SourceURLEnv names the variable holding the HTTP source of kind k,
// e.g. SOURCE_REVENUE_ACTUALS_URL.
func SourceURLEnv(k models.Kind) string {
	return "SOURCE_" + strings.ToUpper(string(k)) + "_URL"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func intOr(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func seconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return def
}
