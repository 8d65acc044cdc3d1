package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	Transport   string
	HTTPAddr    string
	MetricsAddr string

	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusEnv          string
	AmadeusBaseURL      string

	CoralogixAPIKey  string
	CoralogixDomain  string
	CoralogixBaseURL string

	VendorRPS     int
	VendorTimeout time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	AuditDSN string
}

// Load reads .env (when present) and the process environment. Variables
// already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return fromEnv()
}

func fromEnv() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("var", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		Transport:   strings.ToLower(env("MCP_TRANSPORT", TransportStdio)),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		AmadeusClientID:     env("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: env("AMADEUS_CLIENT_SECRET", ""),
		AmadeusEnv:          env("AMADEUS_ENVIRONMENT", "test"),
		AmadeusBaseURL:      env("AMADEUS_BASE_URL", ""),

		CoralogixAPIKey:  env("CORALOGIX_API_KEY", ""),
		CoralogixDomain:  env("CORALOGIX_DOMAIN", ""),
		CoralogixBaseURL: env("CORALOGIX_BASE_URL", ""),

		VendorRPS:     atoi("VENDOR_RPS", 5),
		VendorTimeout: time.Duration(atoi("VENDOR_TIMEOUT_SECONDS", 30)) * time.Second,

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		AuditDSN: env("AUDIT_MYSQL_DSN", ""),
	}
	return c
}

// WarnMissing logs the credentials a server needs but does not have. Tool
// calls still fail with a readable error later.
func (c Config) WarnMissing(server string) {
	switch server {
	case "amadeus":
		if c.AmadeusClientID == "" || c.AmadeusClientSecret == "" {
			log.Warn().Msg("AMADEUS_CLIENT_ID / AMADEUS_CLIENT_SECRET are empty")
		}
	case "coralogix":
		if c.CoralogixAPIKey == "" {
			log.Warn().Msg("CORALOGIX_API_KEY is empty")
		}
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
