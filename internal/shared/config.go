package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Locales the site renders provider pages in. A write for a provider marks
// every locale's page stale.
var Locales = []string{"en", "fr", "es"}

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	CacheTTL        time.Duration
	ModerationToken string
	RenderBase      string
	RenderToken     string
	RenderRPS       int
	Workers         int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/vpnreviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ModerationToken: env("MODERATION_TOKEN", ""),
		RenderBase:      env("RENDER_BASE_URL", "http://localhost:3000/api"),
		RenderToken:     env("RENDER_TOKEN", ""),
		RenderRPS:       atoi("RENDER_RPS", 5),
		Workers:         atoi("REVALIDATE_WORKERS", 4),
	}
	if c.ModerationToken == "" {
		log.Warn().Msg("MODERATION_TOKEN is empty; moderation endpoints are open")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
