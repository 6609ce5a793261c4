// README: Config loader with env defaults for HTTP, DB, Redis, matching,
// tracking and the optional external integrations.
package config

import (
	"os"
	"strconv"
)

type MatchingConfig struct {
	DelaySeconds int
	RadiusKm     float64
}

type TrackingConfig struct {
	TickSeconds  int
	ProgressStep float64
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Matching MatchingConfig
	Tracking TrackingConfig
	Maps     struct {
		APIKey string // empty disables geocoding
		Region string
	}
	Email struct {
		Region string // empty disables email notifications
		Sender string
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("ECORIDE_HTTP_ADDR", ":8080")
	cfg.DB.DSN = envOrDefault("ECORIDE_DB_DSN", "")
	cfg.Redis.Addr = envOrDefault("ECORIDE_REDIS_ADDR", "")
	cfg.Matching.DelaySeconds = envOrDefaultInt("ECORIDE_MATCH_DELAY", 4)
	cfg.Matching.RadiusKm = envOrDefaultFloat("ECORIDE_MATCH_RADIUS_KM", 3.0)
	cfg.Tracking.TickSeconds = envOrDefaultInt("ECORIDE_TRACK_TICK", 3)
	cfg.Tracking.ProgressStep = envOrDefaultFloat("ECORIDE_TRACK_STEP", 0.05)
	cfg.Maps.APIKey = envOrDefault("GOOGLE_MAPS_API_KEY", "")
	cfg.Maps.Region = envOrDefault("ECORIDE_MAPS_REGION", "")
	cfg.Email.Region = envOrDefault("ECORIDE_SES_REGION", "")
	cfg.Email.Sender = envOrDefault("ECORIDE_SES_SENDER", "")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
