package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseURL     string // empty runs without the durable store
	LogLevel        string // debug | info | warn | error
	LogFormat       string // json | console
	LotTimerSeconds int    // default lot countdown for seeds without rules
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("AUCTION_ADDR", ":8080")
	}

	cfg := Config{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:    envDefault("LOG_LEVEL", "info"),
		LogFormat:   envDefault("LOG_FORMAT", "json"),
	}

	timer, err := envIntDefault("LOT_TIMER_SECONDS", 30)
	if err != nil {
		return cfg, err
	}
	cfg.LotTimerSeconds = timer

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return cfg, fmt.Errorf("config: invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntDefault(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q", key, v)
	}
	return n, nil
}
