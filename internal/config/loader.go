package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETGAME_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETGAME_* environment variables and
// overwrites the corresponding Config fields when a variable is set. Secrets
// such as the database DSN and S3 keys are usually injected this way.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setStr(&cfg.Server.Addr, "MARKETGAME_SERVER_ADDR")
	setDuration(&cfg.Server.ReadTimeout, "MARKETGAME_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "MARKETGAME_SERVER_WRITE_TIMEOUT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETGAME_SERVER_CORS_ORIGINS")

	// ── Database ──
	setStr(&cfg.Database.DSN, "MARKETGAME_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setBool(&cfg.Database.RunMigrations, "MARKETGAME_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.URL, "MARKETGAME_REDIS_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL") // compatibility alias
	setDuration(&cfg.Redis.CacheTTL, "MARKETGAME_REDIS_CACHE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETGAME_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETGAME_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETGAME_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "MARKETGAME_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "MARKETGAME_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETGAME_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETGAME_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETGAME_S3_FORCE_PATH_STYLE")

	// ── Saves ──
	setStr(&cfg.Saves.Dir, "MARKETGAME_SAVES_DIR")

	// ── Game ──
	setUint64(&cfg.Game.Seed, "MARKETGAME_GAME_SEED")
	setStr(&cfg.Game.Scenario, "MARKETGAME_GAME_SCENARIO")
	setInt(&cfg.Game.InboxWindow, "MARKETGAME_GAME_INBOX_WINDOW")
	setStr(&cfg.Game.InitialRegime, "MARKETGAME_GAME_INITIAL_REGIME")
	setFloat64(&cfg.Game.RegimeSwitchChance, "MARKETGAME_GAME_REGIME_SWITCH_CHANCE")
	setFloat64(&cfg.Game.RandomEventChance, "MARKETGAME_GAME_RANDOM_EVENT_CHANCE")
	setFloat64(&cfg.Game.StoryEventChance, "MARKETGAME_GAME_STORY_EVENT_CHANCE")
	setFloat64(&cfg.Game.Volatility, "MARKETGAME_GAME_VOLATILITY")
	setFloat64(&cfg.Game.MinRumorReputation, "MARKETGAME_GAME_MIN_RUMOR_REPUTATION")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MARKETGAME_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}
