// Package config defines the configuration of the market game server and
// provides validation helpers.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/regime"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETGAME_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Saves    SavesConfig    `toml:"saves"`
	Game     GameConfig     `toml:"game"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
	CORSOrigins  []string `toml:"cors_origins"`
}

// DatabaseConfig holds the PostgreSQL connection string. An empty DSN
// keeps saves out of PostgreSQL.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the Redis cache parameters. The cache is only used in
// front of PostgreSQL.
type RedisConfig struct {
	URL      string   `toml:"url"`
	CacheTTL duration `toml:"cache_ttl"`
}

// S3Config holds S3-compatible object storage parameters for the save
// archive. An empty bucket disables archiving.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SavesConfig selects the file save directory used when no database is
// configured. An empty directory keeps saves in memory.
type SavesConfig struct {
	Dir string `toml:"dir"`
}

// GameConfig holds the game setup and the market tunables.
type GameConfig struct {
	// Seed fixes the random source; 0 seeds from the clock.
	Seed        uint64 `toml:"seed"`
	Scenario    string `toml:"scenario"`
	InboxWindow int    `toml:"inbox_window"`

	InitialRegime      string  `toml:"initial_regime"`
	RegimeSwitchChance float64 `toml:"regime_switch_chance"`
	RandomEventChance  float64 `toml:"random_event_chance"`
	StoryEventChance   float64 `toml:"story_event_chance"`
	Volatility         float64 `toml:"volatility"`
	MinRumorReputation float64 `toml:"min_rumor_reputation"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the standard game settings.
func Defaults() Config {
	mc := market.DefaultConfig()
	gc := game.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  duration{10 * time.Second},
			WriteTimeout: duration{10 * time.Second},
			CORSOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			RunMigrations: true,
		},
		Redis: RedisConfig{
			CacheTTL: duration{30 * time.Second},
		},
		S3: S3Config{
			Region:         "us-east-1",
			Prefix:         "saves",
			ForcePathStyle: true,
		},
		Saves: SavesConfig{
			Dir: "saves",
		},
		Game: GameConfig{
			Scenario:           "default",
			InboxWindow:        notify.DefaultWindow,
			InitialRegime:      mc.InitialRegime.Name(),
			RegimeSwitchChance: mc.RegimeSwitchChance,
			RandomEventChance:  mc.RandomEventChance,
			StoryEventChance:   gc.StoryEventChance,
			Volatility:         mc.Volatility,
			MinRumorReputation: mc.MinRumorReputation,
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level named by LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	if l, ok := validLogLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Market returns the market settings derived from the game section.
// Validate must have succeeded.
func (c *Config) Market() market.Config {
	mc := market.DefaultConfig()
	if r, err := regime.Parse(c.Game.InitialRegime); err == nil {
		mc.InitialRegime = r
	}
	mc.RegimeSwitchChance = c.Game.RegimeSwitchChance
	mc.RandomEventChance = c.Game.RandomEventChance
	mc.Volatility = c.Game.Volatility
	mc.MinRumorReputation = c.Game.MinRumorReputation
	return mc
}

// Orchestrator returns the game loop settings.
func (c *Config) Orchestrator() game.Config {
	gc := game.DefaultConfig()
	gc.StoryEventChance = c.Game.StoryEventChance
	return gc
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if _, ok := validLogLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}
	if c.Server.ReadTimeout.Duration <= 0 || c.Server.WriteTimeout.Duration <= 0 {
		errs = append(errs, "server: read_timeout and write_timeout must be positive")
	}

	// Redis sits in front of PostgreSQL only.
	if c.Redis.URL != "" && c.Database.DSN == "" {
		errs = append(errs, "redis: url requires database.dsn")
	}
	if c.Redis.URL != "" && c.Redis.CacheTTL.Duration <= 0 {
		errs = append(errs, "redis: cache_ttl must be positive")
	}

	// S3
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when bucket is set")
	}

	// Game
	g := c.Game
	if g.Scenario == "" {
		errs = append(errs, "game: scenario must not be empty")
	}
	if g.InboxWindow < 1 {
		errs = append(errs, "game: inbox_window must be >= 1")
	}
	if _, err := regime.Parse(g.InitialRegime); err != nil {
		errs = append(errs, fmt.Sprintf("game: initial_regime %q (valid: Bull, Bear, Volatile)", g.InitialRegime))
	}
	for name, p := range map[string]float64{
		"regime_switch_chance": g.RegimeSwitchChance,
		"random_event_chance":  g.RandomEventChance,
		"story_event_chance":   g.StoryEventChance,
		"min_rumor_reputation": g.MinRumorReputation,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Sprintf("game: %s must be in [0, 1], got %v", name, p))
		}
	}
	if g.Volatility <= 0 {
		errs = append(errs, "game: volatility must be > 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.New("config: " + strings.Join(errs, "; "))
}
