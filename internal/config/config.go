package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Log output formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config is the server configuration, read from the environment
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is json or text
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	TokenSecret string        `env:"TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RespawnDelay    time.Duration `env:"RESPAWN_DELAY" envDefault:"10s"`
	RespawnInterval time.Duration `env:"RESPAWN_INTERVAL" envDefault:"1s"`
	TickRate        int           `env:"TICK_RATE" envDefault:"20"`

	MaxPlayersPerMatch int `env:"MAX_PLAYERS_PER_MATCH" envDefault:"10"`
	MaxPlayersPerTeam  int `env:"MAX_PLAYERS_PER_TEAM" envDefault:"5"`
	MinPlayersPerTeam  int `env:"MIN_PLAYERS_PER_TEAM" envDefault:"2"`

	// AllowedOrigins lists extra host patterns (path.Match syntax, e.g.
	// "*.example.com") browsers may open /ws from. Same-host origins and
	// clients that send no Origin are always accepted.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads an optional dotenv file into the process environment, then
// parses the environment. A missing dotenv file is not an error. Variables
// already set in the environment win over the file.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return parse(env.Options{})
}

// FromMap parses configuration from the given variables only
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse cleanly but make no sense together
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STORAGE_TYPE is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE must be memory or redis, got %q", c.StorageType))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatText {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.RespawnDelay < 0 {
		errs = append(errs, errors.New("RESPAWN_DELAY must not be negative"))
	}
	if c.TickRate < 1 {
		errs = append(errs, errors.New("TICK_RATE must be at least 1"))
	}
	if c.MinPlayersPerTeam < 1 || c.MinPlayersPerTeam > c.MaxPlayersPerTeam {
		errs = append(errs, errors.New("MIN_PLAYERS_PER_TEAM must be between 1 and MAX_PLAYERS_PER_TEAM"))
	}
	if c.MaxPlayersPerMatch < 2 || c.MaxPlayersPerMatch > 2*c.MaxPlayersPerTeam {
		errs = append(errs, errors.New("MAX_PLAYERS_PER_MATCH must be between 2 and twice MAX_PLAYERS_PER_TEAM"))
	}
	for _, pattern := range c.AllowedOrigins {
		if _, err := path.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("ALLOWED_ORIGINS pattern %q: %w", pattern, err))
		}
	}
	return errors.Join(errs...)
}

// Level returns the configured slog level
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Addr returns the HTTP listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewLogger builds the process logger writing to w
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
