package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/mobaserver/internal/api"
	"github.com/mcoot/mobaserver/internal/config"
	"github.com/mcoot/mobaserver/internal/dependencies/clock"
	"github.com/mcoot/mobaserver/internal/dependencies/random"
	"github.com/mcoot/mobaserver/internal/services/connection"
	"github.com/mcoot/mobaserver/internal/services/game"
	"github.com/mcoot/mobaserver/internal/services/registry"
	"github.com/mcoot/mobaserver/internal/services/respawn"
	"github.com/mcoot/mobaserver/internal/services/tick"
	"github.com/mcoot/mobaserver/internal/storage"
	"github.com/mcoot/mobaserver/internal/storage/memory"
	redisstorage "github.com/mcoot/mobaserver/internal/storage/redis"
	"github.com/mcoot/mobaserver/internal/web/hub"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Registry          *registry.Registry
	Scheduler         *respawn.Scheduler
	TickDriver        *tick.Driver
	GameController    *game.Controller
	ConnectionService *connection.Service
	Hub               *hub.Hub

	// Handler serves the HTTP API, the event stream and the websocket endpoint
	Handler http.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// ConnectionConfig holds the token secret and lifetime. Secret is required.
	ConnectionConfig connection.Config
	// Zero values fall back to each package's DefaultConfig
	RegistryConfig registry.Config
	RespawnConfig  respawn.Config
	TickConfig     tick.Config
	// AllowedOrigins are extra host patterns browsers may open /ws from
	AllowedOrigins []string
}

// ConfigFrom maps the process configuration onto the factory configuration
func ConfigFrom(c config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:      logger,
		StorageType: c.StorageType,
		ConnectionConfig: connection.Config{
			Secret:   c.TokenSecret,
			TokenTTL: c.TokenTTL,
		},
		RegistryConfig: registry.Config{
			MaxPlayersPerMatch: c.MaxPlayersPerMatch,
			MaxPlayersPerTeam:  c.MaxPlayersPerTeam,
			MinPlayersPerTeam:  c.MinPlayersPerTeam,
		},
		RespawnConfig: respawn.Config{
			Delay:    c.RespawnDelay,
			Interval: c.RespawnInterval,
		},
		TickConfig:     tick.Config{TickRate: c.TickRate},
		AllowedOrigins: c.AllowedOrigins,
	}
	if c.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, withDefaults(cfg), logger)
}

// withDefaults fills zero-valued sub-configs from their package defaults
func withDefaults(cfg Config) Config {
	if cfg.RegistryConfig == (registry.Config{}) {
		cfg.RegistryConfig = registry.DefaultConfig()
	}
	if cfg.RespawnConfig == (respawn.Config{}) {
		cfg.RespawnConfig = respawn.DefaultConfig()
	}
	if cfg.TickConfig == (tick.Config{}) {
		cfg.TickConfig = tick.DefaultConfig()
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	connectionService, err := connection.New(clk, rnd, cfg.ConnectionConfig)
	if err != nil {
		return nil, err
	}

	// Create services
	eventHub := hub.New(clk, logger)
	matches := registry.New(cfg.RegistryConfig, clk, rnd, logger)
	scheduler := respawn.New(matches, eventHub, clk, cfg.RespawnConfig, logger)
	tickDriver := tick.New(matches, scheduler, eventHub, clk, cfg.TickConfig, logger)
	gameController := game.NewController(matches, scheduler, store, eventHub, clk, logger)

	handler := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		Clock:             clk,
		ConnectionService: connectionService,
		GameController:    gameController,
		Hub:               eventHub,
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Logger:            logger,
		Registry:          matches,
		Scheduler:         scheduler,
		TickDriver:        tickDriver,
		GameController:    gameController,
		ConnectionService: connectionService,
		Hub:               eventHub,
		Handler:           handler,
	}, nil
}

// Close releases storage connections
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
