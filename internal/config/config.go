package config

import (
	"time"

	"github.com/agentstation/roster/pkg/errors"
)

// Environment variable names.
const (
	DatabaseURL            = "DATABASE_URL"
	DatabasePassword       = "DATABASE_PASSWORD"
	DatabaseMaxConnections = "DATABASE_MAX_CONNECTIONS"
	DatabaseAcquireTimeout = "DATABASE_CONNECTION_ACQUIRE_TIMEOUT"

	AppServerURL          = "APP_SERVER_URL"
	AppServerDrainTimeout = "APP_SERVER_GRACEFUL_SHUTDOWN_MAX_DURATION"
	AppServerCORSOrigins  = "APP_SERVER_CORS_ORIGINS"
	AppServerTypedErrors  = "APP_SERVER_TYPED_ERRORS"
	AppServerCacheTTL     = "APP_SERVER_CACHE_TTL"

	SPADistDir      = "SPA_DIST_DIR"
	SPABootstrapURL = "SPA_BOOTSTRAP_URL"

	SearchServerURL   = "SEARCH_SERVER_URL"
	SearchMasterKey   = "SEARCH_MASTER_KEY"
	SearchPlayerIndex = "SEARCH_PLAYER_INDEX"
)

// Defaults for optional settings.
const (
	DefaultPlayerIndex = "players"
	DefaultCacheTTL    = 300
)

// Database holds connection pool settings.
type Database struct {
	URL            string
	Password       string
	MaxConnections uint32
	AcquireTimeout time.Duration
}

// Server holds HTTP listener settings.
type Server struct {
	Addr         string
	DrainTimeout time.Duration
	CORSOrigins  []string
	TypedErrors  bool
	CacheTTL     time.Duration
}

// SPA locates the compiled single-page application on disk.
type SPA struct {
	DistDir      string
	BootstrapURL string
}

// Search holds search server settings.
type Search struct {
	URL         string
	MasterKey   string
	PlayerIndex string
}

// Config is the complete service configuration.
type Config struct {
	Database Database
	Server   Server
	SPA      SPA
	Search   Search
}

// Load reads every setting from env. The first missing or malformed
// required variable is returned as an error.
func Load(env *Env) (*Config, error) {
	var (
		cfg Config
		err error
	)

	if cfg.Database.URL, err = env.Required(DatabaseURL); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = env.Required(DatabasePassword); err != nil {
		return nil, err
	}
	if cfg.Database.MaxConnections, err = env.RequiredNumber(DatabaseMaxConnections); err != nil {
		return nil, err
	}
	acquire, err := env.RequiredNumber(DatabaseAcquireTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Database.AcquireTimeout = seconds(acquire)

	if cfg.Server.Addr, err = env.Required(AppServerURL); err != nil {
		return nil, err
	}
	drain, err := env.RequiredNumber(AppServerDrainTimeout)
	if err != nil {
		return nil, err
	}
	if drain == 0 {
		return nil, errors.NewConfigError(AppServerDrainTimeout, "must be at least 1 second", errors.ErrInvalidInput)
	}
	cfg.Server.DrainTimeout = seconds(drain)
	cfg.Server.CORSOrigins = env.OptionalList(AppServerCORSOrigins)
	cfg.Server.TypedErrors = env.OptionalBool(AppServerTypedErrors, false)
	cfg.Server.CacheTTL = seconds(env.OptionalNumber(AppServerCacheTTL, DefaultCacheTTL))

	if cfg.SPA.DistDir, err = env.Required(SPADistDir); err != nil {
		return nil, err
	}
	if cfg.SPA.BootstrapURL, err = env.Required(SPABootstrapURL); err != nil {
		return nil, err
	}

	if cfg.Search.URL, err = env.Required(SearchServerURL); err != nil {
		return nil, err
	}
	if cfg.Search.MasterKey, err = env.Required(SearchMasterKey); err != nil {
		return nil, err
	}
	cfg.Search.PlayerIndex = env.Optional(SearchPlayerIndex, DefaultPlayerIndex)

	return &cfg, nil
}

func seconds(n uint32) time.Duration {
	return time.Duration(n) * time.Second
}
