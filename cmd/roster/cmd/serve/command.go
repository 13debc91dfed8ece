// Package serve provides the command that runs the roster web server.
package serve

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/roster/internal/cmd/application"
	"github.com/agentstation/roster/internal/config"
	"github.com/agentstation/roster/internal/db"
	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/internal/search"
	"github.com/agentstation/roster/internal/server"
	"github.com/agentstation/roster/internal/server/cache"
	"github.com/agentstation/roster/internal/transport"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the web server",
		Long: `Start the roster web server.

The server:
  - serves the compiled SPA from SPA_DIST_DIR, falling back to SPA_BOOTSTRAP_URL
  - exposes the player API under /api/players and search under /api/search/{term}
  - pushes new players to the Meilisearch index in the background
  - compresses responses and decompresses request bodies
  - drains in-flight requests on SIGINT/SIGTERM for at most
    APP_SERVER_GRACEFUL_SHUTDOWN_MAX_DURATION seconds

All required settings are read from the environment; a missing one stops
the command before the listener is bound.`,
		Example: `  # Start with settings from .env
  roster serve

  # Override the listen address
  roster serve --addr 0.0.0.0:3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides APP_SERVER_URL)")
	cmd.Flags().Bool("typed-errors", false, "Map error kinds to 400/404/409/503 (overrides APP_SERVER_TYPED_ERRORS)")

	return cmd
}

// runServer initializes storage and search in order, then serves until
// the command context is canceled.
func runServer(cmd *cobra.Command, app application.Application) error {
	logger := app.Logger()
	env := app.Env()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		env.Set(config.AppServerURL, addr)
	}
	if cmd.Flags().Changed("typed-errors") {
		typed, _ := cmd.Flags().GetBool("typed-errors")
		env.Set(config.AppServerTypedErrors, typed)
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := db.Open(ctx, db.Config{
		URL:            cfg.Database.URL,
		Password:       cfg.Database.Password,
		MaxConnections: cfg.Database.MaxConnections,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening database pool: %w", err)
	}
	defer pool.Close()

	store := players.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("preparing player table: %w", err)
	}

	client, err := search.NewClient(search.Config{
		URL:    cfg.Search.URL,
		APIKey: cfg.Search.MasterKey,
		Index:  cfg.Search.PlayerIndex,

		HTTPClient: transport.New(transport.DefaultHTTPTimeout, logger),
	})
	if err != nil {
		return fmt.Errorf("creating search client: %w", err)
	}

	// The indexer outlives ctx so players stored while draining are
	// still indexed; the server stops it after the drain.
	indexer := search.NewIndexer(client, logger,
		search.WithAwait(search.DefaultPollInterval, search.DefaultTaskTimeout))
	indexer.Start(context.WithoutCancel(ctx))

	srv := server.New(server.AppState{
		Players: store,
		Search:  client,
		Indexer: indexer,
		Cache:   cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL),
	}, serverConfig(cfg), logger)

	logStart(logger, cfg)
	return srv.Run(ctx)
}

// serverConfig maps the loaded settings onto the HTTP server.
func serverConfig(cfg *config.Config) server.Config {
	sc := server.DefaultConfig()
	sc.Addr = cfg.Server.Addr
	sc.DrainTimeout = cfg.Server.DrainTimeout
	sc.DistDir = cfg.SPA.DistDir
	sc.BootstrapFile = cfg.SPA.BootstrapURL
	sc.CORSOrigins = cfg.Server.CORSOrigins
	sc.TypedErrors = cfg.Server.TypedErrors
	return sc
}

func logStart(logger *zerolog.Logger, cfg *config.Config) {
	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("dist_dir", cfg.SPA.DistDir).
		Str("search_index", cfg.Search.PlayerIndex).
		Uint32("max_connections", cfg.Database.MaxConnections).
		Dur("drain_timeout", cfg.Server.DrainTimeout).
		Bool("cors", len(cfg.Server.CORSOrigins) > 0).
		Bool("typed_errors", cfg.Server.TypedErrors).
		Msg("Starting roster server")
}
