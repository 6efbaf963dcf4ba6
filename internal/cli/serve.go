package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdflow/internal/server"
	"github.com/matzehuels/erdflow/pkg/cache"
	"github.com/matzehuels/erdflow/pkg/layout"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/session"
)

// serveOpts holds the command-line flags of the serve command.
type serveOpts struct {
	addr        string
	redisURL    string
	redisPrefix string // key namespace in a shared Redis
	cacheSize   int    // entries of the in-process cache
	stateDir    string
	persist     bool
	idleTTL     time.Duration
}

// defaultRedisPrefix namespaces layout keys in a shared Redis.
const defaultRedisPrefix = appName + ":"

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var so serveOpts
	var flags pipeline.Options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live diagram sessions over HTTP",
		Long: `Serve live diagram sessions over HTTP.

A client creates a session with a schema, reports the rendered size of each
table box and reads back the positioned diagram:

  POST   /sessions                   create a session, body: schema JSON or YAML
  GET    /sessions/{id}/diagram      current diagram (?format=svg|png|dot|json)
  PUT    /sessions/{id}/schema       replace the schema
  POST   /sessions/{id}/sizes        {"nodeId","width","height"} or a list of them
  POST   /sessions/{id}/highlights   {"edges":[...]} or {"field":"<fieldId>"}
  DELETE /sessions/{id}/highlights   clear highlights
  DELETE /sessions/{id}              close the session

Layouts are cached in memory, bounded by --cache-size. With --redis they are
cached in Redis instead, under --redis-prefix, and shared between instances.
With --persist, sessions are written to --state-dir on shutdown and restored
on the next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), so, opts)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&so.redisURL, "redis", "", "Redis URL for a shared layout cache, e.g. redis://localhost:6379/0")
	cmd.Flags().StringVar(&so.redisPrefix, "redis-prefix", defaultRedisPrefix, "prefix of layout keys in Redis")
	cmd.Flags().IntVar(&so.cacheSize, "cache-size", cache.DefaultMaxEntries, "layouts kept in the in-process cache")
	cmd.Flags().BoolVar(&so.persist, "persist", false, "keep sessions across restarts")
	cmd.Flags().StringVar(&so.stateDir, "state-dir", "", "session snapshot directory (default: ~/.config/erdflow/sessions)")
	cmd.Flags().DurationVar(&so.idleTTL, "idle-ttl", session.DefaultIdleTTL, "close sessions idle for this long")
	addLayoutFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, so serveOpts, opts pipeline.Options) error {
	layoutCache, backend, err := c.serveCache(ctx, so)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(layoutCache, serveKeyer(so), c.Logger)
	defer runner.Close()

	cfg := server.Config{
		Addr:    so.addr,
		IdleTTL: so.idleTTL,
		Options: opts,
		Logger:  c.Logger,
	}
	if so.persist || so.stateDir != "" {
		snapshots, err := session.NewFileStore(so.stateDir)
		if err != nil {
			return err
		}
		cfg.Snapshots = snapshots
	}

	srv, err := server.New(runner, cfg)
	if err != nil {
		return err
	}

	printInfo("%s API", StyleTitle.Render(appName))
	printKeyValue("address", so.addr)
	printKeyValue("engine", opts.Engine)
	printKeyValue("cache", backend)
	printKeyValue("idle ttl", so.idleTTL.String())
	if cfg.Snapshots != nil {
		printKeyValue("sessions", cfg.Snapshots.Path())
	}
	printNewline()

	return srv.Run(ctx)
}

// serveCache picks the layout cache of the server and names it.
func (c *CLI) serveCache(ctx context.Context, so serveOpts) (cache.Cache, string, error) {
	switch {
	case c.noCache:
		return cache.NewNullCache(), "off", nil
	case so.redisURL != "":
		rc, err := cache.NewRedisCache(ctx, so.redisURL)
		if err != nil {
			return nil, "", err
		}
		return rc, "redis", nil
	default:
		return cache.NewMemoryCache(so.cacheSize, layout.DefaultCacheTTL), "memory", nil
	}
}

// serveKeyer namespaces keys written to a shared Redis.
func serveKeyer(so serveOpts) cache.Keyer {
	if so.redisURL == "" || so.redisPrefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), so.redisPrefix)
}
