// Package cli implements the erdflow command-line interface.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/erdflow/pkg/buildinfo"
	"github.com/matzehuels/erdflow/pkg/cache"
	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/registry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "erdflow"

	// configEnv names a default config file when --config is not given.
	configEnv = "ERDFLOW_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// persistent flags
	configPath string
	noCache    bool
	cacheDir   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "erdflow lays out database schemas as entity-relationship diagrams",
		Long: `erdflow turns a database schema into a layered entity-relationship diagram.

Schemas come from JSON or YAML model files or straight from a live PostgreSQL
or SQLite database. Tables are laid out in ranks along their foreign keys,
using measured box sizes where they are known and a fallback size otherwise.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "options file (TOML), default $"+configEnv)
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")
	pf.StringVar(&c.cacheDir, "cache-dir", "", "layout cache directory (default: ~/.cache/erdflow)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.introspectCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use, caching layouts on disk
// unless --no-cache is set.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	cache, err := c.newCache()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache() (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.layoutCacheDir()
	if err != nil {
		c.Logger.Debug("layout cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

func (c *CLI) layoutCacheDir() (string, error) {
	if c.cacheDir != "" {
		return c.cacheDir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/erdflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// addLayoutFlags registers the layout options on cmd. Flags left at their
// zero value do not override the config file.
func addLayoutFlags(cmd *cobra.Command, o *pipeline.Options) {
	f := cmd.Flags()
	f.StringVarP(&o.Engine, "engine", "e", "", "layout engine: layered (default), graphviz")
	f.StringVar((*string)(&o.RankDir), "rankdir", "", "rank direction: TB (default), BT, LR, RL")
	f.Float64Var(&o.NodeSep, "nodesep", 0, "gap between boxes of one rank (default 150)")
	f.Float64Var(&o.RankSep, "ranksep", 0, "gap between ranks (default 150)")
	f.IntVar(&o.Passes, "passes", 0, "crossing reduction sweeps (default 24)")
	f.Float64Var(&o.Margin, "margin", 0, "margin around the drawing")
	f.Float64Var(&o.FallbackWidth, "fallback-width", 0, "width of unmeasured tables (default 172)")
	f.Float64Var(&o.FallbackHeight, "fallback-height", 0, "height of unmeasured tables (default 36)")
}

// options layers flags over the config file and validates the result.
func (c *CLI) options(flags pipeline.Options) (pipeline.Options, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	var opts pipeline.Options
	if path != "" {
		fileOpts, err := pipeline.LoadOptionsFile(path)
		if err != nil {
			return opts, err
		}
		c.Logger.Debug("loaded config", "path", path)
		opts = fileOpts
	}
	opts = opts.Merge(flags)
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// =============================================================================
// Measurements
// =============================================================================

// readSizes reads a measurements file: a JSON object from node id to size,
//
//	{"table-users": {"width": 240, "height": 96}}
func readSizes(path string) (map[diagram.NodeID]diagram.Size, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "sizes file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sizes file %s", path)
	}
	var sizes map[diagram.NodeID]diagram.Size
	if err := json.Unmarshal(data, &sizes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse sizes file %s", path)
	}
	return sizes, nil
}

// loadRegistry returns a registry holding the sizes of path, or an empty
// one when path is empty.
func loadRegistry(path string) (*registry.Registry, error) {
	reg := registry.New()
	if path == "" {
		return reg, nil
	}
	sizes, err := readSizes(path)
	if err != nil {
		return nil, err
	}
	if err := reg.SetAll(sizes); err != nil {
		return nil, err
	}
	return reg, nil
}
