package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdflow/pkg/cache"
	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/layout"
	"github.com/matzehuels/erdflow/pkg/layout/graphviz"
	"github.com/matzehuels/erdflow/pkg/observability"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the orchestrator share it to avoid duplicating
// engine selection and caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Engine returns the layout engine named name, wrapped in a layout cache
// unless caching is disabled.
func (r *Runner) Engine(name string) (layout.Engine, error) {
	if err := ValidateEngine(name); err != nil {
		return nil, err
	}
	var e layout.Engine
	switch name {
	case EngineGraphviz:
		e = graphviz.New()
	default:
		e = layout.Layered{}
	}
	if _, disabled := r.Cache.(cache.NullCache); disabled || r.Cache == nil {
		return e, nil
	}
	return &layout.Cached{Engine: e, Cache: r.Cache, Keyer: r.Keyer, TTL: layout.DefaultCacheTTL}, nil
}

// Execute runs build → layout → anchor over db with the measured sizes.
//
// A nil db yields an empty diagram and no error. Malformed relationships
// and dangling edges are reported as diagnostics, logged at warn level and
// forwarded to the pipeline hooks. Only invalid options and engine failures
// are errors.
func (r *Runner) Execute(ctx context.Context, db *schema.Database, sizes diagram.SizeLookup, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	res := &Result{Engine: opts.Engine}

	// Stage 1: Build
	buildStart := time.Now()
	d, diags := diagram.Build(db, sizes)
	res.Stats.BuildTime = time.Since(buildStart)
	res.Stats.NodeCount = len(d.Nodes)
	res.Stats.EdgeCount = len(d.Edges)
	for _, n := range d.Nodes {
		if n.Size != nil {
			res.Stats.Measured++
		}
	}
	observability.Pipeline().OnBuildComplete(ctx, res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.BuildTime)

	opts.Logger.Debug("built graph",
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"measured", res.Stats.Measured,
		"duration", res.Stats.BuildTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	positioned, lres, err := r.Layout(ctx, d, opts)
	res.Stats.LayoutTime = time.Since(layoutStart)
	if err != nil {
		return nil, err
	}
	res.Stats.Crossings = lres.Crossings
	res.Stats.Reversed = lres.Reversed
	res.Stats.Cached = lres.Cached

	opts.Logger.Debug("computed layout",
		"engine", opts.Engine,
		"width", lres.Width,
		"height", lres.Height,
		"crossings", lres.Crossings,
		"cached", lres.Cached,
		"duration", res.Stats.LayoutTime)

	// Stage 3: Anchor
	edges, anchorDiags := diagram.ResolveAnchors(positioned.Nodes, positioned.Edges)
	positioned.Edges = edges
	diags = append(diags, anchorDiags...)

	r.report(ctx, opts.Logger, diags)
	positioned.Diagnostics = diags
	res.Diagram = positioned
	res.Diagnostics = diags
	return res, nil
}

// Layout places the nodes of an unpositioned diagram. Unmeasured nodes are
// handed to the engine at the fallback size.
func (r *Runner) Layout(ctx context.Context, d diagram.Diagram, opts Options) (diagram.Diagram, layout.Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return diagram.Diagram{}, layout.Result{}, err
	}
	engine, err := r.Engine(opts.Engine)
	if err != nil {
		return diagram.Diagram{}, layout.Result{}, err
	}

	g := ToLayoutGraph(d, opts.FallbackSize())
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, engine.Name(), len(g.Nodes))
	start := time.Now()
	lres, err := engine.Layout(ctx, g, opts.LayoutConfig())
	hooks.OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeLayoutFailed, err, "%s layout", engine.Name())
		}
		return diagram.Diagram{}, layout.Result{}, err
	}
	return ApplyLayout(d, lres), lres, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) report(ctx context.Context, logger *log.Logger, diags []diagram.Diagnostic) {
	hooks := observability.Pipeline()
	for _, d := range diags {
		logger.Warn(d.Message, "code", d.Code, "subject", d.Subject)
		hooks.OnDiagnostic(ctx, string(d.Code), d.Subject, d.Message)
	}
}

// applyLogger uses the runner's logger unless the options carry their own.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil || opts.Logger == discard {
		opts.Logger = r.Logger
	}
}
