package relayout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/observability"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/registry"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// State is the build state of an orchestrator.
type State int

const (
	// Idle means no build is running.
	Idle State = iota
	// Building means a pipeline run is in progress.
	Building
	// LaidOut means a run finished and its result is being published.
	LaidOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case LaidOut:
		return "laid-out"
	default:
		return "unknown"
	}
}

// Listener receives every published diagram. It runs on the building
// goroutine and must not call back into Step.
type Listener func(diagram.Diagram)

// Orchestrator rebuilds a diagram when its schema or measured sizes change.
// It is safe for concurrent use; builds are serialized.
type Orchestrator struct {
	reg    *registry.Registry
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	build sync.Mutex // held for the whole of Step

	mu         sync.Mutex
	db         *schema.Database
	dirty      bool
	state      State
	current    diagram.Diagram
	failed     bool // the last diagnostic of current is a build failure
	highlights map[diagram.EdgeID]struct{}
	builds     int
	listeners  map[int]Listener
	order      []int
	nextID     int

	kick        chan struct{}
	unsubscribe func()
}

// New returns an orchestrator over reg. It subscribes to reg, so every
// measurement becomes a trigger; call Close to detach. A nil runner uses
// an uncached runner with the options' logger.
func New(reg *registry.Registry, runner *pipeline.Runner, opts pipeline.Options) (*Orchestrator, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	o := &Orchestrator{
		reg:        reg,
		runner:     runner,
		opts:       opts,
		logger:     opts.Logger,
		current:    diagram.Diagram{Nodes: []diagram.Node{}, Edges: []diagram.Edge{}},
		highlights: make(map[diagram.EdgeID]struct{}),
		listeners:  make(map[int]Listener),
		kick:       make(chan struct{}, 1),
	}
	o.unsubscribe = reg.Subscribe(func(id diagram.NodeID, size diagram.Size) {
		o.logger.Debug("size measured", "node", id, "width", size.Width, "height", size.Height)
		o.trigger()
	})
	return o, nil
}

// Close stops listening to the registry. Run must be stopped through its
// context.
func (o *Orchestrator) Close() {
	o.unsubscribe()
}

// SetSchema replaces the schema and triggers a build. A nil db lays out
// an empty diagram.
func (o *Orchestrator) SetSchema(db *schema.Database) {
	o.mu.Lock()
	o.db = db
	o.mu.Unlock()
	o.trigger()
}

// Schema returns the current schema.
func (o *Orchestrator) Schema() *schema.Database {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.db
}

func (o *Orchestrator) trigger() {
	o.mu.Lock()
	o.dirty = true
	o.mu.Unlock()
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Step runs one build if a trigger is pending and reports whether it did.
//
// A failed run keeps the previous layout; the failure is recorded as a
// diagnostic on the republished diagram and returned. Repeated failures
// replace that diagnostic instead of adding to it.
func (o *Orchestrator) Step(ctx context.Context) (bool, error) {
	o.build.Lock()
	defer o.build.Unlock()

	o.mu.Lock()
	if !o.dirty {
		o.mu.Unlock()
		return false, nil
	}
	o.dirty = false
	o.state = Building
	db := o.db
	o.mu.Unlock()

	start := time.Now()
	res, err := o.runner.Execute(ctx, db, o.reg.Snapshot(), o.opts)
	elapsed := time.Since(start)

	o.mu.Lock()
	if err != nil {
		kept := o.current.Clone()
		if n := len(kept.Diagnostics); o.failed && n > 0 {
			kept.Diagnostics[n-1] = failure(err)
		} else {
			kept.Diagnostics = append(kept.Diagnostics, failure(err))
		}
		o.current = kept
		o.failed = true
	} else {
		o.current = res.Diagram
		o.failed = false
		o.builds++
	}
	o.state = LaidOut
	builds := o.builds
	o.mu.Unlock()

	observability.Pipeline().OnRelayout(ctx, builds, elapsed, err)
	if err != nil {
		o.logger.Error("relayout failed", "err", err)
	} else {
		o.logger.Debug("relayout", "builds", builds, "nodes", len(res.Diagram.Nodes), "duration", elapsed)
	}
	o.publish()

	o.mu.Lock()
	o.state = Idle
	o.mu.Unlock()
	return true, err
}

func failure(err error) diagram.Diagnostic {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeLayoutFailed
	}
	return diagram.Diagnostic{Code: code, Message: errors.UserMessage(err)}
}

// Run builds whenever a trigger arrives until ctx is done. After the first
// trigger of a burst it waits for the settle window so that the rest of
// the burst joins the same build. Run returns ctx.Err().
func (o *Orchestrator) Run(ctx context.Context) error {
	settle := o.opts.Settle
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.kick:
		}

		if settle > 0 {
			timer := time.NewTimer(settle)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		// Kicks that arrived while settling belong to this build.
		select {
		case <-o.kick:
		default:
		}
		// Failures are already logged and recorded on the diagram.
		_, _ = o.Step(ctx)
	}
}

// Flush runs builds until no trigger is pending. It is the synchronous
// counterpart of Run for callers without an event loop.
func (o *Orchestrator) Flush(ctx context.Context) error {
	var last error
	for {
		ran, err := o.Step(ctx)
		if !ran {
			return last
		}
		last = err
	}
}

// Current returns the latest published diagram with highlights applied.
// Before the first build it is empty.
func (o *Orchestrator) Current() diagram.Diagram {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current.Clone().WithHighlights(o.highlights)
}

// State returns the build state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Builds returns the number of successful builds.
func (o *Orchestrator) Builds() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.builds
}

// Subscribe registers l for every published diagram, in subscription
// order. The returned function removes it.
func (o *Orchestrator) Subscribe(l Listener) (cancel func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = l
	o.order = append(o.order, id)
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.listeners, id)
			for i, v := range o.order {
				if v == id {
					o.order = append(o.order[:i:i], o.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Highlight adds edges to the highlight set and republishes.
func (o *Orchestrator) Highlight(ids ...diagram.EdgeID) {
	o.mu.Lock()
	for _, id := range ids {
		o.highlights[id] = struct{}{}
	}
	o.mu.Unlock()
	o.publish()
}

// Unhighlight removes edges from the highlight set and republishes. With
// no ids it clears the set.
func (o *Orchestrator) Unhighlight(ids ...diagram.EdgeID) {
	o.mu.Lock()
	if len(ids) == 0 {
		clear(o.highlights)
	}
	for _, id := range ids {
		delete(o.highlights, id)
	}
	o.mu.Unlock()
	o.publish()
}

// HighlightField highlights every edge attached to fieldID, the way
// hovering a field row does, and returns their ids.
func (o *Orchestrator) HighlightField(fieldID string) []diagram.EdgeID {
	o.mu.Lock()
	ids := diagram.ConnectedEdges(o.current.Edges, fieldID)
	o.mu.Unlock()
	if len(ids) > 0 {
		o.Highlight(ids...)
	}
	return ids
}

// publish sends the current diagram to every listener outside the lock.
func (o *Orchestrator) publish() {
	o.mu.Lock()
	d := o.current.Clone().WithHighlights(o.highlights)
	listeners := make([]Listener, 0, len(o.order))
	for _, id := range o.order {
		listeners = append(listeners, o.listeners[id])
	}
	o.mu.Unlock()

	for _, l := range listeners {
		l(d)
	}
}
