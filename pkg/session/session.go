// Package session manages live diagram sessions.
//
// A [Session] pairs one size registry with one relayout orchestrator, so
// every open diagram keeps its own measurements and layout. Sessions are
// kept in a [Store]:
//   - [MemoryStore]: live sessions of a server process, evicted after an
//     idle timeout
//   - [FileStore]: JSON snapshots of sessions, used to carry sessions over
//     a server restart
//
// # Usage
//
//	sess, err := session.New(runner, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess.SetSchema(db)
//	sess.Measure("table-users", 240, 96)
//	d, err := sess.Flush(ctx)
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/registry"
	"github.com/matzehuels/erdflow/pkg/relayout"
	"github.com/matzehuels/erdflow/pkg/schema"
)

// DefaultIdleTTL is how long an untouched session survives in a MemoryStore.
const DefaultIdleTTL = 30 * time.Minute

// Session is one open diagram.
type Session struct {
	ID           string
	Registry     *registry.Registry
	Orchestrator *relayout.Orchestrator
	CreatedAt    time.Time

	mu        sync.Mutex
	touchedAt time.Time
}

// New creates a session with a fresh id, an empty registry and an
// orchestrator over it.
func New(runner *pipeline.Runner, opts pipeline.Options) (*Session, error) {
	return newWithID(uuid.NewString(), runner, opts, time.Now())
}

func newWithID(id string, runner *pipeline.Runner, opts pipeline.Options, now time.Time) (*Session, error) {
	reg := registry.New()
	orch, err := relayout.New(reg, runner, opts)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:           id,
		Registry:     reg,
		Orchestrator: orch,
		CreatedAt:    now,
		touchedAt:    now,
	}, nil
}

// ValidateID checks that id is a session id issued by New.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return nil
}

// Touch marks the session as used now.
func (s *Session) Touch() { s.touch(time.Now()) }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touchedAt = now
	s.mu.Unlock()
}

// TouchedAt returns when the session was last used.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// SetSchema replaces the schema of the diagram.
func (s *Session) SetSchema(db *schema.Database) {
	s.Touch()
	s.Orchestrator.SetSchema(db)
}

// Measure records the rendered size of a node given by its serialized id,
// e.g. "table-users". Malformed ids are INVALID_INPUT errors and bad sizes
// INVALID_SIZE errors; neither writes anything.
func (s *Session) Measure(nodeID string, width, height float64) error {
	s.Touch()
	id, err := parseNodeID(nodeID)
	if err != nil {
		return err
	}
	return s.Registry.Set(id, diagram.Size{Width: width, Height: height})
}

// MeasureAll records several sizes keyed by serialized node id. Every id
// and size is checked before any is written, so a bad entry leaves the
// registry unchanged.
func (s *Session) MeasureAll(sizes map[string]diagram.Size) error {
	s.Touch()
	parsed := make(map[diagram.NodeID]diagram.Size, len(sizes))
	for raw, size := range sizes {
		id, err := parseNodeID(raw)
		if err != nil {
			return err
		}
		if err := errors.ValidateSize(size.Width, size.Height); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSize, err, "size of %s", raw)
		}
		parsed[id] = size
	}
	return s.Registry.SetAll(parsed)
}

// parseNodeID checks a node id received from a client and parses it.
func parseNodeID(raw string) (diagram.NodeID, error) {
	if err := errors.ValidateIdentifier("node id", raw); err != nil {
		return diagram.NodeID{}, err
	}
	id, err := diagram.ParseNodeID(raw)
	if err != nil {
		return diagram.NodeID{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "node id %q", raw)
	}
	return id, nil
}

// Flush runs pending builds and returns the current diagram. The error of
// a failed build is returned next to the previous diagram.
func (s *Session) Flush(ctx context.Context) (diagram.Diagram, error) {
	s.Touch()
	err := s.Orchestrator.Flush(ctx)
	return s.Orchestrator.Current(), err
}

// Diagram returns the current diagram without building.
func (s *Session) Diagram() diagram.Diagram {
	s.Touch()
	return s.Orchestrator.Current()
}

// Close detaches the orchestrator from the registry.
func (s *Session) Close() {
	s.Orchestrator.Close()
}

// Snapshot captures what is needed to recreate the session: its schema,
// measurements and highlights.
type Snapshot struct {
	ID         string           `json:"id"`
	Schema     *schema.Database `json:"schema,omitempty"`
	Sizes      diagram.Sizes    `json:"sizes,omitempty"`
	Highlights []diagram.EdgeID `json:"highlights,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	TouchedAt  time.Time        `json:"touched_at"`
}

// Snapshot returns the current state of s.
func (s *Session) Snapshot() Snapshot {
	highlights := s.Orchestrator.Current().Highlighted()
	sort.Slice(highlights, func(i, j int) bool { return highlights[i].String() < highlights[j].String() })
	return Snapshot{
		ID:         s.ID,
		Schema:     s.Orchestrator.Schema(),
		Sizes:      s.Registry.Snapshot(),
		Highlights: highlights,
		CreatedAt:  s.CreatedAt,
		TouchedAt:  s.TouchedAt(),
	}
}

// Restore recreates a session from a snapshot. The diagram is rebuilt on
// the next Flush.
func Restore(snap Snapshot, runner *pipeline.Runner, opts pipeline.Options) (*Session, error) {
	if err := ValidateID(snap.ID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "restore session")
	}
	s, err := newWithID(snap.ID, runner, opts, snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.touch(snap.TouchedAt)
	if err := s.Registry.SetAll(snap.Sizes); err != nil {
		s.Close()
		return nil, err
	}
	s.Orchestrator.SetSchema(snap.Schema)
	if len(snap.Highlights) > 0 {
		s.Orchestrator.Highlight(snap.Highlights...)
	}
	return s, nil
}

// Store is the interface for live session storage.
type Store interface {
	// Get retrieves a session by ID and marks it used.
	// Returns a SESSION_NOT_FOUND error if the session doesn't exist.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes and closes a session. Missing sessions are ignored.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes sessions idle for longer than the store's TTL and
	// returns how many it removed.
	Cleanup(ctx context.Context) (int, error)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
}
