package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/schema"
)

func usersOrders() *schema.Database {
	return &schema.Database{Schemas: []schema.Schema{{
		ID: "public",
		Tables: []schema.Table{
			{ID: "users", Name: "users", Fields: []schema.Field{{ID: "u1", TableID: "users", Name: "id"}}},
			{ID: "orders", Name: "orders", Fields: []schema.Field{{ID: "o2", TableID: "orders", Name: "user_id"}}},
		},
		Refs: []schema.Ref{{
			ID: "r1",
			Endpoints: [2]schema.Endpoint{
				{TableName: "users", FieldIDs: []string{"u1"}, Relation: schema.RelationOne},
				{TableName: "orders", FieldIDs: []string{"o2"}, Relation: schema.RelationMany},
			},
		}},
	}}}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(nil, pipeline.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewAssignsUUID(t *testing.T) {
	a, b := newSession(t), newSession(t)
	if _, err := uuid.Parse(a.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", a.ID, err)
	}
	if a.ID == b.ID {
		t.Error("two sessions share an id")
	}
	if a.Registry == b.Registry {
		t.Error("two sessions share a registry")
	}
}

func TestMeasure(t *testing.T) {
	s := newSession(t)
	s.SetSchema(usersOrders())

	if err := s.Measure("table-users", 240, 96); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if err := s.Measure("users", 240, 96); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad id: err = %v, want INVALID_INPUT", err)
	}
	for _, id := range []string{"", "table-us\x00ers", "table-" + strings.Repeat("x", errors.MaxIdentifierLength)} {
		if err := s.Measure(id, 240, 96); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Measure(%q): err = %v, want INVALID_INPUT", id, err)
		}
	}
	if err := s.Measure("table-orders", 0, 96); !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Errorf("bad size: err = %v, want INVALID_SIZE", err)
	}
	if s.Registry.Len() != 1 {
		t.Errorf("registry has %d entries, want 1", s.Registry.Len())
	}

	d, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	users, ok := d.Node(diagram.NodeID{TableID: "users"})
	if !ok || users.Size == nil || users.Size.Width != 240 {
		t.Errorf("users node = %+v", users)
	}
	if orders, _ := d.Node(diagram.NodeID{TableID: "orders"}); orders.Size != nil {
		t.Errorf("unmeasured orders got size %v", *orders.Size)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	s.SetSchema(usersOrders())
	_ = s.Measure("table-orders", 200, 120)
	if _, err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	edge := diagram.EdgeID{SchemaID: "public", RefID: "r1"}
	s.Orchestrator.Highlight(edge)

	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := fs.Save(ctx, s.Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap, err := fs.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	restored, err := Restore(snap, nil, pipeline.Options{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	defer restored.Close()

	want, _ := s.Flush(ctx)
	got, err := restored.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if restored.ID != s.ID {
		t.Errorf("id = %s, want %s", restored.ID, s.ID)
	}
	wn, _ := want.Node(diagram.NodeID{TableID: "orders"})
	gn, _ := got.Node(diagram.NodeID{TableID: "orders"})
	if gn.Position != wn.Position || gn.Size == nil || *gn.Size != *wn.Size {
		t.Errorf("restored orders = %+v, want %+v", gn, wn)
	}
	if h := got.Highlighted(); len(h) != 1 || h[0] != edge {
		t.Errorf("restored highlights = %v", h)
	}

	list, err := fs.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}
	if err := fs.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(ctx, s.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Load after Delete: err = %v", err)
	}
}

func TestFileStoreRejectsForeignIDs(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(context.Background(), "../../etc/passwd"); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("err = %v, want SESSION_NOT_FOUND", err)
	}
	if err := fs.Save(context.Background(), Snapshot{ID: "x"}); err == nil {
		t.Error("snapshot with a foreign id saved")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	a, b := newSession(t), newSession(t)
	_ = store.Set(ctx, a)
	_ = store.Set(ctx, b)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("missing: err = %v, want SESSION_NOT_FOUND", err)
	}

	// a is used at 12:00, b never after creation.
	a.touch(now.Add(-2 * time.Minute))
	b.touch(now.Add(-2 * time.Minute))
	if _, err := store.Get(ctx, a.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	removed, err := store.Cleanup(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Cleanup = %d, %v; want 1", removed, err)
	}
	if _, err := store.Get(ctx, b.ID); err == nil {
		t.Error("idle session survived Cleanup")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}

	_ = store.Delete(ctx, a.ID)
	_ = store.Delete(ctx, a.ID)
	if store.Len() != 0 {
		t.Errorf("Len after Delete = %d", store.Len())
	}
}

func TestMeasureAllIsAtomic(t *testing.T) {
	s := newSession(t)
	err := s.MeasureAll(map[string]diagram.Size{
		"table-users":  {Width: 200, Height: 80},
		"table-orders": {Width: -1, Height: 80},
	})
	if !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Fatalf("err = %v, want INVALID_SIZE", err)
	}
	if s.Registry.Len() != 0 {
		t.Errorf("registry has %d entries after a rejected batch", s.Registry.Len())
	}

	if err := s.MeasureAll(map[string]diagram.Size{
		"table-users":  {Width: 200, Height: 80},
		"table-orders": {Width: 220, Height: 120},
	}); err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if s.Registry.Len() != 2 {
		t.Errorf("registry has %d entries, want 2", s.Registry.Len())
	}
}
