package layout

import (
	"context"
	"reflect"
	"testing"

	"github.com/matzehuels/erdflow/pkg/cache"
)

type countingEngine struct {
	Layered
	calls int
}

func (e *countingEngine) Layout(ctx context.Context, g Graph, cfg Config) (Result, error) {
	e.calls++
	return e.Layered.Layout(ctx, g, cfg)
}

func TestCachedReusesResults(t *testing.T) {
	ctx := context.Background()
	inner := &countingEngine{}
	c := NewCached(inner, cache.NewMemoryCache(0, 0))

	first, err := c.Layout(ctx, erGraph(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Layout(ctx, erGraph(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Errorf("engine calls = %d, want 1", inner.calls)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	second.Cached = false
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	if c.Name() != LayeredName {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestCachedMissesOnChangedInput(t *testing.T) {
	ctx := context.Background()
	inner := &countingEngine{}
	c := NewCached(inner, cache.NewMemoryCache(0, 0))

	g := erGraph()
	_, _ = c.Layout(ctx, g, DefaultConfig())

	g.Nodes[0].Height += 10
	_, _ = c.Layout(ctx, g, DefaultConfig())

	cfg := DefaultConfig()
	cfg.RankDir = LeftToRight
	_, _ = c.Layout(ctx, g, cfg)

	if inner.calls != 3 {
		t.Errorf("engine calls = %d, want 3", inner.calls)
	}
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingEngine{}
	store := cache.NewMemoryCache(0, 0)
	c := NewCached(inner, store)

	bad := Graph{Nodes: []Node{box("a", 1, 1)}, Edges: []Edge{{From: "a", To: "ghost"}}}
	if _, err := c.Layout(ctx, bad, DefaultConfig()); err == nil {
		t.Fatal("expected error")
	}
	if store.Len() != 0 {
		t.Errorf("cache holds %d entries after a failed layout", store.Len())
	}
}
