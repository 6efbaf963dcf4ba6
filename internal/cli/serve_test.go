package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/erdflow/pkg/cache"
)

func TestServeCache(t *testing.T) {
	c := quietCLI()
	c.noCache = false

	got, backend, err := c.serveCache(context.Background(), serveOpts{cacheSize: 8})
	if err != nil {
		t.Fatalf("serveCache: %v", err)
	}
	defer got.Close()
	if backend != "memory" {
		t.Errorf("backend = %q, want memory", backend)
	}
	mc, ok := got.(*cache.MemoryCache)
	if !ok {
		t.Fatalf("cache = %T, want *cache.MemoryCache", got)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		if err := mc.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if mc.Len() != 8 {
		t.Errorf("Len = %d, want --cache-size 8", mc.Len())
	}

	c.noCache = true
	if _, backend, _ := c.serveCache(context.Background(), serveOpts{redisURL: "redis://localhost:6379/0"}); backend != "off" {
		t.Errorf("--no-cache: backend = %q, want off", backend)
	}
}

func TestServeKeyer(t *testing.T) {
	opts := cache.LayoutKeyOpts{Engine: "dot", RankDir: "TB"}
	plain := cache.NewDefaultKeyer().LayoutKey("h", opts)

	if got := serveKeyer(serveOpts{redisPrefix: defaultRedisPrefix}).LayoutKey("h", opts); got != plain {
		t.Errorf("without redis: key = %q, want unprefixed %q", got, plain)
	}

	so := serveOpts{redisURL: "redis://localhost:6379/0", redisPrefix: "staging:"}
	got := serveKeyer(so).LayoutKey("h", opts)
	if !strings.HasPrefix(got, "staging:") || strings.TrimPrefix(got, "staging:") != plain {
		t.Errorf("with redis: key = %q, want %q", got, "staging:"+plain)
	}

	so.redisPrefix = ""
	if got := serveKeyer(so).LayoutKey("h", opts); got != plain {
		t.Errorf("empty prefix: key = %q, want %q", got, plain)
	}
}
