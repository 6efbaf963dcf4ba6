package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/registry"
	"github.com/matzehuels/erdflow/pkg/relayout"
)

func newTestWatcher(t *testing.T, dir string) (*watcher, *fsnotify.Watcher) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	reg := registry.New()
	orch, err := relayout.New(reg, nil, pipeline.Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(orch.Close)

	w := &watcher{
		input:  writeFile(t, dir, "shop.yaml", usersOrdersYAML),
		sizes:  writeFile(t, dir, "sizes.json", `{}`),
		reg:    reg,
		orch:   orch,
		logger: logger,
	}
	if err := w.loadSchema(); err != nil {
		t.Fatalf("loadSchema: %v", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { fsw.Close() })
	for _, d := range w.dirs() {
		if err := fsw.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	return w, fsw
}

// waitFor waits for a reload of the file called name that satisfies ok.
// A write can show up as several events, the first of which may see a
// truncated file.
func waitFor(t *testing.T, msgs <-chan fileMsg, name string, ok func(fileMsg) bool) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-msgs:
			if filepath.Base(msg.Path) == name && ok(msg) {
				return
			}
		case <-timeout:
			t.Fatalf("no reload of %s", name)
		}
	}
}

func TestWatcherReloadsFiles(t *testing.T) {
	dir := t.TempDir()
	w, fsw := newTestWatcher(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan fileMsg, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.loop(ctx, fsw, func(msg fileMsg) {
			select {
			case msgs <- msg:
			default:
			}
		})
	}()

	writeFile(t, dir, "sizes.json", `{"table-users": {"width": 300, "height": 120}}`)
	waitFor(t, msgs, "sizes.json", func(msg fileMsg) bool {
		sz, ok := w.reg.Get(diagram.NodeID{TableID: "users"})
		return msg.Err == nil && ok && sz.Width == 300
	})

	writeFile(t, dir, "shop.yaml", "schemas: [")
	waitFor(t, msgs, "shop.yaml", func(msg fileMsg) bool { return msg.Err != nil })
	if db := w.orch.Schema(); db == nil || db.TableCount() != 2 {
		t.Error("broken schema replaced the previous one")
	}

	writeFile(t, dir, "other.txt", "ignored")
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("loop returned %v, want context.Canceled", err)
	}
}
