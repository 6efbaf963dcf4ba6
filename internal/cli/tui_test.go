package cli

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/schema"
)

func watchDiagram() diagram.Diagram {
	return diagram.Diagram{
		Nodes: []diagram.Node{
			{
				ID:       diagram.NodeID{TableID: "users"},
				Size:     &diagram.Size{Width: 240, Height: 96},
				Position: diagram.Position{X: 120, Y: 48},
				Data:     diagram.NodeData{Table: &schema.Table{ID: "users", Name: "users"}},
			},
			{
				ID:       diagram.NodeID{TableID: "orders"},
				Position: diagram.Position{X: 120, Y: 264},
				Rank:     1,
				Data:     diagram.NodeData{Table: &schema.Table{ID: "orders", Name: "orders", SchemaName: "sales"}},
			},
		},
		Diagnostics: []diagram.Diagnostic{{Code: errors.ErrCodeDanglingEdge, Subject: "r9", Message: "endpoint table missing"}},
	}
}

func TestWatchModelShowsDiagram(t *testing.T) {
	m := newWatchModel("shop.yaml")
	if v := m.View(); !strings.Contains(v, "waiting for first layout") {
		t.Errorf("initial view lacks the waiting status:\n%s", v)
	}

	next, cmd := m.Update(diagramMsg{Diagram: watchDiagram(), Builds: 3, At: time.Now()})
	if cmd != nil {
		t.Error("diagramMsg returned a command")
	}
	v := next.View()
	for _, want := range []string{"users", "sales.orders", "240×96", "fallback", "layout #3", "2 tables", "endpoint table missing"} {
		if !strings.Contains(v, want) {
			t.Errorf("view lacks %q:\n%s", want, v)
		}
	}
}

func TestWatchModelFileErrors(t *testing.T) {
	m := newWatchModel("shop.yaml")
	next, _ := m.Update(fileMsg{Path: "/tmp/shop.yaml", Err: stderrors.New("yaml: line 3")})
	if !strings.Contains(next.View(), "shop.yaml: yaml: line 3") {
		t.Errorf("view lacks the reload error:\n%s", next.View())
	}
	next, _ = next.Update(fileMsg{Path: "/tmp/shop.yaml"})
	if next.(WatchModel).LastErr != "" {
		t.Error("successful reload kept the previous error")
	}
}

func TestWatchModelKeys(t *testing.T) {
	m := newWatchModel("shop.yaml")
	m.Height = 1
	next, _ := m.Update(diagramMsg{Diagram: watchDiagram(), Builds: 1, At: time.Now()})

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if got := next.(WatchModel).Offset; got != 1 {
		t.Errorf("offset after j = %d, want 1", got)
	}
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if got := next.(WatchModel).Offset; got != 1 {
		t.Errorf("offset scrolled past the end: %d", got)
	}

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(pipeline.Stats{NodeCount: 1, EdgeCount: 2, Measured: 1, Crossings: 0}, true)
	for _, want := range []string{"1 table", "2 relations", "1 measured", "0 crossings", "cached"} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine lacks %q: %s", want, line)
		}
	}
	if strings.Contains(line, "1 tables") {
		t.Errorf("singular not applied: %s", line)
	}
}
