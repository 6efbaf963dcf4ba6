package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/erdflow/pkg/diagram"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	measuredStyle = lipgloss.NewStyle().Foreground(colorGreen)
	fallbackStyle = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Messages
// =============================================================================

// diagramMsg carries a published diagram into the watch view.
type diagramMsg struct {
	Diagram diagram.Diagram
	Builds  int
	At      time.Time
}

// fileMsg reports the reload of a watched file.
type fileMsg struct {
	Path string
	Err  error
}

// =============================================================================
// WatchModel - Live table of the laid out diagram
// =============================================================================

// WatchModel is the bubbletea model of the watch command. It lists every
// table with its rank, center and size, followed by the diagnostics of the
// last build.
type WatchModel struct {
	File    string
	Diagram diagram.Diagram
	Builds  int
	Updated time.Time
	LastErr string

	Height int
	Offset int
}

func newWatchModel(file string) WatchModel {
	return WatchModel{File: file, Height: 15}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < len(m.Diagram.Nodes)-m.Height {
				m.Offset++
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
	case diagramMsg:
		m.Diagram = msg.Diagram
		m.Builds = msg.Builds
		m.Updated = msg.At
		m.Offset = min(m.Offset, max(len(m.Diagram.Nodes)-m.Height, 0))
	case fileMsg:
		m.LastErr = ""
		if msg.Err != nil {
			m.LastErr = fmt.Sprintf("%s: %v", filepath.Base(msg.Path), msg.Err)
		}
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("erdflow watch"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.File))
	b.WriteString("\n")
	status := "waiting for first layout"
	if !m.Updated.IsZero() {
		status = fmt.Sprintf("layout #%d at %s · %s · %s",
			m.Builds, m.Updated.Format("15:04:05"),
			plural(len(m.Diagram.Nodes), "table"), plural(len(m.Diagram.Edges), "relation"))
	}
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Diagram.Nodes))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		n := m.Diagram.Nodes[i]
		rows = append(rows, []string{
			tableName(n),
			fmt.Sprint(n.Rank),
			fmt.Sprintf("%.0f", n.Position.X),
			fmt.Sprintf("%.0f", n.Position.Y),
			sizeLabel(n.Size),
		})
	}
	nodes := m.Diagram.Nodes
	offset := m.Offset
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Table", "Rank", "X", "Y", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 4 && offset+row < len(nodes) {
				if nodes[offset+row].Size != nil {
					return measuredStyle
				}
				return fallbackStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(nodes) > m.Height {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d-%d/%d]", m.Offset+1, end, len(nodes))))
		b.WriteString("\n")
	}
	for _, d := range m.Diagram.Diagnostics {
		line := d.Message
		if d.Subject != "" {
			line = d.Subject + ": " + line
		}
		b.WriteString(StyleWarning.Render(iconWarning + " " + line))
		b.WriteString("\n")
	}
	if m.LastErr != "" {
		b.WriteString(errorStyle.Render(iconError + " " + m.LastErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ scroll  q quit"))
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func tableName(n diagram.Node) string {
	if n.Data.Table != nil {
		return n.Data.Table.DisplayName()
	}
	return n.ID.TableID
}

func sizeLabel(sz *diagram.Size) string {
	if sz == nil {
		return "fallback"
	}
	return fmt.Sprintf("%.0f×%.0f", sz.Width, sz.Height)
}
