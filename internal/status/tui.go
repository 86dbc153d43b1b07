package status

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

const pollInterval = time.Second

type tickMsg time.Time

type snapshotMsg struct {
	snap Snapshot
	err  error
}

// Model is the bubbletea model for `gateway status --attach <path>`: it
// polls the snapshot file on a fixed interval and renders the last
// successfully read Snapshot.
type Model struct {
	path string
	last Snapshot
	err  error
}

// NewModel builds a Model that tails the snapshot at path.
func NewModel(path string) Model {
	return Model{path: path}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(pollCmd(m.path), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(pollCmd(m.path), tickCmd())
	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.last = msg.snap
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("codegateway status"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("waiting for snapshot: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	var body strings.Builder
	fmt.Fprintf(&body, "project:  %s\n", fallback(m.last.ProjectName, "(none active)"))
	fmt.Fprintf(&body, "root:     %s\n", fallback(m.last.ProjectRoot, "-"))
	fmt.Fprintf(&body, "tools:    %d\n", m.last.ToolCount)
	fmt.Fprintf(&body, "cache:    %d entries\n", m.last.CacheSize)
	fmt.Fprintf(&body, "symbols:  %d files, %d unique names, %d entries\n",
		m.last.GraphStats.FileCount, m.last.GraphStats.UniqueSymbolNames, m.last.GraphStats.TotalSymbolEntries)

	fmt.Fprintf(&body, "servers:\n")
	if len(m.last.Running) == 0 {
		body.WriteString("  (none running)\n")
	}
	for _, s := range m.last.Running {
		fmt.Fprintf(&body, "  - %s\n", s.Language)
	}
	fmt.Fprintf(&body, "updated:  %s\n", m.last.UpdatedAt.Format(time.Kitchen))

	b.WriteString(sectionStyle.Render(body.String()))
	b.WriteString("\n\npress q to quit\n")
	return b.String()
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func pollCmd(path string) tea.Cmd {
	return func() tea.Msg {
		snap, err := ReadSnapshot(path)
		return snapshotMsg{snap: snap, err: err}
	}
}
