// Package status implements the optional Status Dashboard (A9): a small
// JSON snapshot written periodically by the running gateway and a
// bubbletea/lipgloss TUI that tails and renders it, grounded on the
// teacher's tui package styling conventions.
package status

import (
	"encoding/json"
	"os"
	"time"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
	"codegateway/internal/tool"
)

// Snapshot is the on-disk status payload the TUI reads.
type Snapshot struct {
	ProjectName string          `json:"project_name"`
	ProjectRoot string          `json:"project_root"`
	Running     []RunningServer `json:"running_servers"`
	GraphStats  symbolgraph.Stats `json:"graph_stats"`
	CacheSize   int             `json:"cache_size"`
	ToolCount   int             `json:"tool_count"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RunningServer describes one active LSP subprocess.
type RunningServer struct {
	Language string `json:"language"`
}

// WriteSnapshot marshals snap as indented JSON to path, overwriting
// whatever was there before (the file is always a point-in-time view,
// never appended to).
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot reads and unmarshals the snapshot at path.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(data, &snap)
	return snap, err
}

// Publisher periodically writes a Snapshot describing the running
// gateway's current state, started as a background goroutine alongside
// the active transport.
type Publisher struct {
	path     string
	registry *tool.Registry
	interval time.Duration
	log      *logging.Logger

	projectName func() (string, string)
	supervisor  func() *lspsupervisor.Supervisor
	graph       func() *symbolgraph.Graph
}

// NewPublisher builds a Publisher writing to path every interval.
// projectName, supervisor, and graph may return zero values when no
// project is active.
func NewPublisher(path string, registry *tool.Registry, interval time.Duration, log *logging.Logger,
	projectName func() (string, string), supervisor func() *lspsupervisor.Supervisor, graph func() *symbolgraph.Graph) *Publisher {
	return &Publisher{
		path: path, registry: registry, interval: interval, log: log,
		projectName: projectName, supervisor: supervisor, graph: graph,
	}
}

// Run publishes snapshots until stop is closed.
func (p *Publisher) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := WriteSnapshot(p.path, p.build()); err != nil {
				p.log.Warnf("status: failed writing snapshot: %v", err)
			}
		}
	}
}

func (p *Publisher) build() Snapshot {
	name, root := p.projectName()
	snap := Snapshot{
		ProjectName: name,
		ProjectRoot: root,
		ToolCount:   p.registry.Len(),
		UpdatedAt:   time.Now(),
	}
	if sup := p.supervisor(); sup != nil {
		for _, lang := range sup.Running() {
			snap.Running = append(snap.Running, RunningServer{Language: lang})
		}
		snap.CacheSize = sup.Cache().Len()
	}
	if g := p.graph(); g != nil {
		snap.GraphStats = g.Stats()
	}
	return snap
}
