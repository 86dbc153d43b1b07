package status

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
	"codegateway/internal/tool"
)

func TestWriteReadSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	snap := Snapshot{ProjectName: "demo", ProjectRoot: "/tmp/demo", ToolCount: 9}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.ProjectName != "demo" || got.ToolCount != 9 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPublisherWritesSnapshotOnTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	registry := tool.NewRegistry()
	log := logging.New(io.Discard, logging.LevelError)
	graph := symbolgraph.New()
	sup := lspsupervisor.New(t.TempDir(), 0, log)

	pub := NewPublisher(path, registry, 20*time.Millisecond, log,
		func() (string, string) { return "demo", "/tmp/demo" },
		func() *lspsupervisor.Supervisor { return sup },
		func() *symbolgraph.Graph { return graph },
	)

	stop := make(chan struct{})
	go pub.Run(stop)
	defer close(stop)

	deadline := time.After(2 * time.Second)
	for {
		if snap, err := ReadSnapshot(path); err == nil && snap.ProjectName == "demo" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("snapshot file was never written")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
