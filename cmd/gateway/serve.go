package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codegateway/internal/config"
	"codegateway/internal/logging"
	"codegateway/internal/lspsupervisor"
	"codegateway/internal/memorystore"
	"codegateway/internal/project"
	"codegateway/internal/status"
	"codegateway/internal/symbolgraph"
	"codegateway/internal/tool"
	"codegateway/internal/transport"
	"codegateway/internal/watch"
)

const statusSnapshotInterval = 2 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func runServe(cfg *config.Config) error {
	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	registry := tool.NewRegistry()
	if err := tool.RegisterFileTools(registry, workspaceOrCwd(cfg.ProjectPath), cfg.MaxFileSize); err != nil {
		return fmt.Errorf("registering file tools: %w", err)
	}
	if err := tool.RegisterShellTool(registry, workspaceOrCwd(cfg.ProjectPath), cfg.EnableShell); err != nil {
		return fmt.Errorf("registering shell tool: %w", err)
	}

	store, err := memorystore.Open(workspaceOrCwd(cfg.ProjectPath))
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer store.Close()
	if err := tool.RegisterMemoryTools(registry, store); err != nil {
		return fmt.Errorf("registering memory tools: %w", err)
	}
	if err := tool.RegisterWorkflowTools(registry, store); err != nil {
		return fmt.Errorf("registering workflow tools: %w", err)
	}

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	activator := project.New(registry, cacheTTL, log)
	var activeWatcher *watch.Watcher

	if cfg.ProjectPath != "" {
		proj, err := activator.Activate(context.Background(), cfg.ProjectPath)
		if err != nil {
			log.Warnf("serve: failed to activate project %s: %v", cfg.ProjectPath, err)
		} else {
			activeWatcher = watch.New(proj.RootPath, proj.Supervisor, proj.Graph, log)
			if err := activeWatcher.Start(); err != nil {
				log.Warnf("serve: failed to start file watcher: %v", err)
				activeWatcher = nil
			}
		}
	}

	stopStatus := make(chan struct{})
	snapshotPath := filepath.Join(os.TempDir(), "codegateway-status.json")
	publisher := status.NewPublisher(snapshotPath, registry, statusSnapshotInterval, log,
		func() (string, string) {
			if p := activator.Active(); p != nil {
				return p.Name, p.RootPath
			}
			return "", ""
		},
		func() *lspsupervisor.Supervisor {
			if p := activator.Active(); p != nil {
				return p.Supervisor
			}
			return nil
		},
		func() *symbolgraph.Graph {
			if p := activator.Active(); p != nil {
				return p.Graph
			}
			return nil
		},
	)
	go publisher.Run(stopStatus)

	dispatcher := tool.NewDispatcher(registry, tool.ServerInfo{Name: "codegateway", Version: "dev"})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("serve: received shutdown signal")
		close(stopStatus)
		if activeWatcher != nil {
			activeWatcher.Stop()
		}
		activator.Deactivate(context.Background())
		cancel()
	}()

	switch cfg.Transport {
	case "http":
		h := transport.NewHTTP(dispatcher, log, cfg.MaxBodyBytes)
		return h.ListenAndServe(cfg.ListenAddr)
	default:
		s := transport.NewStdio(dispatcher, log)
		return s.Serve(ctx, os.Stdin, os.Stdout)
	}
}

func workspaceOrCwd(path string) string {
	if path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
