package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// RegisterShellTool wires the A8 shell collaborator. Unlike loom's
// run_shell/apply_shell propose-then-approve pair, this is a single
// execute_shell_command tool gated by a static config flag: when
// disabled the tool stays registered but answers with a Warning rather
// than being removed from the catalog, so tools/list stays stable across
// configurations.
func RegisterShellTool(registry *Registry, workspaceRoot string, enabled bool) error {
	return registry.Add(Definition{
		Name:        "execute_shell_command",
		Description: "Executes a shell command within the workspace, when shell execution is enabled by configuration",
		CanEdit:     true,
		Tags:        []string{"shell"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command":         map[string]any{"type": "string", "description": "Full command line to run via \"sh -c\""},
				"cwd":             map[string]any{"type": "string", "description": "Working directory relative to workspace root"},
				"timeout_seconds": map[string]any{"type": "integer", "description": "Maximum execution time in seconds, default 60, clamped to 600"},
			},
			"required": []any{"command"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			if !enabled {
				return Warning("shell execution is disabled by configuration"), nil
			}

			var args struct {
				Command        string `json:"command"`
				Cwd            string `json:"cwd"`
				TimeoutSeconds int    `json:"timeout_seconds"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}

			cwd, err := resolveWorkspacePath(workspaceRoot, orDot(args.Cwd))
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			timeout := normalizeShellTimeout(args.TimeoutSeconds)
			runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
			defer cancel()

			cmd := exec.CommandContext(runCtx, "sh", "-c", args.Command)
			cmd.Dir = cwd
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			runErr := cmd.Run()
			exitCode := 0
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else if runErr != nil {
				return ErrorResult(fmt.Sprintf("failed to run command: %v", runErr)), nil
			}

			return Success(map[string]any{
				"command":   args.Command,
				"cwd":       args.Cwd,
				"exit_code": exitCode,
				"stdout":    stdout.String(),
				"stderr":    stderr.String(),
			})
		},
	})
}

func orDot(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func normalizeShellTimeout(seconds int) int {
	if seconds <= 0 {
		return 60
	}
	if seconds > 600 {
		return 600
	}
	return seconds
}
