package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// ignoreDirNames and ignoreFileSuffixes mirror original_source's
// serena-config/src/project.rs default ignore_patterns.
var ignoreDirNames = map[string]bool{
	"node_modules": true, ".git": true, ".serena": true, "target": true,
	"build": true, "dist": true, "__pycache__": true, ".venv": true,
	"venv": true, ".mypy_cache": true, ".pytest_cache": true,
	"coverage": true,
}

var ignoreFileSuffixes = []string{".pyc", ".coverage"}

// DefaultMaxFileSize is original_source's 10 MiB default, superseding the
// teacher's smaller LLM-context-sized default.
const DefaultMaxFileSize = 10 * 1024 * 1024

// resolveWorkspacePath confines a tool-supplied relative or absolute path
// to workspaceRoot using securejoin, the same path-confinement primitive
// loom depends on transitively via go-git. Escape attempts ("..",
// symlinks, or an absolute path) are not errors: they are resolved as if
// workspaceRoot were the filesystem root, so the result stays inside it.
func resolveWorkspacePath(workspaceRoot, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	resolved, err := securejoin.SecureJoin(workspaceRoot, path)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}
	return resolved, nil
}

// IsIgnoredDirName reports whether a bare directory name (not a path) is
// one of the fixed ignore-list entries, exported so other packages walking
// a workspace (e.g. project language detection) apply the same exclusions
// as the file tools without duplicating the list.
func IsIgnoredDirName(name string) bool {
	return ignoreDirNames[name]
}

func shouldIgnore(relPath string) bool {
	slashPath := filepath.ToSlash(relPath)
	for _, part := range strings.Split(slashPath, "/") {
		if ignoreDirNames[part] {
			return true
		}
	}
	for _, suffix := range ignoreFileSuffixes {
		if strings.HasSuffix(slashPath, suffix) {
			return true
		}
	}
	return false
}

func checkFileSize(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxSize {
		return fmt.Errorf("file %q exceeds max_file_size (%d > %d bytes)", path, info.Size(), maxSize)
	}
	return nil
}
