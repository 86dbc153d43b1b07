package lspsupervisor

import (
	"path/filepath"
	"runtime"
	"strings"
)

// PathToURI constructs a file:// URI from an absolute path. POSIX paths
// become "file://{absolute-posix-path}"; Windows paths become
// "file:///{drive}:/..." with backslashes normalized to forward slashes
// and any "\\?\" long-path prefix stripped first.
func PathToURI(path string) string {
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, `\\?\`)
		path = filepath.ToSlash(path)
		path = strings.TrimPrefix(path, "/")
		return "file:///" + path
	}
	return "file://" + path
}

// URIToPath reverses PathToURI, for tools that need a filesystem path back
// from an LSP-facing URI.
func URIToPath(uri string) string {
	if runtime.GOOS == "windows" {
		p := strings.TrimPrefix(uri, "file:///")
		return filepath.FromSlash(p)
	}
	return strings.TrimPrefix(uri, "file://")
}
