package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// RegisterFileTools wires the A6 file collaborators into the tool
// registry, confined to workspaceRoot via pathguard's resolveWorkspacePath.
// maxFileSize caps how large a file read_file will read; a non-positive
// value falls back to DefaultMaxFileSize. Grounded on loom's
// internal/tool/read.go, dir.go and search.go, generalized onto
// securejoin-based confinement instead of loom's filepath.Join +
// strings.HasPrefix check.
func RegisterFileTools(registry *Registry, workspaceRoot string, maxFileSize int64) error {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	defs := []Definition{
		readFileDef(workspaceRoot, maxFileSize),
		createTextFileDef(workspaceRoot),
		listDirectoryDef(workspaceRoot),
		findFileDef(workspaceRoot),
		searchFilesDef(workspaceRoot),
		replaceContentDef(workspaceRoot),
		deleteLinesDef(workspaceRoot),
		insertAtLineDef(workspaceRoot),
		replaceLinesDef(workspaceRoot),
	}
	for _, def := range defs {
		if err := registry.Add(def); err != nil {
			return fmt.Errorf("registering %s: %w", def.Name, err)
		}
	}
	return nil
}

// readFile ---------------------------------------------------------------

type readFileArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func readFileDef(root string, maxFileSize int64) Definition {
	return Definition{
		Name:        "read_file",
		Description: "Reads the content of a file in the workspace, optionally sliced by line range",
		CanEdit:     false,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":   map[string]any{"type": "string", "description": "Path relative to the workspace root"},
				"offset": map[string]any{"type": "integer", "description": "0-indexed line to start from"},
				"limit":  map[string]any{"type": "integer", "description": "Maximum number of lines to return"},
			},
			"required": []any{"path"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args readFileArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}

			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			if shouldIgnore(args.Path) {
				return ErrorResult(fmt.Sprintf("path %q is excluded by ignore rules", args.Path)), nil
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("file not found: %s", args.Path)), nil
			}
			if info.IsDir() {
				return ErrorResult("cannot read a directory with read_file"), nil
			}
			if err := checkFileSize(resolved, maxFileSize); err != nil {
				return ErrorResult(err.Error()), nil
			}

			content, err := os.ReadFile(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}

			lines := strings.Split(string(content), "\n")
			total := len(lines)
			start := 0
			if args.Offset > 0 {
				start = args.Offset
			}
			if start > total {
				start = total
			}
			end := total
			if args.Limit > 0 && start+args.Limit < end {
				end = start + args.Limit
			}

			return Success(map[string]any{
				"path":        args.Path,
				"content":     strings.Join(lines[start:end], "\n"),
				"total_lines": total,
				"start_line":  start,
				"end_line":    end,
			})
		},
	}
}

// create_text_file --------------------------------------------------------

type createTextFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func createTextFileDef(root string) Definition {
	return Definition{
		Name:        "create_text_file",
		Description: "Creates or overwrites a text file in the workspace",
		CanEdit:     true,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
			"required": []any{"path", "content"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args createTextFileArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
				return ErrorResult(fmt.Sprintf("failed to create parent directories: %v", err)), nil
			}
			if err := os.WriteFile(resolved, []byte(args.Content), 0o644); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			return Success(map[string]any{"path": args.Path, "bytes_written": len(args.Content)})
		},
	}
}

// list_directory -----------------------------------------------------------

func listDirectoryDef(root string) Definition {
	return Definition{
		Name:        "list_directory",
		Description: "Lists the entries of a directory in the workspace",
		CanEdit:     false,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Directory path relative to workspace root, defaults to \".\""},
			},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path string `json:"path"`
			}
			_ = json.Unmarshal(raw, &args)
			if args.Path == "" {
				args.Path = "."
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			entries, err := os.ReadDir(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read directory: %v", err)), nil
			}

			type entry struct {
				Name  string `json:"name"`
				IsDir bool   `json:"is_dir"`
				Size  int64  `json:"size,omitempty"`
			}
			out := make([]entry, 0, len(entries))
			for _, e := range entries {
				if shouldIgnore(e.Name()) {
					continue
				}
				var size int64
				if info, err := e.Info(); err == nil && !e.IsDir() {
					size = info.Size()
				}
				out = append(out, entry{Name: e.Name(), IsDir: e.IsDir(), Size: size})
			}
			sort.Slice(out, func(i, j int) bool {
				if out[i].IsDir != out[j].IsDir {
					return out[i].IsDir
				}
				return out[i].Name < out[j].Name
			})
			return Success(map[string]any{"path": args.Path, "entries": out})
		},
	}
}

// find_file ------------------------------------------------------------------

func findFileDef(root string) Definition {
	return Definition{
		Name:        "find_file",
		Description: "Finds files in the workspace whose name matches a glob pattern",
		CanEdit:     false,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "Glob pattern, e.g. \"*.go\""},
				"path":    map[string]any{"type": "string", "description": "Directory to search under, defaults to workspace root"},
			},
			"required": []any{"pattern"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Pattern string `json:"pattern"`
				Path    string `json:"path"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if args.Path == "" {
				args.Path = "."
			}
			searchRoot, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			var matches []string
			err = filepath.WalkDir(searchRoot, func(p string, d os.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				rel, relErr := filepath.Rel(root, p)
				if relErr != nil {
					return nil
				}
				if d.IsDir() {
					if shouldIgnore(rel) {
						return filepath.SkipDir
					}
					return nil
				}
				if shouldIgnore(rel) {
					return nil
				}
				if ok, _ := filepath.Match(args.Pattern, d.Name()); ok {
					matches = append(matches, rel)
				}
				return nil
			})
			if err != nil {
				return ErrorResult(fmt.Sprintf("walk failed: %v", err)), nil
			}
			return Success(map[string]any{"matches": matches, "count": len(matches)})
		},
	}
}

// search_files ----------------------------------------------------------------
// Grounded on loom's ripgrep-backed indexer (internal/tool/search.go),
// reimplemented here as a direct `rg` subprocess invocation rather than a
// standalone indexer package, since no persistent index survived the
// rework.

type ripgrepMatch struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func searchFilesDef(root string) Definition {
	return Definition{
		Name:        "search_files",
		Description: "Searches file contents in the workspace for a regular expression using ripgrep",
		CanEdit:     false,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":        map[string]any{"type": "string"},
				"file_pattern": map[string]any{"type": "string", "description": "Optional glob to restrict which files are searched"},
				"max_results":  map[string]any{"type": "integer"},
			},
			"required": []any{"query"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Query       string `json:"query"`
				FilePattern string `json:"file_pattern"`
				MaxResults  int    `json:"max_results"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if args.MaxResults <= 0 {
				args.MaxResults = 50
			}

			rgArgs := []string{"--line-number", "--no-heading", "--color=never"}
			for dir := range ignoreDirNames {
				rgArgs = append(rgArgs, "--glob", "!"+dir)
			}
			if args.FilePattern != "" {
				rgArgs = append(rgArgs, "--glob", args.FilePattern)
			}
			rgArgs = append(rgArgs, args.Query, root)

			cmd := exec.CommandContext(ctx, "rg", rgArgs...)
			stdout, err := cmd.StdoutPipe()
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to start ripgrep: %v", err)), nil
			}
			if err := cmd.Start(); err != nil {
				return ErrorResult(fmt.Sprintf("failed to start ripgrep: %v", err)), nil
			}

			var matches []ripgrepMatch
			scanner := bufio.NewScanner(stdout)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() && len(matches) < args.MaxResults {
				line := scanner.Text()
				parts := strings.SplitN(line, ":", 3)
				if len(parts) != 3 {
					continue
				}
				rel, relErr := filepath.Rel(root, parts[0])
				if relErr != nil {
					rel = parts[0]
				}
				var lineNo int
				fmt.Sscanf(parts[1], "%d", &lineNo)
				matches = append(matches, ripgrepMatch{Path: rel, Line: lineNo, Content: parts[2]})
			}
			_ = cmd.Wait()

			return Success(map[string]any{"matches": matches, "total": len(matches), "query": args.Query})
		},
	}
}

// replace_content --------------------------------------------------------------

func replaceContentDef(root string) Definition {
	return Definition{
		Name:        "replace_content",
		Description: "Replaces every occurrence of a literal substring in a file",
		CanEdit:     true,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string"},
				"find": map[string]any{"type": "string"},
				"with": map[string]any{"type": "string"},
			},
			"required": []any{"path", "find"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path string `json:"path"`
				Find string `json:"find"`
				With string `json:"with"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			content, err := os.ReadFile(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}
			count := strings.Count(string(content), args.Find)
			if count == 0 {
				return Warning(fmt.Sprintf("no occurrences of %q found in %s", args.Find, args.Path)), nil
			}
			replaced := strings.ReplaceAll(string(content), args.Find, args.With)
			if err := os.WriteFile(resolved, []byte(replaced), 0o644); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			return Success(map[string]any{"path": args.Path, "replacements": count})
		},
	}
}

// delete_lines / insert_at_line / replace_lines share the read-modify-write
// pattern below, grounded on loom's loom_edit line-oriented patch
// tools (now removed from this tree) generalized onto plain line slices.

func readLines(resolved string) ([]string, error) {
	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(content), "\n"), nil
}

func writeLines(resolved string, lines []string) error {
	return os.WriteFile(resolved, []byte(strings.Join(lines, "\n")), 0o644)
}

func deleteLinesDef(root string) Definition {
	return Definition{
		Name:        "delete_lines",
		Description: "Deletes a 1-indexed, inclusive range of lines from a file",
		CanEdit:     true,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":       map[string]any{"type": "string"},
				"start_line": map[string]any{"type": "integer"},
				"end_line":   map[string]any{"type": "integer"},
			},
			"required": []any{"path", "start_line", "end_line"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path      string `json:"path"`
				StartLine int    `json:"start_line"`
				EndLine   int    `json:"end_line"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			lines, err := readLines(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}
			if args.StartLine < 1 || args.EndLine < args.StartLine || args.EndLine > len(lines) {
				return ErrorResult(fmt.Sprintf("line range %d-%d out of bounds (file has %d lines)", args.StartLine, args.EndLine, len(lines))), nil
			}
			remaining := append(append([]string{}, lines[:args.StartLine-1]...), lines[args.EndLine:]...)
			if err := writeLines(resolved, remaining); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			return Success(map[string]any{"path": args.Path, "lines_deleted": args.EndLine - args.StartLine + 1})
		},
	}
}

func insertAtLineDef(root string) Definition {
	return Definition{
		Name:        "insert_at_line",
		Description: "Inserts text after the given 1-indexed line of a file (0 to prepend at file start)",
		CanEdit:     true,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string"},
				"line": map[string]any{"type": "integer"},
				"text": map[string]any{"type": "string"},
			},
			"required": []any{"path", "line", "text"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path string `json:"path"`
				Line int    `json:"line"`
				Text string `json:"text"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			lines, err := readLines(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}
			if args.Line < 0 || args.Line > len(lines) {
				return ErrorResult(fmt.Sprintf("line %d out of bounds (file has %d lines)", args.Line, len(lines))), nil
			}
			inserted := append([]string{}, lines[:args.Line]...)
			inserted = append(inserted, strings.Split(args.Text, "\n")...)
			inserted = append(inserted, lines[args.Line:]...)
			if err := writeLines(resolved, inserted); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			return Success(map[string]any{"path": args.Path, "inserted_before_line": args.Line})
		},
	}
}

func replaceLinesDef(root string) Definition {
	return Definition{
		Name:        "replace_lines",
		Description: "Replaces a 1-indexed, inclusive range of lines in a file with new text",
		CanEdit:     true,
		Tags:        []string{"file"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":       map[string]any{"type": "string"},
				"start_line": map[string]any{"type": "integer"},
				"end_line":   map[string]any{"type": "integer"},
				"text":       map[string]any{"type": "string"},
			},
			"required": []any{"path", "start_line", "end_line", "text"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path      string `json:"path"`
				StartLine int    `json:"start_line"`
				EndLine   int    `json:"end_line"`
				Text      string `json:"text"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			resolved, err := resolveWorkspacePath(root, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			lines, err := readLines(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}
			if args.StartLine < 1 || args.EndLine < args.StartLine || args.EndLine > len(lines) {
				return ErrorResult(fmt.Sprintf("line range %d-%d out of bounds (file has %d lines)", args.StartLine, args.EndLine, len(lines))), nil
			}
			replaced := append([]string{}, lines[:args.StartLine-1]...)
			replaced = append(replaced, strings.Split(args.Text, "\n")...)
			replaced = append(replaced, lines[args.EndLine:]...)
			if err := writeLines(resolved, replaced); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			return Success(map[string]any{"path": args.Path, "lines_replaced": args.EndLine - args.StartLine + 1})
		},
	}
}
