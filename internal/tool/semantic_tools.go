package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"codegateway/internal/lspsupervisor"
	"codegateway/internal/symbolgraph"
)

// RegisterSemanticTools wires the C4 Semantic Symbol Index and C3 LSP
// Supervisor into the tool catalog's symbol-oriented operations, grounded
// on original_source's serena-lsp/src/tools.rs and serena-symbol
// SymbolGraph consumers.
func RegisterSemanticTools(registry *Registry, root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) error {
	defs := []Definition{
		getSymbolsOverviewDef(root, sup, graph),
		findSymbolDef(root, sup, graph),
		findReferencingSymbolsDef(root, sup),
		replaceSymbolBodyDef(root, sup, graph),
		renameSymbolDef(root, sup, graph),
		insertAfterSymbolDef(root, sup, graph),
		insertBeforeSymbolDef(root, sup, graph),
	}
	for _, def := range defs {
		def.RequiresProject = true
		if err := registry.Add(def); err != nil {
			return fmt.Errorf("registering %s: %w", def.Name, err)
		}
	}
	return nil
}

// languageForPath maps a workspace-relative path to its LSP language via
// the extension table, stripping any leading dot.
func languageForPath(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	lang, ok := lspsupervisor.LanguageForExtension(ext)
	if !ok {
		return "", fmt.Errorf("no LSP server known for extension %q", ext)
	}
	return lang, nil
}

// fetchDocumentSymbols gets (from cache, else via LSP request) and indexes
// the documentSymbol response for uri, returning the graph's cached nodes.
func fetchDocumentSymbols(ctx context.Context, root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph, relPath string) (string, []*symbolgraph.Node, error) {
	lang, err := languageForPath(relPath)
	if err != nil {
		return "", nil, err
	}
	uri := lspsupervisor.PathToURI(filepath.Join(root, relPath))

	params := map[string]any{"textDocument": map[string]any{"uri": uri}}
	if cached, ok := sup.Cache().Get("textDocument/documentSymbol", params); ok {
		var symbols []symbolgraph.DocumentSymbol
		if err := json.Unmarshal(cached, &symbols); err == nil {
			graph.InsertDocumentSymbols(uri, symbols)
			nodes, _ := graph.GetFileSymbols(uri)
			return uri, nodes, nil
		}
	}

	handle, err := sup.GetOrStart(ctx, lang)
	if err != nil {
		return "", nil, err
	}
	defer handle.Release()

	raw, err := handle.Client().Request(ctx, "textDocument/documentSymbol", params)
	if err != nil {
		return "", nil, fmt.Errorf("documentSymbol request failed: %w", err)
	}
	sup.Cache().Insert("textDocument/documentSymbol", params, raw)

	var symbols []symbolgraph.DocumentSymbol
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return "", nil, fmt.Errorf("parsing documentSymbol response: %w", err)
	}
	graph.InsertDocumentSymbols(uri, symbols)
	nodes, _ := graph.GetFileSymbols(uri)
	return uri, nodes, nil
}

func getSymbolsOverviewDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "get_symbols_overview",
		Description: "Returns the top-level symbols declared in a file, indexing them into the symbol graph as a side effect",
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []any{"path"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			_, nodes, err := fetchDocumentSymbols(ctx, root, sup, graph, args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			return Success(map[string]any{"path": args.Path, "symbols": nodes})
		},
	}
}

func findSymbolDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "find_symbol",
		Description: "Finds symbols by name or name-path in the symbol graph; optionally indexes a file first",
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name_path": map[string]any{"type": "string"},
				"path":      map[string]any{"type": "string", "description": "Optional file to index before searching"},
			},
			"required": []any{"name_path"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				NamePath string `json:"name_path"`
				Path     string `json:"path"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			if args.Path != "" {
				if _, _, err := fetchDocumentSymbols(ctx, root, sup, graph, args.Path); err != nil {
					return ErrorResult(err.Error()), nil
				}
			}
			matches := graph.Search(args.NamePath)
			return Success(map[string]any{"name_path": args.NamePath, "matches": matches, "count": len(matches)})
		},
	}
}

func findReferencingSymbolsDef(root string, sup *lspsupervisor.Supervisor) Definition {
	return Definition{
		Name:        "find_referencing_symbols",
		Description: "Finds references to the symbol at a given file position via the language server",
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":      map[string]any{"type": "string"},
				"line":      map[string]any{"type": "integer"},
				"character": map[string]any{"type": "integer"},
			},
			"required": []any{"path", "line", "character"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				Path      string `json:"path"`
				Line      int    `json:"line"`
				Character int    `json:"character"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			lang, err := languageForPath(args.Path)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			uri := lspsupervisor.PathToURI(filepath.Join(root, args.Path))
			params := map[string]any{
				"textDocument": map[string]any{"uri": uri},
				"position":     map[string]any{"line": args.Line, "character": args.Character},
				"context":      map[string]any{"includeDeclaration": true},
			}

			if cached, ok := sup.Cache().Get("textDocument/references", params); ok {
				var refs any
				_ = json.Unmarshal(cached, &refs)
				return Success(map[string]any{"references": refs})
			}

			handle, err := sup.GetOrStart(ctx, lang)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			defer handle.Release()

			result, err := handle.Client().Request(ctx, "textDocument/references", params)
			if err != nil {
				return ErrorResult(fmt.Sprintf("references request failed: %v", err)), nil
			}
			sup.Cache().Insert("textDocument/references", params, result)

			var refs any
			_ = json.Unmarshal(result, &refs)
			return Success(map[string]any{"references": refs})
		},
	}
}

// locateSymbol finds the unique node matching namePath, re-indexing path
// first when it is non-empty.
func locateSymbol(ctx context.Context, root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph, path, namePath string) (*symbolgraph.Node, error) {
	if path != "" {
		if _, _, err := fetchDocumentSymbols(ctx, root, sup, graph, path); err != nil {
			return nil, err
		}
	}
	matches := graph.Search(namePath)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no symbol found matching %q", namePath)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("symbol %q is ambiguous (%d matches); disambiguate with a fuller name-path", namePath, len(matches))
	}
	return matches[0], nil
}

func symbolFilePath(root string, node *symbolgraph.Node) string {
	abs := lspsupervisor.URIToPath(node.URI)
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return rel
}

func replaceSymbolBodyDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "replace_symbol_body",
		Description: "Replaces the full source range of a symbol with new text",
		CanEdit:     true,
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name_path": map[string]any{"type": "string"},
				"path":      map[string]any{"type": "string", "description": "Optional file to index before locating the symbol"},
				"body":      map[string]any{"type": "string"},
			},
			"required": []any{"name_path", "body"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				NamePath string `json:"name_path"`
				Path     string `json:"path"`
				Body     string `json:"body"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			node, err := locateSymbol(ctx, root, sup, graph, args.Path, args.NamePath)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			relPath := symbolFilePath(root, node)
			resolved, err := resolveWorkspacePath(root, relPath)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			lines, err := readLines(resolved)
			if err != nil {
				return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
			}
			startLine := int(node.Range.Start.Line)
			endLine := int(node.Range.End.Line)
			if startLine < 0 || endLine >= len(lines) || endLine < startLine {
				return ErrorResult("symbol range is out of bounds for its current file contents"), nil
			}
			replaced := append([]string{}, lines[:startLine]...)
			replaced = append(replaced, strings.Split(args.Body, "\n")...)
			replaced = append(replaced, lines[endLine+1:]...)
			if err := writeLines(resolved, replaced); err != nil {
				return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
			}
			graph.RemoveFile(node.URI)
			sup.Cache().InvalidateMethod("textDocument/documentSymbol")
			return Success(map[string]any{"name_path": args.NamePath, "path": relPath})
		},
	}
}

func renameSymbolDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "rename_symbol",
		Description: "Renames a symbol project-wide via the language server's rename facility, applying the returned workspace edit",
		CanEdit:     true,
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name_path": map[string]any{"type": "string"},
				"path":      map[string]any{"type": "string", "description": "Optional file to index before locating the symbol"},
				"new_name":  map[string]any{"type": "string"},
			},
			"required": []any{"name_path", "new_name"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (*Result, error) {
			var args struct {
				NamePath string `json:"name_path"`
				Path     string `json:"path"`
				NewName  string `json:"new_name"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			node, err := locateSymbol(ctx, root, sup, graph, args.Path, args.NamePath)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			relPath := symbolFilePath(root, node)
			lang, err := languageForPath(relPath)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			handle, err := sup.GetOrStart(ctx, lang)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}
			defer handle.Release()

			params := map[string]any{
				"textDocument": map[string]any{"uri": node.URI},
				"position":     map[string]any{"line": node.SelectionRange.Start.Line, "character": node.SelectionRange.Start.Character},
				"newName":      args.NewName,
			}
			result, err := handle.Client().Request(ctx, "textDocument/rename", params)
			if err != nil {
				return ErrorResult(fmt.Sprintf("rename request failed: %v", err)), nil
			}

			applied, err := applyWorkspaceEdit(root, result)
			if err != nil {
				return ErrorResult(fmt.Sprintf("applying workspace edit: %v", err)), nil
			}
			for uri := range applied {
				graph.RemoveFile(uri)
			}
			sup.Cache().InvalidateMethod("textDocument/documentSymbol")
			return Success(map[string]any{"name_path": args.NamePath, "new_name": args.NewName, "files_changed": len(applied)})
		},
	}
}

// workspaceEditTextEdit is one LSP TextEdit.
type workspaceEditTextEdit struct {
	Range   symbolgraph.Range `json:"range"`
	NewText string            `json:"newText"`
}

// applyWorkspaceEdit applies a WorkspaceEdit's `changes` map (uri -> []TextEdit)
// to files on disk, returning the set of URIs touched. Edits within a file
// are applied from the bottom up so earlier-line edits don't shift
// later-line ranges (a standard LSP client responsibility).
func applyWorkspaceEdit(root string, raw json.RawMessage) (map[string]bool, error) {
	var edit struct {
		Changes map[string][]workspaceEditTextEdit `json:"changes"`
	}
	if err := json.Unmarshal(raw, &edit); err != nil {
		return nil, err
	}

	touched := make(map[string]bool, len(edit.Changes))
	for uri, edits := range edit.Changes {
		if len(edits) == 0 {
			continue
		}
		abs := lspsupervisor.URIToPath(uri)
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			rel = abs
		}
		resolved, err := resolveWorkspacePath(root, rel)
		if err != nil {
			return nil, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}

		sortedEdits := append([]workspaceEditTextEdit{}, edits...)
		sortTextEditsDescending(sortedEdits)

		for _, e := range sortedEdits {
			lines = applySingleTextEdit(lines, e)
		}
		if err := writeLines(resolved, lines); err != nil {
			return nil, fmt.Errorf("writing %s: %w", rel, err)
		}
		touched[uri] = true
	}
	return touched, nil
}

func sortTextEditsDescending(edits []workspaceEditTextEdit) {
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j].Range.Start.Line > edits[j-1].Range.Start.Line; j-- {
			edits[j], edits[j-1] = edits[j-1], edits[j]
		}
	}
}

func applySingleTextEdit(lines []string, e workspaceEditTextEdit) []string {
	startLine := int(e.Range.Start.Line)
	endLine := int(e.Range.End.Line)
	if startLine < 0 || startLine >= len(lines) || endLine >= len(lines) || endLine < startLine {
		return lines
	}
	startChar := int(e.Range.Start.Character)
	endChar := int(e.Range.End.Character)

	before := lines[startLine]
	if startChar > len(before) {
		startChar = len(before)
	}
	after := lines[endLine]
	if endChar > len(after) {
		endChar = len(after)
	}

	merged := before[:startChar] + e.NewText + after[endChar:]
	newLines := strings.Split(merged, "\n")

	result := append([]string{}, lines[:startLine]...)
	result = append(result, newLines...)
	result = append(result, lines[endLine+1:]...)
	return result
}

func insertAfterSymbolDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "insert_after_symbol",
		Description: "Inserts text immediately after a symbol's source range",
		CanEdit:     true,
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name_path": map[string]any{"type": "string"},
				"path":      map[string]any{"type": "string"},
				"text":      map[string]any{"type": "string"},
			},
			"required": []any{"name_path", "text"},
		},
		Handler: insertRelativeToSymbolHandler(root, sup, graph, false),
	}
}

func insertBeforeSymbolDef(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph) Definition {
	return Definition{
		Name:        "insert_before_symbol",
		Description: "Inserts text immediately before a symbol's source range",
		CanEdit:     true,
		Tags:        []string{"symbol"},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name_path": map[string]any{"type": "string"},
				"path":      map[string]any{"type": "string"},
				"text":      map[string]any{"type": "string"},
			},
			"required": []any{"name_path", "text"},
		},
		Handler: insertRelativeToSymbolHandler(root, sup, graph, true),
	}
}

func insertRelativeToSymbolHandler(root string, sup *lspsupervisor.Supervisor, graph *symbolgraph.Graph, before bool) Handler {
	return func(ctx context.Context, raw json.RawMessage) (*Result, error) {
		var args struct {
			NamePath string `json:"name_path"`
			Path     string `json:"path"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return ErrorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		node, err := locateSymbol(ctx, root, sup, graph, args.Path, args.NamePath)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}
		relPath := symbolFilePath(root, node)
		resolved, err := resolveWorkspacePath(root, relPath)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}
		lines, err := readLines(resolved)
		if err != nil {
			return ErrorResult(fmt.Sprintf("failed to read file: %v", err)), nil
		}

		insertLine := int(node.Range.End.Line) + 1
		if before {
			insertLine = int(node.Range.Start.Line)
		}
		if insertLine < 0 || insertLine > len(lines) {
			return ErrorResult("symbol range is out of bounds for its current file contents"), nil
		}

		result := append([]string{}, lines[:insertLine]...)
		result = append(result, strings.Split(args.Text, "\n")...)
		result = append(result, lines[insertLine:]...)
		if err := writeLines(resolved, result); err != nil {
			return ErrorResult(fmt.Sprintf("failed to write file: %v", err)), nil
		}

		graph.RemoveFile(node.URI)
		sup.Cache().InvalidateMethod("textDocument/documentSymbol")
		return Success(map[string]any{"name_path": args.NamePath, "path": relPath})
	}
}
