package symbolgraph

import "strings"

// Graph is the concurrent Semantic Symbol Index (C4). It maintains two
// shared maps:
//   - fileMap: URI -> ordered top-level symbols for that file
//   - symbolMap: name-path ("Class/method") or simple name -> matching nodes
//
// Mirrors original_source's serena-symbol SymbolGraph (DashMap-backed)
// one-for-one, substituting Go's shardMap for Rust's DashMap.
type Graph struct {
	fileMap   *shardMap[[]*Node]
	symbolMap *shardMap[[]*Node]
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		fileMap:   newShardMap[[]*Node](),
		symbolMap: newShardMap[[]*Node](),
	}
}

// Stats summarizes the graph's current size.
type Stats struct {
	FileCount          int `json:"file_count"`
	UniqueSymbolNames  int `json:"unique_symbol_names"`
	TotalSymbolEntries int `json:"total_symbol_entries"`
}

// InsertDocumentSymbols indexes an LSP documentSymbol response for uri,
// replacing any prior entry for that URI (both in fileMap and every
// symbolMap entry it had contributed) before reinserting.
func (g *Graph) InsertDocumentSymbols(uri string, symbols []DocumentSymbol) {
	g.RemoveFile(uri)

	nodes := make([]*Node, 0, len(symbols))
	for _, sym := range symbols {
		if node := g.processSymbol(sym, uri, ""); node != nil {
			nodes = append(nodes, node)
		}
	}
	g.fileMap.Set(uri, nodes)
}

// processSymbol recursively converts and indexes one DocumentSymbol and its
// children, returning nil (and skipping it) if the symbol's name is empty.
func (g *Graph) processSymbol(sym DocumentSymbol, uri, parentPath string) *Node {
	if sym.Name == "" {
		return nil
	}

	myPath := sym.Name
	if parentPath != "" {
		myPath = parentPath + "/" + sym.Name
	}

	children := make([]*Node, 0, len(sym.Children))
	for _, c := range sym.Children {
		if child := g.processSymbol(c, uri, myPath); child != nil {
			children = append(children, child)
		}
	}

	node := &Node{
		Name:           sym.Name,
		Kind:           sym.Kind,
		URI:            uri,
		Range:          sym.Range,
		SelectionRange: sym.SelectionRange,
		Detail:         sym.Detail,
		Children:       children,
	}

	g.symbolMap.Update(myPath, func(cur []*Node, _ bool) []*Node {
		return append(cur, node.clone())
	})

	// Index under the bare name too, but only if it differs from the full
	// path — avoids a duplicate entry for top-level symbols.
	if myPath != sym.Name {
		g.symbolMap.Update(sym.Name, func(cur []*Node, _ bool) []*Node {
			return append(cur, node.clone())
		})
	}

	return node
}

// RemoveFile deletes uri's entry from fileMap and prunes every symbolMap
// entry contributed by that uri, discarding keys whose value list becomes
// empty.
func (g *Graph) RemoveFile(uri string) {
	if _, ok := g.fileMap.Get(uri); !ok {
		return
	}
	g.fileMap.Delete(uri)
	g.symbolMap.MutateWhere(
		func(_ string, v []*Node) bool { return containsURI(v, uri) },
		func(v []*Node) ([]*Node, bool) {
			filtered := v[:0:0]
			for _, n := range v {
				if n.URI != uri {
					filtered = append(filtered, n)
				}
			}
			return filtered, len(filtered) > 0
		},
	)
}

func containsURI(nodes []*Node, uri string) bool {
	for _, n := range nodes {
		if n.URI == uri {
			return true
		}
	}
	return false
}

// Search looks up an exact key in symbolMap first; if nothing matches, it
// falls back to a substring scan over every key. Results are clones,
// decoupling callers from index mutation.
func (g *Graph) Search(query string) []*Node {
	if exact, ok := g.symbolMap.Get(query); ok {
		return cloneAll(exact)
	}

	var results []*Node
	g.symbolMap.Range(func(key string, v []*Node) bool {
		if strings.Contains(key, query) {
			results = append(results, cloneAll(v)...)
		}
		return true
	})
	return results
}

// SearchCaseInsensitive substring-matches keys and query after
// lower-casing both; it never attempts an exact-match fast path.
func (g *Graph) SearchCaseInsensitive(query string) []*Node {
	lowerQuery := strings.ToLower(query)
	var results []*Node
	g.symbolMap.Range(func(key string, v []*Node) bool {
		if strings.Contains(strings.ToLower(key), lowerQuery) {
			results = append(results, cloneAll(v)...)
		}
		return true
	})
	return results
}

// GetFileSymbols returns the indexed top-level symbols for uri, if any.
func (g *Graph) GetFileSymbols(uri string) ([]*Node, bool) {
	v, ok := g.fileMap.Get(uri)
	if !ok {
		return nil, false
	}
	return cloneAll(v), true
}

// Clear empties both maps.
func (g *Graph) Clear() {
	g.fileMap.Clear()
	g.symbolMap.Clear()
}

// Stats reports current graph size.
func (g *Graph) Stats() Stats {
	total := 0
	g.symbolMap.Range(func(_ string, v []*Node) bool {
		total += len(v)
		return true
	})
	return Stats{
		FileCount:          g.fileMap.Len(),
		UniqueSymbolNames:  g.symbolMap.Len(),
		TotalSymbolEntries: total,
	}
}

func cloneAll(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}
	return out
}
