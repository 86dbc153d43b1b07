package lspsupervisor

import "log"

// Descriptor is the fixed command+argv+extensions triple for one language's
// LSP server, grounded on original_source's serena-lsp languages table
// and serena-config/src/language.rs.
type Descriptor struct {
	Language   string
	Command    string
	Args       []string
	Extensions []string
}

// descriptors is the build-time static Language -> LSP descriptor table.
// Extension ambiguity (the same extension claimed by more than one
// language, e.g. ".m") is resolved by keeping the first-listed language's
// descriptor and logging a warning when the lookup tables are built.
var descriptors = []Descriptor{
	{"rust", "rust-analyzer", nil, []string{"rs"}},
	{"python", "pyright-langserver", []string{"--stdio"}, []string{"py", "pyi", "pyw"}},
	{"typescript", "typescript-language-server", []string{"--stdio"}, []string{"ts", "tsx"}},
	{"javascript", "typescript-language-server", []string{"--stdio"}, []string{"js", "jsx", "mjs", "cjs"}},
	{"go", "gopls", nil, []string{"go"}},
	{"c", "clangd", nil, []string{"c", "h"}},
	{"cpp", "clangd", nil, []string{"cpp", "cc", "cxx", "hpp", "hh"}},
	{"java", "jdtls", nil, []string{"java"}},
	{"csharp", "omnisharp", []string{"-lsp"}, []string{"cs"}},
	{"ruby", "solargraph", []string{"stdio"}, []string{"rb"}},
	{"php", "intelephense", []string{"--stdio"}, []string{"php"}},
	{"kotlin", "kotlin-language-server", nil, []string{"kt", "kts"}},
	{"swift", "sourcekit-lsp", nil, []string{"swift"}},
	{"scala", "metals", nil, []string{"scala", "sc"}},
	{"haskell", "haskell-language-server-wrapper", []string{"--lsp"}, []string{"hs"}},
	{"lua", "lua-language-server", nil, []string{"lua"}},
	{"elixir", "elixir-ls", nil, []string{"ex", "exs"}},
	{"clojure", "clojure-lsp", nil, []string{"clj", "cljs", "cljc"}},
	{"dart", "dart", []string{"language-server"}, []string{"dart"}},
	{"zig", "zls", nil, []string{"zig"}},
	{"bash", "bash-language-server", []string{"start"}, []string{"sh", "bash"}},
	{"yaml", "yaml-language-server", []string{"--stdio"}, []string{"yaml", "yml"}},
	{"json", "vscode-json-language-server", []string{"--stdio"}, []string{"json"}},
	{"html", "vscode-html-language-server", []string{"--stdio"}, []string{"html", "htm"}},
	{"css", "vscode-css-language-server", []string{"--stdio"}, []string{"css", "scss", "less"}},
	{"terraform", "terraform-ls", []string{"serve"}, []string{"tf"}},
	{"docker", "docker-langserver", []string{"--stdio"}, []string{"dockerfile"}},
	{"erlang", "erlang_ls", nil, []string{"erl", "hrl"}},
	{"r", "r-languageserver", nil, []string{"r", "R"}},
}

var (
	byLanguage  = map[string]Descriptor{}
	byExtension = map[string]Descriptor{}
)

func init() {
	for _, d := range descriptors {
		byLanguage[d.Language] = d
		for _, ext := range d.Extensions {
			if prev, exists := byExtension[ext]; exists {
				log.Printf("lspsupervisor: extension %q claimed by both %s and %s; keeping %s",
					ext, prev.Language, d.Language, prev.Language)
				continue
			}
			byExtension[ext] = d
		}
	}
}

// DescriptorFor returns the fixed descriptor for a language, if known.
func DescriptorFor(language string) (Descriptor, bool) {
	d, ok := byLanguage[language]
	return d, ok
}

// LanguageForExtension maps a bare file extension (no leading dot) to its
// language, choosing the first-registered language on ambiguity.
func LanguageForExtension(ext string) (string, bool) {
	d, ok := byExtension[ext]
	if !ok {
		return "", false
	}
	return d.Language, true
}

// Languages returns every known language name, for iteration/detection.
func Languages() []string {
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Language)
	}
	return out
}
