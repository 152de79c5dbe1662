//go:build cgo

// Package analyzer turns raw before/after file content into the semantic
// change lists the merge engine consumes. It parses both versions with
// tree-sitter, extracts a symbol table from each, and diffs the tables into
// SemanticChange values. The engine itself never parses source; this package
// is the input producer that sits in front of it.
package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	"golang.org/x/sync/errgroup"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// Language identifies a grammar used for semantic extraction.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// LanguageForPath maps a file extension to a supported language.
// Returns false for unsupported extensions.
func LanguageForPath(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo, true
	case ".ts":
		return LangTypeScript, true
	case ".tsx", ".jsx":
		return LangTSX, true
	case ".py":
		return LangPython, true
	case ".rs":
		return LangRust, true
	}
	return "", false
}

// Analyzer extracts semantic changes from file content pairs. A new
// tree-sitter parser is created per parse, so individual calls are cheap to
// keep sequential but an Analyzer may be shared across goroutines.
type Analyzer struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

// New creates an Analyzer with Go, TypeScript, TSX, Python, and Rust
// grammars registered.
func New() *Analyzer {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	extractors := map[Language]extractor{
		LangGo:         &goExtractor{},
		LangTypeScript: &tsExtractor{},
		LangTSX:        &tsExtractor{jsx: true},
		LangPython:     &pyExtractor{},
		LangRust:       &rsExtractor{},
	}

	return &Analyzer{languages: langs, extractors: extractors}
}

// FilePair is one file's content before and after a task's edits.
type FilePair struct {
	Path     string
	Baseline []byte
	Modified []byte
}

// Analyze diffs one file pair into a FileAnalysis.
func (a *Analyzer) Analyze(_ context.Context, pair FilePair) (change.FileAnalysis, error) {
	lang, ok := LanguageForPath(pair.Path)
	if !ok {
		return change.FileAnalysis{}, fmt.Errorf("analyzer: unsupported file type: %s", pair.Path)
	}

	base, err := a.extractFacts(pair.Path, pair.Baseline, lang)
	if err != nil {
		return change.FileAnalysis{}, err
	}
	mod, err := a.extractFacts(pair.Path, pair.Modified, lang)
	if err != nil {
		return change.FileAnalysis{}, err
	}

	return change.FileAnalysis{
		FilePath: pair.Path,
		Changes:  diffFacts(base, mod),
	}, nil
}

// analyzeConcurrency bounds parallel file parsing within one task.
const analyzeConcurrency = 4

// AnalyzeTask diffs all of a task's file pairs in parallel, preserving input
// order in the result. The first error cancels remaining parses.
func (a *Analyzer) AnalyzeTask(ctx context.Context, pairs []FilePair) ([]change.FileAnalysis, error) {
	results := make([]change.FileAnalysis, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeConcurrency)

	for i, pair := range pairs {
		g.Go(func() error {
			fa, err := a.Analyze(gctx, pair)
			if err != nil {
				return err
			}
			results[i] = fa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractFacts parses one version of a file and extracts its symbol table.
func (a *Analyzer) extractFacts(path string, source []byte, lang Language) (fileFacts, error) {
	tsLang := a.languages[lang]
	ext := a.extractors[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return fileFacts{}, fmt.Errorf("analyzer: set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fileFacts{}, fmt.Errorf("analyzer: tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	return ext.Extract(tree.RootNode(), source), nil
}
