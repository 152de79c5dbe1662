//go:build !cgo

package main

import "fmt"

// runAnalyze needs the tree-sitter grammars, which wrap C libraries.
func runAnalyze(_ cliFlags) error {
	return fmt.Errorf("analyze requires a CGO-enabled build")
}
