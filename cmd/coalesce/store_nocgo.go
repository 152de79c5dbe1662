//go:build !cgo

package main

import (
	"fmt"

	"github.com/coalesce-dev/coalesce/internal/history"
)

// openHistoryStore requires CGO for the KuzuDB backend. Returns a nil store
// when no path is configured, an error otherwise.
func openHistoryStore(path string) (history.Store, error) {
	if path == "" {
		return nil, nil
	}
	return nil, fmt.Errorf("history store requires a CGO-enabled build")
}
