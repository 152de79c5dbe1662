//go:build cgo

package main

import (
	"github.com/coalesce-dev/coalesce/internal/history"
)

// openHistoryStore opens the KuzuDB history store at path. Returns a nil
// store when no path is configured.
func openHistoryStore(path string) (history.Store, error) {
	if path == "" {
		return nil, nil
	}
	return history.NewKuzuFileStore(path)
}
