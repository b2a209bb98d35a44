package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (one JSON blob file per key)
//   - "sqlite": SQLite database file
//   - "memory": session-only, nothing touches disk
//
// If Driver is empty or "none", storage is disabled and stores run
// in-memory for the session.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
