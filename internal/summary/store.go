package summary

import (
	"context"
	"time"
)

// Record is one stored conversation summary.
type Record struct {
	Text      string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the interface for persistent summary storage.
// List returns records oldest first.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Append(ctx context.Context, rec Record) error
	Close() error
}
