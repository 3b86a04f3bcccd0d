// Package store defines the session log and analysis result stores. Callers
// create a store, pass it to the components that need it, and close it when
// done; nothing here is process-global.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
)

// ErrNotFound is returned when a session or result does not exist.
var ErrNotFound = errors.New("not found")

// Message is one exchange in a chat session.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Input     string    `json:"message"`
	Output    string    `json:"response"`
	Intent    string    `json:"query_type"`
}

// Session is an append-only message log keyed by an opaque id.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Sessions stores chat sessions. Append creates the session on first use and
// is atomic per call.
type Sessions interface {
	Append(ctx context.Context, id string, m Message) error
	// History returns the messages of a session, or none for an unknown id.
	History(ctx context.Context, id string) ([]Message, error)
	Get(ctx context.Context, id string) (*Session, error)
	// Clear removes a session entirely; clearing an unknown id is not an error.
	Clear(ctx context.Context, id string) error
}

// Entry is a cached analysis of one dataset.
type Entry struct {
	Key       string           `json:"key"`
	Source    string           `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
	Summary   dataset.Summary  `json:"data_summary"`
	Analysis  *analysis.Result `json:"analysis"`
}

// Results caches analysis results by dataset key.
type Results interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, key string) (*Entry, error)
	Delete(ctx context.Context, key string) error
	// List returns entries newest first.
	List(ctx context.Context) ([]Entry, error)
}
