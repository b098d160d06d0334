// Package state provides SQLite-based persistence for parley transcripts.
package state

import (
	"io"

	"github.com/ShayCichocki/parley/pkg/models"
)

// TranscriptStore handles pipeline result persistence.
type TranscriptStore interface {
	Record(conversationID string, res *models.PipelineResult) error
	GetResult(id string) (*ResultRecord, error)
	ListResults(conversationID string, limit int) ([]ResultRecord, error)
	ListConversations(limit int) ([]Conversation, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for transcript persistence.
// Callers depend on it rather than on the SQLite implementation.
type Store interface {
	io.Closer
	Migrator
	TranscriptStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store           = (*DB)(nil)
	_ TranscriptStore = (*DB)(nil)
	_ Migrator        = (*DB)(nil)
)
