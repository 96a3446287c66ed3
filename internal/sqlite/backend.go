// Package sqlite implements the local Backend Gateway over a SQLite
// database in the resolved data directory. It is the source of truth the
// board session reloads from and dispatches mutations to.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// dbFileName is the database file created inside the data directory.
const dbFileName = "taskboard.db"

// Compile-time interface check: Backend must implement Gateway.
var _ types.Gateway = (*Backend)(nil)

// Backend implements the Gateway interface on a local SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database under the configured data
// directory and applies the schema. Returns ErrAlreadyAttached if called
// while attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Close releases the database connection. Idempotent; operations after
// Close return ErrNotAttached.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// conn returns the live database handle, or ErrNotAttached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrNotAttached
	}
	return b.db, nil
}

// generateID generates a UUID v7 for new rows, falling back to v4 if v7
// generation fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
