package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

type Adapter struct {
	db   *sql.DB
	qb   squirrel.StatementBuilderType
	path string
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB, path string) *Adapter {
	a := New()
	a.db = db
	a.path = path
	return a
}

// DSN maps connection parameters onto a go-sqlite3 DSN. ":memory:" becomes
// a shared-cache in-memory database, anything else is a file path.
func DSN(p common.ConnectionParams) (string, error) {
	if p.IsMemory() {
		return "file::memory:?cache=shared&_foreign_keys=on", nil
	}

	path := p.Path
	if path == "" {
		path = strings.TrimPrefix(p.URL, "sqlite://")
		path = strings.TrimPrefix(path, "sqlite3://")
	}
	if path == "" {
		return "", errs.Configuration("sqlite connection is missing a database path")
	}
	if !strings.Contains(path, "?") {
		path += "?_journal_mode=WAL&_foreign_keys=on"
	}
	return path, nil
}

func (s *Adapter) Connect(ctx context.Context, params common.ConnectionParams) error {
	dsn, err := DSN(params)
	if err != nil {
		return err
	}

	s.path = dsn
	if idx := strings.Index(s.path, "?"); idx > 0 {
		s.path = s.path[:idx]
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// PRAGMA foreign_keys is per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Dialect() string {
	return common.SQLite
}

// DatabaseName is the file name without extension, or "memory".
func (s *Adapter) DatabaseName() string {
	if s.path == "" || strings.Contains(s.path, ":memory:") {
		return "memory"
	}
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func quote(name string) string {
	return common.QuoteIdent(name, `"`)
}
