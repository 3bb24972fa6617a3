package database

import (
	"context"
	"errors"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/mysql"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/postgres"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/sqlite"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
)

type Adapter interface {
	Catalog

	Connect(ctx context.Context, params common.ConnectionParams) error
	Close() error
	Ping(ctx context.Context) error

	// Data access used while seeding
	RandomValue(ctx context.Context, table, column string) (interface{}, bool, error)
	ColumnValues(ctx context.Context, table, column string) ([]interface{}, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) error

	// Destructive operations
	Truncate(ctx context.Context, tables []string) error
	SetForeignKeyChecks(ctx context.Context, enabled bool) error
}

// NormalizeDialect maps the accepted driver aliases onto the three supported
// dialect names.
func NormalizeDialect(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pgsql", "pg":
		return common.Postgres, nil
	case "mysql", "mariadb":
		return common.MySQL, nil
	case "sqlite", "sqlite3":
		return common.SQLite, nil
	default:
		return "", errs.Configuration("unsupported database dialect %q (supported: postgres, mysql, sqlite)", name)
	}
}

func NewAdapter(dialect string) (Adapter, error) {
	d, err := NormalizeDialect(dialect)
	if err != nil {
		return nil, err
	}
	switch d {
	case common.MySQL:
		return mysql.New(), nil
	case common.SQLite:
		return sqlite.New(), nil
	default:
		return postgres.New(), nil
	}
}

// Open creates the adapter for the dialect and connects it.
func Open(ctx context.Context, dialect string, params common.ConnectionParams) (Adapter, error) {
	adapter, err := NewAdapter(dialect)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx, params); err != nil {
		var cerr *errs.ConfigurationError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, errs.Introspection(err, "could not connect to %s", dialect)
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, errs.Introspection(err, "could not reach %s", dialect)
	}
	return adapter, nil
}
