package database

import (
	"context"
	"sort"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

// Catalog is the read-only metadata surface an adapter exposes.
type Catalog interface {
	Dialect() string
	DatabaseName() string
	TableNames(ctx context.Context) ([]string, error)
	TableColumns(ctx context.Context, table string) ([]schema.Column, error)
}

// Introspect builds a Schema snapshot of every table visible to the catalog.
// Tables are returned sorted by name; nothing is excluded here.
func Introspect(ctx context.Context, c Catalog) (*schema.Schema, error) {
	dialect, err := NormalizeDialect(c.Dialect())
	if err != nil {
		return nil, err
	}

	names, err := c.TableNames(ctx)
	if err != nil {
		return nil, errs.Introspection(err, "failed to list tables on %s", dialect)
	}
	sort.Strings(names)

	snapshot := &schema.Schema{
		Dialect:  dialect,
		Database: c.DatabaseName(),
		Tables:   make([]schema.Table, 0, len(names)),
	}

	for _, name := range names {
		columns, err := c.TableColumns(ctx, name)
		if err != nil {
			return nil, errs.Introspection(err, "failed to read columns of %s", name)
		}
		snapshot.Tables = append(snapshot.Tables, schema.Table{Name: name, Columns: columns})
	}

	if err := snapshot.Validate(); err != nil {
		return nil, errs.Introspection(err, "catalog returned an inconsistent schema")
	}
	return snapshot, nil
}
