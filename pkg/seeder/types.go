package seeder

import (
	"context"

	"github.com/Lumos-Labs-HQ/relix/pkg/database"
)

// Conn is the database surface the seeder consumes.
type Conn interface {
	database.Catalog

	// RandomValue picks one non-null value of table.column in random order.
	// ok is false when the table has no such value.
	RandomValue(ctx context.Context, table, column string) (value interface{}, ok bool, err error)
	// ColumnValues returns every non-null value of table.column.
	ColumnValues(ctx context.Context, table, column string) ([]interface{}, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) error
	Truncate(ctx context.Context, tables []string) error
	SetForeignKeyChecks(ctx context.Context, enabled bool) error
	Close() error
}

// Factory is an optional record source supplied by the host application,
// typically backed by its ORM model factories.
type Factory interface {
	HasFactory(table string) bool
	// Create persists one record in table and returns its column values.
	Create(ctx context.Context, table string) (map[string]any, error)
}

type SeedOptions struct {
	// Count overrides every per-table count when positive.
	Count    int
	Truncate bool
	// Only restricts the run to these tables; empty means all.
	Only []string
	// Seed makes a run reproducible. Zero picks a time based seed.
	Seed int64
}

const (
	MethodRows     = "rows"
	MethodFactory  = "factory"
	MethodJunction = "junction"
)

type TableResult struct {
	Table    string
	Method   string
	Rows     int
	Junction *JunctionResult
}

// JunctionResult reports how many distinct composite keys were generated
// against how many were asked for.
type JunctionResult struct {
	Requested int
	// Target is Requested capped at the size of the key space when known.
	Target    int
	Generated int
	Shortfall int
	// Skipped is set when a key column had no candidate values.
	Skipped     bool
	EmptyColumn string
}

type Summary struct {
	Seed    int64
	Order   []string
	Cyclic  []string
	Skipped []string
	Tables  []TableResult
}

func (s *Summary) SeededTables() int {
	n := 0
	for _, t := range s.Tables {
		if t.Junction == nil || !t.Junction.Skipped {
			n++
		}
	}
	return n
}

func (s *Summary) TotalRows() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Rows
	}
	return n
}
