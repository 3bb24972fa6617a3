package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/mysql"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/postgres"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/sqlite"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	dialect string
	tables  map[string][]schema.Column
	listErr error
	colErr  error
}

func (f *fakeCatalog) Dialect() string      { return f.dialect }
func (f *fakeCatalog) DatabaseName() string { return "app" }

func (f *fakeCatalog) TableNames(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeCatalog) TableColumns(ctx context.Context, table string) ([]schema.Column, error) {
	if f.colErr != nil {
		return nil, f.colErr
	}
	return f.tables[table], nil
}

func TestNormalizeDialect(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"postgres", common.Postgres},
		{"PostgreSQL", common.Postgres},
		{"pgsql", common.Postgres},
		{"mysql", common.MySQL},
		{"mariadb", common.MySQL},
		{" sqlite3 ", common.SQLite},
		{"sqlite", common.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeDialect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeDialect("oracle")
	var cerr *errs.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), `"oracle"`)
}

func TestNewAdapter(t *testing.T) {
	a, err := NewAdapter("postgresql")
	require.NoError(t, err)
	assert.IsType(t, &postgres.Adapter{}, a)

	a, err = NewAdapter("mysql")
	require.NoError(t, err)
	assert.IsType(t, &mysql.Adapter{}, a)

	a, err = NewAdapter("sqlite3")
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Adapter{}, a)

	_, err = NewAdapter("mssql")
	assert.Error(t, err)
}

func TestOpenReportsConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	var cerr *errs.ConfigurationError

	_, err := Open(ctx, "db2", common.ConnectionParams{})
	require.True(t, errors.As(err, &cerr))

	_, err = Open(ctx, "sqlite", common.ConnectionParams{})
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "missing a database path")

	_, err = Open(ctx, "mysql", common.ConnectionParams{Host: "localhost"})
	require.True(t, errors.As(err, &cerr))
}

func TestIntrospect(t *testing.T) {
	catalog := &fakeCatalog{
		dialect: "postgresql",
		tables: map[string][]schema.Column{
			"users": {{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true}},
			"posts": {
				{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true, AutoIncrement: true},
				{Name: "user_id", Type: schema.TypeBigInt, ForeignKey: &schema.ForeignKey{Table: "users", Column: "id"}},
			},
			"audit": nil,
		},
	}

	s, err := Introspect(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, common.Postgres, s.Dialect)
	assert.Equal(t, "app", s.Database)
	assert.Equal(t, []string{"audit", "posts", "users"}, s.Names())
	assert.Equal(t, "users", s.Table("posts").Column("user_id").ForeignKey.Table)
}

func TestIntrospectErrors(t *testing.T) {
	ctx := context.Background()
	var ierr *errs.IntrospectionError
	var cerr *errs.ConfigurationError

	_, err := Introspect(ctx, &fakeCatalog{dialect: "informix"})
	assert.True(t, errors.As(err, &cerr))

	cause := fmt.Errorf("permission denied for schema public")
	_, err = Introspect(ctx, &fakeCatalog{dialect: "mysql", listErr: cause})
	require.True(t, errors.As(err, &ierr))
	assert.ErrorIs(t, err, cause)

	_, err = Introspect(ctx, &fakeCatalog{dialect: "mysql", tables: map[string][]schema.Column{"t": nil}, colErr: cause})
	require.True(t, errors.As(err, &ierr))
	assert.Contains(t, err.Error(), "columns of t")

	_, err = Introspect(ctx, &fakeCatalog{dialect: "sqlite", tables: map[string][]schema.Column{
		"t": {{Name: "a"}, {Name: "a"}},
	}})
	require.True(t, errors.As(err, &ierr))
	assert.Contains(t, err.Error(), "duplicate column t.a")
}
