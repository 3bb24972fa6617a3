package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

func (m *Adapter) TableNames(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

func (m *Adapter) TableColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_key,
			c.extra,
			k.referenced_table_name,
			k.referenced_column_name
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage k
			ON c.table_schema = k.table_schema
			AND c.table_name = k.table_name
			AND c.column_name = k.column_name
			AND k.referenced_table_name IS NOT NULL
		WHERE c.table_name = ? AND c.table_schema = DATABASE()
		ORDER BY c.ordinal_position
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	seen := make(map[string]int)
	for rows.Next() {
		var name, columnType, isNullable, columnKey, extra string
		var referencedTable, referencedColumn sql.NullString

		if err := rows.Scan(&name, &columnType, &isNullable, &columnKey, &extra, &referencedTable, &referencedColumn); err != nil {
			return nil, err
		}

		// a column in several FK constraints comes back once per constraint
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = len(columns)

		column := schema.Column{
			Name:          name,
			RawType:       columnType,
			Type:          schema.ParseType(columnType),
			Nullable:      isNullable == "YES",
			PrimaryKey:    columnKey == "PRI",
			Unique:        columnKey == "UNI",
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
		}
		if referencedTable.Valid && referencedColumn.Valid {
			column.ForeignKey = &schema.ForeignKey{Table: referencedTable.String, Column: referencedColumn.String}
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}
