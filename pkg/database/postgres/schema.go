package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

func (p *Adapter) TableNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (p *Adapter) TableColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	// Query 1: plain column metadata in declaration order
	rows, err := p.pool.Query(ctx, `
		SELECT
			c.column_name,
			c.udt_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.is_identity
		FROM information_schema.columns c
		WHERE c.table_name = $1
		  AND c.table_schema = current_schema()
		ORDER BY c.ordinal_position
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var column schema.Column
		var udtName, dataType, isNullable string
		var columnDefault, isIdentity sql.NullString

		if err := rows.Scan(&column.Name, &udtName, &dataType, &isNullable, &columnDefault, &isIdentity); err != nil {
			return nil, err
		}

		column.RawType = udtName
		column.Type = schema.ParseType(udtName)
		if dataType == "ARRAY" {
			column.Type = schema.TypeUnknown
		}
		column.Nullable = isNullable == "YES"
		column.AutoIncrement = isIdentity.String == "YES" ||
			(columnDefault.Valid && strings.Contains(strings.ToLower(columnDefault.String), "nextval("))

		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	index := make(map[string]*schema.Column, len(columns))
	for i := range columns {
		index[columns[i].Name] = &columns[i]
	}

	// Query 2: PK, UNIQUE and FK constraints straight from pg_constraint.
	// UNNEST WITH ORDINALITY pairs composite FK columns correctly.
	constraintRows, err := p.pool.Query(ctx, `
		WITH fk_columns AS (
			SELECT
				src_attr.attname AS column_name,
				tgt_table.relname AS foreign_table_name,
				tgt_attr.attname AS foreign_column_name
			FROM pg_constraint con
			JOIN pg_class src_table ON con.conrelid = src_table.oid
			JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
			CROSS JOIN LATERAL UNNEST(con.conkey, con.confkey) WITH ORDINALITY AS cols(src_col, tgt_col, ord)
			JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
			JOIN pg_class tgt_table ON con.confrelid = tgt_table.oid
			JOIN pg_attribute tgt_attr ON tgt_attr.attrelid = tgt_table.oid AND tgt_attr.attnum = cols.tgt_col
			WHERE src_table.relname = $1
			  AND ns.nspname = current_schema()
			  AND con.contype = 'f'
		),
		pk_uk_columns AS (
			SELECT
				src_attr.attname AS column_name,
				CASE con.contype WHEN 'p' THEN 'PRIMARY KEY' ELSE 'UNIQUE' END AS constraint_type
			FROM pg_constraint con
			JOIN pg_class src_table ON con.conrelid = src_table.oid
			JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
			CROSS JOIN LATERAL UNNEST(con.conkey) AS cols(src_col)
			JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
			WHERE src_table.relname = $1
			  AND ns.nspname = current_schema()
			  AND con.contype IN ('p', 'u')
		)
		SELECT column_name, 'FOREIGN KEY' AS constraint_type, foreign_table_name, foreign_column_name
		FROM fk_columns
		UNION ALL
		SELECT column_name, constraint_type, NULL, NULL
		FROM pk_uk_columns
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer constraintRows.Close()

	for constraintRows.Next() {
		var columnName, constraintType string
		var fkTable, fkColumn sql.NullString

		if err := constraintRows.Scan(&columnName, &constraintType, &fkTable, &fkColumn); err != nil {
			return nil, err
		}

		col, ok := index[columnName]
		if !ok {
			continue
		}
		switch constraintType {
		case "PRIMARY KEY":
			col.PrimaryKey = true
		case "UNIQUE":
			col.Unique = true
		case "FOREIGN KEY":
			if fkTable.Valid && fkColumn.Valid && col.ForeignKey == nil {
				col.ForeignKey = &schema.ForeignKey{Table: fkTable.String, Column: fkColumn.String}
			}
		}
	}

	return columns, constraintRows.Err()
}
