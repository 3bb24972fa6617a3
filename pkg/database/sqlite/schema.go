package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

func (s *Adapter) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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

func (s *Adapter) TableColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	pkCount := 0
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		columns = append(columns, schema.Column{
			Name:       name,
			RawType:    dataType,
			Type:       schema.ParseType(dataType),
			Nullable:   notNull == 0 && pk == 0,
			PrimaryKey: pk > 0,
		})
		if pk > 0 {
			pkCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// only a lone INTEGER PRIMARY KEY aliases the rowid
	if pkCount == 1 {
		for i := range columns {
			if columns[i].PrimaryKey && strings.EqualFold(columns[i].RawType, "INTEGER") {
				columns[i].AutoIncrement = true
			}
		}
	}

	fkRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(tableName)))
	if err != nil {
		return nil, err
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var id, seq int
		var table, from string
		var to, onUpdate, onDelete, match sql.NullString

		if err := fkRows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		target := to.String
		if !to.Valid || target == "" {
			target = "id"
		}
		for i := range columns {
			if columns[i].Name == from && columns[i].ForeignKey == nil {
				columns[i].ForeignKey = &schema.ForeignKey{Table: table, Column: target}
				break
			}
		}
	}

	return columns, fkRows.Err()
}
