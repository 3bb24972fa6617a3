package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
)

func (m *Adapter) RandomValue(ctx context.Context, table, column string) (interface{}, bool, error) {
	query, args, err := m.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		OrderBy("RAND()").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var value interface{}
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return common.NormalizeValue(value), true, nil
}

func (m *Adapter) ColumnValues(ctx context.Context, table, column string) ([]interface{}, error) {
	query, args, err := m.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []interface{}
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, common.NormalizeValue(v))
	}
	return values, rows.Err()
}

func (m *Adapter) InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) error {
	if len(rows) == 0 {
		return nil
	}

	// every column is generated by the database
	if len(columns) == 0 {
		query := fmt.Sprintf("INSERT INTO %s () VALUES ()", quote(table))
		for range rows {
			if _, err := m.db.ExecContext(ctx, query); err != nil {
				return err
			}
		}
		return nil
	}

	insert := m.qb.Insert(quote(table)).Columns(common.QuoteAll(columns, quote)...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}
	if ignoreDuplicates {
		insert = insert.Options("IGNORE")
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, query, args...)
	return err
}

func (m *Adapter) Truncate(ctx context.Context, tables []string) error {
	for _, table := range tables {
		if _, err := m.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quote(table))); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

func (m *Adapter) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	_, err := m.db.ExecContext(ctx, fmt.Sprintf("SET FOREIGN_KEY_CHECKS=%d", value))
	return err
}
