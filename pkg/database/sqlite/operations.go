package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
)

func (s *Adapter) RandomValue(ctx context.Context, table, column string) (interface{}, bool, error) {
	query, args, err := s.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		OrderBy("RANDOM()").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var value interface{}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return common.NormalizeValue(value), true, nil
}

func (s *Adapter) ColumnValues(ctx context.Context, table, column string) ([]interface{}, error) {
	query, args, err := s.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Adapter) InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) error {
	if len(rows) == 0 {
		return nil
	}

	// every column is generated by the database
	if len(columns) == 0 {
		query := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(table))
		for range rows {
			if _, err := s.db.ExecContext(ctx, query); err != nil {
				return err
			}
		}
		return nil
	}

	insert := s.qb.Insert(quote(table)).Columns(common.QuoteAll(columns, quote)...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}
	if ignoreDuplicates {
		insert = insert.Options("OR IGNORE")
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Truncate deletes every row and resets AUTOINCREMENT counters; SQLite has
// no TRUNCATE statement.
func (s *Adapter) Truncate(ctx context.Context, tables []string) error {
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quote(table))); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		// sqlite_sequence only exists once an AUTOINCREMENT table was created
		_, err := s.db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
		if err != nil && !strings.Contains(err.Error(), "no such table") {
			return fmt.Errorf("failed to reset sequence of %s: %w", table, err)
		}
	}
	return nil
}

func (s *Adapter) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	state := "OFF"
	if enabled {
		state = "ON"
	}
	_, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = "+state)
	return err
}
