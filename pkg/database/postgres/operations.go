package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

func (p *Adapter) RandomValue(ctx context.Context, table, column string) (interface{}, bool, error) {
	query, args, err := p.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		OrderBy("RANDOM()").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var value interface{}
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return common.NormalizeValue(value), true, nil
}

func (p *Adapter) ColumnValues(ctx context.Context, table, column string) ([]interface{}, error) {
	query, args, err := p.qb.Select(quote(column)).
		From(quote(table)).
		Where(quote(column) + " IS NOT NULL").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
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

func (p *Adapter) InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) error {
	if len(rows) == 0 {
		return nil
	}

	// every column is generated by the database
	if len(columns) == 0 {
		query := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(table))
		for range rows {
			if _, err := p.pool.Exec(ctx, query); err != nil {
				return err
			}
		}
		return nil
	}

	query, args, err := BuildInsert(p.qb, table, columns, rows, ignoreDuplicates)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, query, args...)
	return err
}

// BuildInsert renders a multi-row INSERT; duplicates are skipped with
// ON CONFLICT DO NOTHING when requested.
func BuildInsert(qb squirrel.StatementBuilderType, table string, columns []string, rows [][]interface{}, ignoreDuplicates bool) (string, []interface{}, error) {
	insert := qb.Insert(quote(table)).Columns(common.QuoteAll(columns, quote)...)
	for _, row := range rows {
		insert = insert.Values(row...)
	}
	if ignoreDuplicates {
		insert = insert.Suffix("ON CONFLICT DO NOTHING")
	}
	return insert.ToSql()
}

// Truncate empties all tables in one statement; CASCADE makes FK order irrelevant.
func (p *Adapter) Truncate(ctx context.Context, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE",
		strings.Join(common.QuoteAll(tables, quote), ", "))
	_, err := p.pool.Exec(ctx, query)
	return err
}

// SetForeignKeyChecks is a no-op: postgres cannot disable FK enforcement
// without superuser rights, and Truncate already cascades.
func (p *Adapter) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	return nil
}
