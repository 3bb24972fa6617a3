package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

// maxKeySpace is the largest Cartesian product still used to cap the row
// count of a junction table.
const maxKeySpace = 1_000_000

// KeySpace returns the product of the pool sizes, and false when it exceeds
// limit.
func KeySpace(pools [][]interface{}, limit int) (int, bool) {
	product := 1
	for _, pool := range pools {
		n := len(pool)
		if n == 0 {
			return 0, true
		}
		if product > limit/n {
			return 0, false
		}
		product *= n
	}
	return product, product <= limit
}

// SampleKeys draws up to rows distinct composite keys, one value per pool
// chosen uniformly and independently. Attempts are bounded, so a crowded key
// space may yield fewer keys than requested.
func SampleKeys(rnd *rand.Rand, pools [][]interface{}, rows int) [][]interface{} {
	if rows <= 0 || len(pools) == 0 {
		return nil
	}
	for _, pool := range pools {
		if len(pool) == 0 {
			return nil
		}
	}

	maxAttempts := rows * 50
	if maxAttempts < 50 {
		maxAttempts = 50
	}

	seen := make(map[string]struct{}, rows)
	keys := make([][]interface{}, 0, rows)
	parts := make([]string, len(pools))

	for attempts := 0; len(keys) < rows && attempts < maxAttempts; attempts++ {
		key := make([]interface{}, len(pools))
		for i, pool := range pools {
			key[i] = pool[rnd.Intn(len(pool))]
			parts[i] = fmt.Sprint(key[i])
		}

		id := strings.Join(parts, "\x00")
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// junctionPool lists the candidate values of one key column: a literal rule
// gives a single value, an fk rule or the declared key gives every existing
// referenced value.
func (s *Seeder) junctionPool(ctx context.Context, table *schema.Table, col *schema.Column, rs *rules.Ruleset) ([]interface{}, error) {
	ref := col.ForeignKey

	if rule, ok := rs.ColumnRule(table.Name, col.Name); ok {
		switch rule.Strategy {
		case rules.StrategyLiteral:
			if rule.Value == nil {
				return nil, nil
			}
			return []interface{}{rule.Value}, nil
		case rules.StrategyFK:
			if rule.Table == "" {
				return nil, nil
			}
			column := rule.Column
			if column == "" {
				column = "id"
			}
			ref = &schema.ForeignKey{Table: rule.Table, Column: column}
		}
	}

	if ref == nil {
		return nil, nil
	}
	values, err := s.conn.ColumnValues(ctx, ref.Table, ref.Column)
	if err != nil {
		return nil, errs.Generation(table.Name, col.Name, err, "cannot read candidates from %s", ref)
	}
	return values, nil
}

func (s *Seeder) seedJunction(ctx context.Context, run *Run, res *Resolver, table *schema.Table, rs *rules.Ruleset, rows int) (*JunctionResult, error) {
	result := &JunctionResult{Requested: rows, Target: rows}

	keyColumns := table.PrimaryKey()
	pools := make([][]interface{}, len(keyColumns))
	for i := range keyColumns {
		pool, err := s.junctionPool(ctx, table, &keyColumns[i], rs)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			result.Skipped = true
			result.EmptyColumn = keyColumns[i].Name
			return result, nil
		}
		pools[i] = pool
	}

	if space, small := KeySpace(pools, maxKeySpace); small && space < rows {
		result.Target = space
	}

	keys := SampleKeys(run.rand, pools, result.Target)
	result.Generated = len(keys)
	result.Shortfall = result.Target - result.Generated

	keyNames := make(map[string]bool, len(keyColumns))
	columns := make([]string, 0, len(table.Columns))
	for _, col := range keyColumns {
		keyNames[col.Name] = true
		columns = append(columns, col.Name)
	}
	extra := writableColumns(table, keyNames)
	for _, col := range extra {
		columns = append(columns, col.Name)
	}
	stamps := timestampColumns(table)
	columns = append(columns, stamps...)

	w := s.newBatchWriter(table.Name, columns, true)
	for _, key := range keys {
		row := make([]interface{}, 0, len(columns))
		row = append(row, key...)

		values, err := s.resolveColumns(ctx, res, table, extra, rs)
		if err != nil {
			return nil, err
		}
		row = append(row, values...)
		row = append(row, s.stampValues(len(stamps))...)

		if err := w.add(ctx, row); err != nil {
			return nil, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
