package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

type insertCall struct {
	table   string
	columns []string
	rows    int
	ignore  bool
}

// memConn is an in-memory Conn backed by a schema snapshot.
type memConn struct {
	snapshot *schema.Schema
	rows     map[string][]map[string]interface{}
	seq      map[string]int
	rnd      *rand.Rand

	inserts   []insertCall
	calls     []string
	failOn    string
	failTrunc bool
}

func newMemConn(s *schema.Schema) *memConn {
	return &memConn{
		snapshot: s,
		rows:     make(map[string][]map[string]interface{}),
		seq:      make(map[string]int),
		rnd:      rand.New(rand.NewSource(7)),
	}
}

// put inserts rows directly, assigning auto-increment ids.
func (m *memConn) put(table string, rows ...map[string]interface{}) {
	for _, row := range rows {
		m.store(table, row)
	}
}

func (m *memConn) store(table string, row map[string]interface{}) {
	if t := m.snapshot.Table(table); t != nil {
		for _, col := range t.Columns {
			if col.AutoIncrement {
				if _, set := row[col.Name]; !set {
					m.seq[table]++
					row[col.Name] = m.seq[table]
				}
			}
		}
	}
	m.rows[table] = append(m.rows[table], row)
}

func (m *memConn) Dialect() string      { return "sqlite" }
func (m *memConn) DatabaseName() string { return "memory" }

func (m *memConn) TableNames(ctx context.Context) ([]string, error) {
	return m.snapshot.Names(), nil
}

func (m *memConn) TableColumns(ctx context.Context, table string) ([]schema.Column, error) {
	t := m.snapshot.Table(table)
	if t == nil {
		return nil, fmt.Errorf("no such table: %s", table)
	}
	return t.Columns, nil
}

func (m *memConn) RandomValue(ctx context.Context, table, column string) (interface{}, bool, error) {
	values, err := m.ColumnValues(ctx, table, column)
	if err != nil || len(values) == 0 {
		return nil, false, err
	}
	return values[m.rnd.Intn(len(values))], true, nil
}

func (m *memConn) ColumnValues(ctx context.Context, table, column string) ([]interface{}, error) {
	var values []interface{}
	for _, row := range m.rows[table] {
		if v := row[column]; v != nil {
			values = append(values, v)
		}
	}
	return values, nil
}

func (m *memConn) InsertBatch(ctx context.Context, table string, columns []string, rows [][]interface{}, ignore bool) error {
	m.calls = append(m.calls, "insert "+table)
	if table == m.failOn {
		return fmt.Errorf("constraint violation on %s", table)
	}
	m.inserts = append(m.inserts, insertCall{table: table, columns: columns, rows: len(rows), ignore: ignore})

	for _, values := range rows {
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		if ignore && m.hasKey(table, row) {
			continue
		}
		m.store(table, row)
	}
	return nil
}

func (m *memConn) hasKey(table string, row map[string]interface{}) bool {
	t := m.snapshot.Table(table)
	pk := t.PrimaryKey()
	for _, existing := range m.rows[table] {
		same := true
		for _, col := range pk {
			if fmt.Sprint(existing[col.Name]) != fmt.Sprint(row[col.Name]) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func (m *memConn) Truncate(ctx context.Context, tables []string) error {
	m.calls = append(m.calls, "truncate "+strings.Join(tables, ","))
	if m.failTrunc {
		return fmt.Errorf("permission denied")
	}
	for _, t := range tables {
		delete(m.rows, t)
		delete(m.seq, t)
	}
	return nil
}

func (m *memConn) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	m.calls = append(m.calls, fmt.Sprintf("fk %v", enabled))
	return nil
}

func (m *memConn) Close() error { return nil }

type stubFactory struct {
	tables  map[string]bool
	created map[string]int
	conn    *memConn
	err     error
}

func (f *stubFactory) HasFactory(table string) bool { return f.tables[table] }

func (f *stubFactory) Create(ctx context.Context, table string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.created == nil {
		f.created = make(map[string]int)
	}
	f.created[table]++
	row := map[string]interface{}{"name": fmt.Sprintf("%s-%d", table, f.created[table])}
	if f.conn != nil {
		f.conn.store(table, row)
	}
	return row, nil
}

func pk(name string) schema.Column {
	return schema.Column{Name: name, Type: schema.TypeBigInt, RawType: "bigint", PrimaryKey: true, AutoIncrement: true}
}

func fk(name, table string) schema.Column {
	return schema.Column{Name: name, Type: schema.TypeBigInt, RawType: "bigint", ForeignKey: &schema.ForeignKey{Table: table, Column: "id"}}
}

func col(name string, t schema.LogicalType) schema.Column {
	return schema.Column{Name: name, Type: t, RawType: string(t)}
}

func nullable(c schema.Column) schema.Column {
	c.Nullable = true
	return c
}

func table(name string, cols ...schema.Column) schema.Table {
	return schema.Table{Name: name, Columns: cols}
}

// blogSchema: users <- posts <- comments, tags <-> posts through post_tag.
func blogSchema() *schema.Schema {
	return &schema.Schema{
		Dialect:  "sqlite",
		Database: "memory",
		Tables: []schema.Table{
			table("comments", pk("id"), fk("post_id", "posts"), col("body", schema.TypeText)),
			table("post_tag",
				schema.Column{Name: "post_id", Type: schema.TypeBigInt, PrimaryKey: true, ForeignKey: &schema.ForeignKey{Table: "posts", Column: "id"}},
				schema.Column{Name: "tag_id", Type: schema.TypeBigInt, PrimaryKey: true, ForeignKey: &schema.ForeignKey{Table: "tags", Column: "id"}},
				nullable(col("created_at", schema.TypeDateTime)),
			),
			table("posts", pk("id"), fk("user_id", "users"), col("title", schema.TypeString),
				nullable(col("created_at", schema.TypeDateTime)), nullable(col("updated_at", schema.TypeDateTime)),
				nullable(col("deleted_at", schema.TypeDateTime))),
			table("sessions", pk("id"), col("payload", schema.TypeText)),
			table("tags", pk("id"), col("name", schema.TypeString)),
			table("users", pk("id"), col("name", schema.TypeString), col("email", schema.TypeString)),
		},
	}
}
