// Package seeder fills an existing schema with synthetic rows.
package seeder

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/database"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

const (
	DefaultCount     = 25
	DefaultChunkSize = 250
)

// DefaultIgnoreTables are framework bookkeeping tables never worth seeding.
var DefaultIgnoreTables = []string{
	"migrations", "failed_jobs", "password_reset_tokens",
	"cache", "cache_locks", "sessions", "jobs", "job_batches",
}

var (
	info    = color.New(color.FgCyan)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

type Seeder struct {
	conn            Conn
	factory         Factory
	logger          *zap.Logger
	out             io.Writer
	ignore          []string
	defaultCount    int
	chunkSize       int
	preferFactories bool
	now             func() time.Time
}

type Option func(*Seeder)

func WithFactory(f Factory) Option { return func(s *Seeder) { s.factory = f } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Seeder) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput redirects the progress lines; io.Discard silences them.
func WithOutput(w io.Writer) Option { return func(s *Seeder) { s.out = w } }

func WithIgnoreTables(tables []string) Option {
	return func(s *Seeder) { s.ignore = rules.NormalizeTableList(tables) }
}

func WithDefaultCount(n int) Option {
	return func(s *Seeder) {
		if n >= 0 {
			s.defaultCount = n
		}
	}
}

func WithChunkSize(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithPreferFactories lets the factory create every row of tables that
// have no rules of their own.
func WithPreferFactories(prefer bool) Option { return func(s *Seeder) { s.preferFactories = prefer } }

func WithClock(now func() time.Time) Option { return func(s *Seeder) { s.now = now } }

func New(conn Conn, opts ...Option) *Seeder {
	s := &Seeder{
		conn:            conn,
		logger:          zap.NewNop(),
		out:             os.Stdout,
		ignore:          rules.NormalizeTableList(DefaultIgnoreTables),
		defaultCount:    DefaultCount,
		chunkSize:       DefaultChunkSize,
		preferFactories: true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Introspect reads a fresh snapshot through the seeder's connection.
func (s *Seeder) Introspect(ctx context.Context) (*schema.Schema, error) {
	return database.Introspect(ctx, s.conn)
}

// Seed runs a full pass: exclude, order, optionally truncate, then fill
// each table in dependency order. A nil snapshot is introspected first.
func (s *Seeder) Seed(ctx context.Context, snapshot *schema.Schema, rs *rules.Ruleset, opts SeedOptions) (*Summary, error) {
	if rs == nil {
		rs = rules.Empty()
	}
	if err := CheckRuleset(rs); err != nil {
		return nil, err
	}

	info.Fprintln(s.out, "🌱 Starting database seeding...")

	if snapshot == nil {
		var err error
		if snapshot, err = s.Introspect(ctx); err != nil {
			return nil, err
		}
	}

	ignored := rules.NormalizeTableList(append(append([]string{}, s.ignore...), rs.Excluded()...))
	tables := filterTables(snapshot.Tables, opts.Only, ignored)

	ordered, cyclic := OrderWithCycles(tables)
	summary := &Summary{
		Order:   make([]string, len(ordered)),
		Cyclic:  cyclic,
		Skipped: intersect(ignored, snapshot.Names()),
	}
	for i, t := range ordered {
		summary.Order[i] = t.Name
	}

	if len(ordered) == 0 {
		warn.Fprintln(s.out, "⚠️  No tables to seed")
		return summary, nil
	}

	success.Fprintf(s.out, "📊 Found %d tables\n", len(ordered))
	info.Fprintf(s.out, "📋 Insertion order: %s\n", strings.Join(summary.Order, " → "))
	if len(cyclic) > 0 {
		warn.Fprintf(s.out, "⚠️  Foreign key cycle, order not guaranteed for: %s\n", strings.Join(cyclic, ", "))
		s.logger.Warn("foreign key cycle", zap.Strings("tables", cyclic))
	}

	if opts.Truncate {
		reversed := make([]string, len(summary.Order))
		for i, name := range summary.Order {
			reversed[len(reversed)-1-i] = name
		}
		if err := s.truncate(ctx, reversed); err != nil {
			return nil, err
		}
	}

	b, err := s.NewBatch(ctx, snapshot, opts.Seed)
	if err != nil {
		return nil, err
	}
	summary.Seed = b.Seed()

	for i := range ordered {
		result, err := s.seedTable(ctx, b.run, b.res, &ordered[i], rs, opts.Count)
		if err != nil {
			return summary, err
		}
		summary.Tables = append(summary.Tables, *result)
	}

	success.Fprintf(s.out, "\n✅ Seeded %d tables (%d rows)\n", summary.SeededTables(), summary.TotalRows())
	return summary, nil
}

// SeedTable fills a single table. Exclusions do not apply; naming a table
// is an explicit request.
func (s *Seeder) SeedTable(ctx context.Context, snapshot *schema.Schema, name string, rs *rules.Ruleset, opts SeedOptions) (*TableResult, error) {
	if rs == nil {
		rs = rules.Empty()
	}
	if err := CheckRuleset(rs); err != nil {
		return nil, err
	}

	b, err := s.NewBatch(ctx, snapshot, opts.Seed)
	if err != nil {
		return nil, err
	}
	return b.SeedTable(ctx, name, rs, opts)
}

func (s *Seeder) newRun(seed int64) (*Run, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	run, err := NewRun(seed)
	if err != nil {
		return nil, err
	}
	run.now = s.now
	return run, nil
}

func (s *Seeder) rowCount(table string, rs *rules.Ruleset, override int) int {
	if override > 0 {
		return override
	}
	if n, ok := rs.TableCount(table); ok {
		return n
	}
	return s.defaultCount
}

func (s *Seeder) seedTable(ctx context.Context, run *Run, res *Resolver, table *schema.Table, rs *rules.Ruleset, override int) (*TableResult, error) {
	rows := s.rowCount(table.Name, rs, override)
	info.Fprintf(s.out, "  📝 Seeding %s (%d records)...\n", table.Name, rows)

	if table.IsJunction() {
		jr, err := s.seedJunction(ctx, run, res, table, rs, rows)
		if err != nil {
			return nil, err
		}
		switch {
		case jr.Skipped:
			warn.Fprintf(s.out, "  ⚠️  Skipped %s: no candidate values for %s\n", table.Name, jr.EmptyColumn)
			s.logger.Warn("junction table skipped", zap.String("table", table.Name), zap.String("column", jr.EmptyColumn))
		case jr.Shortfall > 0:
			warn.Fprintf(s.out, "  ⚠️  %s: generated %d of %d distinct keys\n", table.Name, jr.Generated, jr.Target)
			s.logger.Warn("junction shortfall",
				zap.String("table", table.Name),
				zap.Int("target", jr.Target),
				zap.Int("generated", jr.Generated))
		}
		if !jr.Skipped {
			success.Fprintf(s.out, "  ✅ %s seeded successfully\n", table.Name)
		}
		return &TableResult{Table: table.Name, Method: MethodJunction, Rows: jr.Generated, Junction: jr}, nil
	}

	if s.preferFactories && s.factory != nil && !rs.HasTableRules(table.Name) && s.factory.HasFactory(table.Name) {
		for i := 0; i < rows; i++ {
			if _, err := s.factory.Create(ctx, table.Name); err != nil {
				return nil, errs.Generation(table.Name, "", err, "factory seeding failed")
			}
		}
		success.Fprintf(s.out, "  ✅ %s seeded through its factory\n", table.Name)
		s.logger.Info("seeded table", zap.String("table", table.Name), zap.String("method", MethodFactory), zap.Int("rows", rows))
		return &TableResult{Table: table.Name, Method: MethodFactory, Rows: rows}, nil
	}

	resolved := writableColumns(table, nil)
	stamps := timestampColumns(table)
	columns := make([]string, 0, len(resolved)+len(stamps))
	for _, col := range resolved {
		columns = append(columns, col.Name)
	}
	columns = append(columns, stamps...)

	w := s.newBatchWriter(table.Name, columns, false)
	for i := 0; i < rows; i++ {
		row, err := s.resolveColumns(ctx, res, table, resolved, rs)
		if err != nil {
			return nil, err
		}
		row = append(row, s.stampValues(len(stamps))...)
		if err := w.add(ctx, row); err != nil {
			return nil, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return nil, err
	}

	success.Fprintf(s.out, "  ✅ %s seeded successfully\n", table.Name)
	s.logger.Info("seeded table",
		zap.String("table", table.Name),
		zap.Int("rows", rows),
		zap.Int("chunks", w.chunks))
	return &TableResult{Table: table.Name, Method: MethodRows, Rows: rows}, nil
}

func (s *Seeder) resolveColumns(ctx context.Context, res *Resolver, table *schema.Table, columns []*schema.Column, rs *rules.Ruleset) ([]interface{}, error) {
	row := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		var rule *rules.ColumnRule
		if r, ok := rs.ColumnRule(table.Name, col.Name); ok {
			rule = &r
		}

		value, err := res.Resolve(ctx, table, col, rule)
		if err != nil {
			return nil, err
		}
		if value == nil && !col.Nullable {
			if value, err = res.Fallback(table, col); err != nil {
				return nil, err
			}
		}
		row = append(row, value)
	}
	return row, nil
}

func (s *Seeder) stampValues(n int) []interface{} {
	values := make([]interface{}, n)
	now := s.now()
	for i := range values {
		values[i] = now
	}
	return values
}

// truncate empties tables with foreign key enforcement relaxed. Enforcement
// is restored even when the truncate fails.
func (s *Seeder) truncate(ctx context.Context, tables []string) (err error) {
	warn.Fprintln(s.out, "🗑️  Truncating tables...")

	if err := s.conn.SetForeignKeyChecks(ctx, false); err != nil {
		return errs.Write("disable foreign keys", "", err)
	}
	defer func() {
		if rerr := s.conn.SetForeignKeyChecks(ctx, true); rerr != nil && err == nil {
			err = errs.Write("enable foreign keys", "", rerr)
		}
	}()

	if err := s.conn.Truncate(ctx, tables); err != nil {
		return errs.Write("truncate", strings.Join(tables, ", "), err)
	}

	s.logger.Info("truncated tables", zap.Strings("tables", tables))
	success.Fprintln(s.out, "✅ Tables truncated")
	return nil
}

type batchWriter struct {
	s       *Seeder
	table   string
	columns []string
	ignore  bool
	rows    [][]interface{}
	chunks  int
}

func (s *Seeder) newBatchWriter(table string, columns []string, ignoreDuplicates bool) *batchWriter {
	return &batchWriter{
		s:       s,
		table:   table,
		columns: columns,
		ignore:  ignoreDuplicates,
		rows:    make([][]interface{}, 0, s.chunkSize),
	}
}

func (w *batchWriter) add(ctx context.Context, row []interface{}) error {
	w.rows = append(w.rows, row)
	if len(w.rows) >= w.s.chunkSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.rows) == 0 {
		return nil
	}
	if err := w.s.conn.InsertBatch(ctx, w.table, w.columns, w.rows, w.ignore); err != nil {
		return errs.Write("insert", w.table, err)
	}
	w.chunks++
	w.s.logger.Debug("flushed chunk", zap.String("table", w.table), zap.Int("rows", len(w.rows)))
	w.rows = make([][]interface{}, 0, w.s.chunkSize)
	return nil
}

// writableColumns are the columns the resolver fills: auto-increment,
// timestamp and soft-delete columns are left to the database or stamped.
func writableColumns(table *schema.Table, skip map[string]bool) []*schema.Column {
	var cols []*schema.Column
	for i := range table.Columns {
		col := &table.Columns[i]
		if col.AutoIncrement || skip[col.Name] || isTimestamp(col.Name) {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

func timestampColumns(table *schema.Table) []string {
	var names []string
	for _, name := range []string{"created_at", "updated_at"} {
		if table.HasColumn(name) {
			names = append(names, name)
		}
	}
	return names
}

func isTimestamp(name string) bool {
	return name == "created_at" || name == "updated_at" || name == "deleted_at"
}

// CheckRuleset runs before any write so a bad rule never leaves a
// partially seeded database behind.
func CheckRuleset(rs *rules.Ruleset) error {
	if err := rs.Validate(); err != nil {
		return errs.Ruleset("", err, "rules contain invalid column rules")
	}
	for _, table := range sortedKeys(rs.Tables) {
		columns := rs.Tables[table].Columns
		for _, column := range sortedKeys(columns) {
			rule := columns[column]
			if rule.Strategy != rules.StrategyFaker {
				continue
			}
			if _, _, ok := LookupGenerator(rule.Method); !ok {
				return errs.Generation(table, column, nil, "unknown faker method %q", rule.Method)
			}
		}
	}
	return nil
}

func filterTables(tables []schema.Table, only, ignored []string) []schema.Table {
	onlySet := toSet(only)
	ignoredSet := toSet(ignored)

	out := make([]schema.Table, 0, len(tables))
	for _, t := range tables {
		if len(onlySet) > 0 && !onlySet[t.Name] {
			continue
		}
		if ignoredSet[t.Name] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func intersect(a, b []string) []string {
	set := toSet(b)
	out := []string{}
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
