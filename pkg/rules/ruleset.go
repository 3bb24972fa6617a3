// Package rules holds the user-editable generation directives: per-table row
// counts, per-column strategies and the table exclusion list.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

const CurrentVersion = 1

type Strategy string

const (
	StrategyLiteral Strategy = "literal"
	StrategyHash    Strategy = "hash"
	StrategyFK      Strategy = "fk"
	StrategyFaker   Strategy = "faker"
)

// ColumnRule is a tagged variant; which fields matter depends on Strategy.
//
//	literal: Value (may be null)
//	hash:    Value is the plaintext, "password" when empty
//	fk:      Table, Column (default "id"), Create
//	faker:   Method, Unique, Args
type ColumnRule struct {
	Strategy Strategy      `json:"strategy"`
	Value    interface{}   `json:"value,omitempty"`
	Table    string        `json:"table,omitempty"`
	Column   string        `json:"column,omitempty"`
	Create   bool          `json:"create,omitempty"`
	Method   string        `json:"method,omitempty"`
	Unique   bool          `json:"unique,omitempty"`
	Args     []interface{} `json:"args,omitempty"`
}

// UnmarshalJSON is lenient about scalar types the way hand-written files
// tend to be: "true" for booleans, a single value for args.
func (r *ColumnRule) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ColumnRule{
		Strategy: Strategy(strings.ToLower(strings.TrimSpace(cast.ToString(raw["strategy"])))),
		Value:    raw["value"],
		Table:    cast.ToString(raw["table"]),
		Column:   cast.ToString(raw["column"]),
		Method:   strings.TrimSpace(cast.ToString(raw["method"])),
	}

	var err error
	if v, ok := raw["create"]; ok {
		if r.Create, err = cast.ToBoolE(v); err != nil {
			return fmt.Errorf("create: %w", err)
		}
	}
	if v, ok := raw["unique"]; ok {
		if r.Unique, err = cast.ToBoolE(v); err != nil {
			return fmt.Errorf("unique: %w", err)
		}
	}
	switch args := raw["args"].(type) {
	case nil:
	case []interface{}:
		r.Args = args
	default:
		r.Args = []interface{}{args}
	}
	return nil
}

// HashValue returns the plaintext a hash rule digests.
func (r ColumnRule) HashValue() string {
	if s := cast.ToString(r.Value); s != "" {
		return s
	}
	return "password"
}

func (r ColumnRule) Validate() error {
	switch r.Strategy {
	case StrategyLiteral, StrategyHash, StrategyFK:
		return nil
	case StrategyFaker:
		if r.Method == "" {
			return fmt.Errorf("faker rule is missing a method")
		}
		return nil
	case "":
		return fmt.Errorf("rule is missing a strategy")
	default:
		return fmt.Errorf("unknown strategy %q (expected literal, hash, fk or faker)", r.Strategy)
	}
}

type TableRule struct {
	Count   *int                  `json:"count,omitempty"`
	Columns map[string]ColumnRule `json:"columns,omitempty"`
}

type Ruleset struct {
	Version       int                  `json:"version"`
	ExcludeTables []string             `json:"exclude_tables"`
	Tables        map[string]TableRule `json:"tables"`

	// Dropped lists the fields ignored while decoding because their value had
	// the wrong shape, e.g. "tables.posts.count".
	Dropped []string `json:"-"`
}

func Empty() *Ruleset {
	rs := &Ruleset{}
	rs.Normalize()
	return rs
}

// Parse decodes and normalizes a ruleset document. Only a document that is
// not a JSON object fails; a field of the wrong type is left out and recorded
// in Dropped so the rest of the file, exclude_tables included, still applies.
func Parse(data []byte) (*Ruleset, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("rules document must be a JSON object")
	}

	rs := &Ruleset{}
	if raw, ok := doc["version"]; ok && !isNull(raw) {
		n, err := decodeInt(raw)
		if err != nil {
			rs.drop("version")
		}
		rs.Version = n
	}

	if raw, ok := doc["exclude_tables"]; ok && !isNull(raw) {
		var list []interface{}
		if err := json.Unmarshal(raw, &list); err != nil {
			rs.drop("exclude_tables")
		}
		for i, v := range list {
			name, ok := v.(string)
			if !ok {
				rs.drop(fmt.Sprintf("exclude_tables[%d]", i))
				continue
			}
			rs.ExcludeTables = append(rs.ExcludeTables, name)
		}
	}

	if raw, ok := doc["tables"]; ok && !isNull(raw) {
		var tables map[string]json.RawMessage
		if err := json.Unmarshal(raw, &tables); err != nil {
			rs.drop("tables")
		}
		rs.Tables = make(map[string]TableRule, len(tables))
		for _, name := range sortedKeys(tables) {
			if tr, ok := rs.parseTable(name, tables[name]); ok {
				rs.Tables[name] = tr
			}
		}
	}

	rs.Normalize()
	return rs, nil
}

func (rs *Ruleset) parseTable(name string, data json.RawMessage) (TableRule, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		rs.drop("tables." + name)
		return TableRule{}, false
	}

	var tr TableRule
	if raw, ok := fields["count"]; ok && !isNull(raw) {
		n, err := decodeInt(raw)
		if err != nil {
			rs.drop("tables." + name + ".count")
		} else {
			tr.Count = &n
		}
	}

	if raw, ok := fields["columns"]; ok && !isNull(raw) {
		var columns map[string]json.RawMessage
		if err := json.Unmarshal(raw, &columns); err != nil {
			rs.drop("tables." + name + ".columns")
		}
		for _, column := range sortedKeys(columns) {
			var rule ColumnRule
			if err := json.Unmarshal(columns[column], &rule); err != nil {
				rs.drop("tables." + name + ".columns." + column)
				continue
			}
			if tr.Columns == nil {
				tr.Columns = make(map[string]ColumnRule, len(columns))
			}
			tr.Columns[column] = rule
		}
	}
	return tr, true
}

func (rs *Ruleset) drop(field string) {
	rs.Dropped = append(rs.Dropped, field)
}

// CheckDecoded fails when Parse had to leave fields out.
func (rs *Ruleset) CheckDecoded() error {
	if len(rs.Dropped) == 0 {
		return nil
	}
	return fmt.Errorf("fields with the wrong type: %s", strings.Join(rs.Dropped, ", "))
}

// decodeInt accepts numbers and numeric strings.
func decodeInt(raw json.RawMessage) (int, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return cast.ToIntE(v)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// Normalize fills in missing keys and turns ExcludeTables into a sorted set.
func (rs *Ruleset) Normalize() {
	if rs.Version == 0 {
		rs.Version = CurrentVersion
	}
	if rs.Tables == nil {
		rs.Tables = map[string]TableRule{}
	}
	rs.ExcludeTables = NormalizeTableList(rs.ExcludeTables)
}

func (rs *Ruleset) Validate() error {
	if rs.Version < 1 {
		return fmt.Errorf("version must be at least 1, got %d", rs.Version)
	}

	var problems []string
	for _, table := range sortedKeys(rs.Tables) {
		tr := rs.Tables[table]
		if tr.Count != nil && *tr.Count < 0 {
			problems = append(problems, fmt.Sprintf("%s: count must not be negative", table))
		}
		for _, column := range sortedKeys(tr.Columns) {
			if err := tr.Columns[column].Validate(); err != nil {
				problems = append(problems, fmt.Sprintf("%s.%s: %v", table, column, err))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// TableCount returns the configured row count for a table.
func (rs *Ruleset) TableCount(table string) (int, bool) {
	if rs == nil {
		return 0, false
	}
	tr, ok := rs.Tables[table]
	if !ok || tr.Count == nil {
		return 0, false
	}
	return *tr.Count, true
}

// HasTableRules reports whether the table entry sets anything at all.
func (rs *Ruleset) HasTableRules(table string) bool {
	if rs == nil {
		return false
	}
	tr, ok := rs.Tables[table]
	return ok && (tr.Count != nil || len(tr.Columns) > 0)
}

func (rs *Ruleset) ColumnRule(table, column string) (ColumnRule, bool) {
	if rs == nil {
		return ColumnRule{}, false
	}
	rule, ok := rs.Tables[table].Columns[column]
	return rule, ok
}

func (rs *Ruleset) Excluded() []string {
	if rs == nil {
		return nil
	}
	return NormalizeTableList(rs.ExcludeTables)
}

// Marshal renders the normalized document with four space indentation and a
// trailing newline.
func (rs *Ruleset) Marshal() ([]byte, error) {
	rs.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NormalizeTableList trims, drops empties, de-duplicates and sorts.
func NormalizeTableList(tables []string) []string {
	seen := make(map[string]bool, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
