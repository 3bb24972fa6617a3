package schema

import (
	"fmt"
	"strings"
)

type ForeignKey struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

func (fk ForeignKey) String() string {
	return fk.Table + "." + fk.Column
}

type Column struct {
	Name          string      `json:"name" yaml:"name"`
	Type          LogicalType `json:"type" yaml:"type"`
	RawType       string      `json:"raw_type" yaml:"raw_type"`
	Nullable      bool        `json:"nullable" yaml:"nullable"`
	AutoIncrement bool        `json:"auto_increment" yaml:"auto_increment"`
	PrimaryKey    bool        `json:"primary_key" yaml:"primary_key"`
	Unique        bool        `json:"unique,omitempty" yaml:"unique,omitempty"`
	ForeignKey    *ForeignKey `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []Column {
	var pk []Column
	for _, col := range t.Columns {
		if col.PrimaryKey {
			pk = append(pk, col)
		}
	}
	return pk
}

// IsJunction reports whether the table only exists to link two or more tables:
// a composite primary key where every member is a non auto-increment foreign key.
func (t *Table) IsJunction() bool {
	pk := t.PrimaryKey()
	if len(pk) < 2 {
		return false
	}
	for _, col := range pk {
		if col.ForeignKey == nil || col.AutoIncrement {
			return false
		}
	}
	return true
}

type Schema struct {
	Dialect  string  `json:"dialect" yaml:"dialect"`
	Database string  `json:"database,omitempty" yaml:"database,omitempty"`
	Tables   []Table `json:"tables" yaml:"tables"`
}

// Table returns the named table, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// JunctionTables returns the names of tables classified as junctions.
func (s *Schema) JunctionTables() []string {
	var names []string
	for i := range s.Tables {
		if s.Tables[i].IsJunction() {
			names = append(names, s.Tables[i].Name)
		}
	}
	return names
}

// Validate checks the uniqueness invariants on table and column names.
func (s *Schema) Validate() error {
	tables := make(map[string]bool, len(s.Tables))
	var problems []string
	for _, t := range s.Tables {
		if tables[t.Name] {
			problems = append(problems, fmt.Sprintf("duplicate table %s", t.Name))
		}
		tables[t.Name] = true

		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if cols[c.Name] {
				problems = append(problems, fmt.Sprintf("duplicate column %s.%s", t.Name, c.Name))
			}
			cols[c.Name] = true
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("schema is inconsistent: %s", strings.Join(problems, "; "))
	}
	return nil
}
