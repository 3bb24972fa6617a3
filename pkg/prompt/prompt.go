// Package prompt renders a schema as plain text instructions for an external
// assistant that writes seeding rules. The reply is expected to be a ruleset
// document that can be passed to rules.Repository.Save.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
)

const example = `{
  "version": 1,
  "exclude_tables": ["<table_name>"],
  "tables": {
    "<table_name>": {
      "count": 25,
      "columns": {
        "<column_name>": { "strategy": "faker", "method": "safeEmail", "unique": true }
      }
    }
  }
}`

// Build renders the prompt for every table not listed in excluded. Junction
// tables are marked and get their own guidance block.
func Build(s *schema.Schema, excluded []string) string {
	excluded = rules.NormalizeTableList(excluded)
	skip := make(map[string]bool, len(excluded))
	for _, t := range excluded {
		skip[t] = true
	}

	var tables []*schema.Table
	var junctions []string
	for i := range s.Tables {
		t := &s.Tables[i]
		if skip[t.Name] {
			continue
		}
		tables = append(tables, t)
		if t.IsJunction() {
			junctions = append(junctions, t.Name)
		}
	}

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("You are helping generate database seeding rules for a %s database.", dialectName(s.Dialect))
	line("Return ONLY valid JSON matching this format:")
	line("")
	line("%s", example)
	line("")
	line("Supported column strategies:")
	line(`- {"strategy":"faker","method":"...","unique":true|false,"args":[...]}`)
	line(`- {"strategy":"literal","value":...}`)
	line(`- {"strategy":"hash","value":"plain text password"}`)
	line(`- {"strategy":"fk","table":"users","column":"id"}`)
	line("")
	line("Faker methods: %s", strings.Join(seeder.GeneratorNames(), ", "))
	line("")
	line(`Important: ALWAYS include "exclude_tables" in the returned JSON (use [] if none).`)
	if len(excluded) > 0 {
		list, _ := json.Marshal(excluded)
		line(`Set "exclude_tables" to exactly: %s`, list)
	}

	if len(junctions) > 0 {
		line("")
		line("Pivot table guidance:")
		line("- For pivot tables, do NOT set literal IDs for foreign keys.")
		line("- For pivot tables, prefer rules like:")
		line(`  "pivot_table_name": { "count": 60, "columns": {} }`)
		line("- Detected pivot tables: %s", strings.Join(junctions, ", "))
	}

	line("")
	line("Database schema (tables -> columns -> type, nullable, foreign key):")
	line("")
	for _, t := range tables {
		if t.IsJunction() {
			line("%s: (pivot)", t.Name)
		} else {
			line("%s:", t.Name)
		}
		for _, col := range t.Columns {
			line("  - %s (%s)", col.Name, describe(col))
		}
		line("")
	}

	line("Guidelines:")
	line("- Use realistic values (names, emails, addresses, phones).")
	line(`- For password columns, use {"strategy":"hash","value":"password"} unless specified.`)
	line("- For tokens, use the token or slug faker methods.")
	line("- Keep referential integrity: foreign keys should point to existing rows.")
	line(`- Do NOT include per-table rules for tables listed in "exclude_tables".`)
	line("- IMPORTANT: consider BOTH the table name and column name when choosing faker methods.")
	line(`- Example: in "tags", the "name" column should be a tag-like label (words/slug), not a person name.`)
	b.WriteString(`- Example: in "categories", "name" should be a category label; in "roles", "name" should be a role label.`)

	return b.String()
}

func describe(col schema.Column) string {
	parts := []string{typeName(col)}
	if col.PrimaryKey {
		parts = append(parts, "primary key")
	}
	if col.AutoIncrement {
		parts = append(parts, "auto increment")
	}
	if col.Unique {
		parts = append(parts, "unique")
	}
	if col.Nullable {
		parts = append(parts, "nullable")
	}
	if col.ForeignKey != nil {
		parts = append(parts, "fk->"+col.ForeignKey.String())
	}
	return strings.Join(parts, ", ")
}

func typeName(col schema.Column) string {
	if col.RawType != "" {
		return strings.ToLower(col.RawType)
	}
	return string(col.Type)
}

func dialectName(d string) string {
	switch d {
	case "postgres":
		return "PostgreSQL"
	case "mysql":
		return "MySQL"
	case "sqlite":
		return "SQLite"
	default:
		return "relational"
	}
}
