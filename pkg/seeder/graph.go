package seeder

import (
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/jinzhu/inflection"
)

// DependencyGraph holds, per table, the tables that must be populated first.
// Edges come from declared foreign keys, or from the <singular>_id naming
// convention when the pluralized table exists.
type DependencyGraph struct {
	names []string
	deps  map[string][]string
}

func NewDependencyGraph(tables []schema.Table) *DependencyGraph {
	g := &DependencyGraph{
		names: make([]string, 0, len(tables)),
		deps:  make(map[string][]string, len(tables)),
	}

	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t.Name] = true
	}

	for _, t := range tables {
		if _, dup := g.deps[t.Name]; dup {
			continue
		}
		g.names = append(g.names, t.Name)

		seen := map[string]bool{t.Name: true} // self references never block
		var deps []string
		for _, col := range t.Columns {
			target := ""
			if col.ForeignKey != nil {
				target = col.ForeignKey.Table
			} else {
				target = inferredTable(col.Name, present)
			}
			if target == "" || seen[target] || !present[target] {
				continue
			}
			seen[target] = true
			deps = append(deps, target)
		}
		g.deps[t.Name] = deps
	}
	return g
}

// Dependencies returns the prerequisite tables of name.
func (g *DependencyGraph) Dependencies(name string) []string {
	return g.deps[name]
}

// BuildInsertionOrder runs Kahn's algorithm with a FIFO queue seeded in input
// order. Tables still blocked when the queue drains sit on a cycle; they are
// appended in input order and returned separately.
func (g *DependencyGraph) BuildInsertionOrder() (order []string, cyclic []string) {
	incoming := make(map[string]int, len(g.names))
	dependents := make(map[string][]string, len(g.names))
	for _, name := range g.names {
		incoming[name] = len(g.deps[name])
		for _, dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	queue := make([]string, 0, len(g.names))
	for _, name := range g.names {
		if incoming[name] == 0 {
			queue = append(queue, name)
		}
	}

	done := make(map[string]bool, len(g.names))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		done[node] = true

		for _, dependent := range dependents[node] {
			incoming[dependent]--
			if incoming[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	for _, name := range g.names {
		if !done[name] {
			order = append(order, name)
			cyclic = append(cyclic, name)
		}
	}
	return order, cyclic
}

// Order returns tables so that every referenced table precedes the tables
// referencing it. Cyclic tables keep their input order at the end.
func Order(tables []schema.Table) []schema.Table {
	ordered, _ := OrderWithCycles(tables)
	return ordered
}

func OrderWithCycles(tables []schema.Table) ([]schema.Table, []string) {
	byName := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
		}
	}

	names, cyclic := NewDependencyGraph(tables).BuildInsertionOrder()
	ordered := make([]schema.Table, len(names))
	for i, name := range names {
		ordered[i] = byName[name]
	}
	return ordered, cyclic
}

// CyclicTables lists the tables that could not be placed by dependency
// order because they take part in (or depend on) a foreign key cycle.
func CyclicTables(tables []schema.Table) []string {
	_, cyclic := NewDependencyGraph(tables).BuildInsertionOrder()
	return cyclic
}

// InferReference guesses the target of an undeclared "<x>_id" column: the
// pluralized table's first primary key column, else "id".
func InferReference(column string, s *schema.Schema) *schema.ForeignKey {
	if s == nil {
		return nil
	}
	base, ok := strings.CutSuffix(column, "_id")
	if !ok || base == "" {
		return nil
	}

	target := s.Table(inflection.Plural(base))
	if target == nil {
		return nil
	}

	ref := "id"
	if pk := target.PrimaryKey(); len(pk) > 0 {
		ref = pk[0].Name
	}
	return &schema.ForeignKey{Table: target.Name, Column: ref}
}

func inferredTable(column string, present map[string]bool) string {
	base, ok := strings.CutSuffix(column, "_id")
	if !ok || base == "" {
		return ""
	}
	if guess := inflection.Plural(base); present[guess] {
		return guess
	}
	return ""
}
