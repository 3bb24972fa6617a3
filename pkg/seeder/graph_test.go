package seeder

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(tables []schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func TestOrderUsersBeforePosts(t *testing.T) {
	tables := []schema.Table{
		table("posts", pk("id"), fk("user_id", "users")),
		table("users", pk("id")),
	}
	assert.Equal(t, []string{"users", "posts"}, names(Order(tables)))
}

func TestOrderKeepsInputOrderForTies(t *testing.T) {
	tables := []schema.Table{
		table("zebras", pk("id")),
		table("apples", pk("id")),
		table("mangos", pk("id")),
	}
	assert.Equal(t, []string{"zebras", "apples", "mangos"}, names(Order(tables)))
}

func TestOrderIgnoresSelfReferences(t *testing.T) {
	tables := []schema.Table{
		table("categories", pk("id"), nullable(fk("parent_id", "categories"))),
		table("products", pk("id"), fk("category_id", "categories")),
	}
	ordered, cyclic := OrderWithCycles(tables)
	assert.Equal(t, []string{"categories", "products"}, names(ordered))
	assert.Empty(t, cyclic)
}

func TestOrderInfersPluralTables(t *testing.T) {
	tables := []schema.Table{
		table("comments", pk("id"), col("post_id", schema.TypeBigInt), col("author_id", schema.TypeBigInt)),
		table("posts", pk("id"), col("category_id", schema.TypeBigInt)),
		table("categories", pk("id")),
	}
	// author_id has no authors table and adds no edge
	assert.Equal(t, []string{"categories", "posts", "comments"}, names(Order(tables)))
}

func TestOrderIgnoresTablesOutsideInput(t *testing.T) {
	tables := []schema.Table{
		table("posts", pk("id"), fk("user_id", "users")),
		table("tags", pk("id")),
	}
	ordered, cyclic := OrderWithCycles(tables)
	assert.Equal(t, []string{"posts", "tags"}, names(ordered))
	assert.Empty(t, cyclic)
}

func TestOrderCycleFallback(t *testing.T) {
	tables := []schema.Table{
		table("a", pk("id"), fk("b_ref", "b")),
		table("b", pk("id"), fk("a_ref", "a")),
		table("c", pk("id")),
		table("d", pk("id"), fk("a_ref", "a")),
	}

	ordered, cyclic := OrderWithCycles(tables)
	assert.Equal(t, []string{"c", "a", "b", "d"}, names(ordered))
	assert.Equal(t, []string{"a", "b", "d"}, cyclic)
	assert.Equal(t, cyclic, CyclicTables(tables))
}

func TestDependencyGraphDependencies(t *testing.T) {
	g := NewDependencyGraph(blogSchema().Tables)
	assert.ElementsMatch(t, []string{"posts", "tags"}, g.Dependencies("post_tag"))
	assert.Equal(t, []string{"users"}, g.Dependencies("posts"))
	assert.Empty(t, g.Dependencies("users"))
}

// randomDAG builds n tables where each table may reference any table with a
// lower index, then shuffles the declaration order.
func randomDAG(rnd *rand.Rand, n int) []schema.Table {
	tables := make([]schema.Table, n)
	for i := 0; i < n; i++ {
		cols := []schema.Column{pk("id")}
		for j := 0; j < i; j++ {
			if rnd.Intn(3) == 0 {
				cols = append(cols, fk(fmt.Sprintf("ref_%d", j), fmt.Sprintf("t%d", j)))
			}
		}
		tables[i] = table(fmt.Sprintf("t%d", i), cols...)
	}
	rnd.Shuffle(n, func(i, j int) { tables[i], tables[j] = tables[j], tables[i] })
	return tables
}

func TestOrderIsTopologicalForAcyclicSchemas(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		tables := randomDAG(rnd, 1+rnd.Intn(12))
		ordered, cyclic := OrderWithCycles(tables)
		require.Empty(t, cyclic)
		require.Len(t, ordered, len(tables))

		pos := make(map[string]int, len(ordered))
		for i, tbl := range ordered {
			_, dup := pos[tbl.Name]
			require.False(t, dup, "duplicate %s", tbl.Name)
			pos[tbl.Name] = i
		}
		for _, tbl := range ordered {
			for _, c := range tbl.Columns {
				if c.ForeignKey != nil {
					assert.Less(t, pos[c.ForeignKey.Table], pos[tbl.Name],
						"%s must precede %s", c.ForeignKey.Table, tbl.Name)
				}
			}
		}
	}
}

func TestOrderNeverDropsTablesWithCycles(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))

	for iter := 0; iter < 200; iter++ {
		n := 1 + rnd.Intn(10)
		tables := make([]schema.Table, n)
		for i := range tables {
			cols := []schema.Column{pk("id")}
			for j := 0; j < n; j++ {
				if rnd.Intn(4) == 0 {
					cols = append(cols, fk(fmt.Sprintf("ref_%d", j), fmt.Sprintf("t%d", j)))
				}
			}
			tables[i] = table(fmt.Sprintf("t%d", i), cols...)
		}

		ordered := Order(tables)
		require.Len(t, ordered, n)
		assert.ElementsMatch(t, names(tables), names(ordered))
	}
}

func TestInferReference(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{
		table("users", pk("id")),
		table("categories", schema.Column{Name: "code", Type: schema.TypeString, PrimaryKey: true}),
		table("people", pk("id")),
	}}

	assert.Equal(t, &schema.ForeignKey{Table: "users", Column: "id"}, InferReference("user_id", s))
	assert.Equal(t, &schema.ForeignKey{Table: "categories", Column: "code"}, InferReference("category_id", s))
	assert.Equal(t, &schema.ForeignKey{Table: "people", Column: "id"}, InferReference("person_id", s))
	assert.Nil(t, InferReference("team_id", s))
	assert.Nil(t, InferReference("_id", s))
	assert.Nil(t, InferReference("user", s))
	assert.Nil(t, InferReference("user_id", nil))
}
