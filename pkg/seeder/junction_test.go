package seeder

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleUserSchema() *schema.Schema {
	return &schema.Schema{Dialect: "sqlite", Tables: []schema.Table{
		table("role", pk("id")),
		table("user", pk("id")),
		table("role_user",
			schema.Column{Name: "role_id", Type: schema.TypeBigInt, PrimaryKey: true, ForeignKey: &schema.ForeignKey{Table: "role", Column: "id"}},
			schema.Column{Name: "user_id", Type: schema.TypeBigInt, PrimaryKey: true, ForeignKey: &schema.ForeignKey{Table: "user", Column: "id"}},
			nullable(col("note", schema.TypeString)),
			nullable(col("created_at", schema.TypeDateTime)),
			nullable(col("updated_at", schema.TypeDateTime)),
			nullable(col("deleted_at", schema.TypeDateTime)),
		),
	}}
}

func pairKey(row map[string]interface{}) string {
	return fmt.Sprint(row["role_id"], "/", row["user_id"])
}

func TestKeySpace(t *testing.T) {
	n, small := KeySpace([][]interface{}{{1, 2, 3}, {1, 2, 3, 4}}, maxKeySpace)
	assert.True(t, small)
	assert.Equal(t, 12, n)

	big := make([]interface{}, 2000)
	_, small = KeySpace([][]interface{}{big, big}, maxKeySpace)
	assert.False(t, small)

	_, small = KeySpace([][]interface{}{big, big, big, big, big, big, big}, maxKeySpace)
	assert.False(t, small, "overflow must not wrap around")
}

func TestSampleKeysAreDistinct(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	pools := [][]interface{}{{1, 2, 3}, {1, 2, 3, 4}}

	for _, rows := range []int{1, 5, 12, 40} {
		keys := SampleKeys(rnd, pools, rows)
		assert.LessOrEqual(t, len(keys), 12)
		seen := map[string]bool{}
		for _, k := range keys {
			id := fmt.Sprint(k...)
			assert.False(t, seen[id], "duplicate key %v", k)
			seen[id] = true
		}
	}

	assert.Len(t, SampleKeys(rnd, pools, 5), 5)
	assert.Nil(t, SampleKeys(rnd, [][]interface{}{{1}, {}}, 5))
	assert.Nil(t, SampleKeys(rnd, pools, 0))
}

func TestSampleKeysBoundedAttempts(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	// one possible key, a hundred requested
	keys := SampleKeys(rnd, [][]interface{}{{1}, {2}}, 100)
	assert.Len(t, keys, 1)
}

func seedRoleUsers(t *testing.T, count int, roles, users int, rs *rules.Ruleset) (*TableResult, *memConn) {
	t.Helper()
	s := roleUserSchema()
	conn := newMemConn(s)
	for i := 0; i < roles; i++ {
		conn.put("role", map[string]interface{}{})
	}
	for i := 0; i < users; i++ {
		conn.put("user", map[string]interface{}{})
	}

	sd := New(conn, WithOutput(io.Discard))
	result, err := sd.SeedTable(context.Background(), s, "role_user", rs, SeedOptions{Count: count, Seed: 3})
	require.NoError(t, err)
	return result, conn
}

func TestJunctionScenario(t *testing.T) {
	assert.True(t, roleUserSchema().Table("role_user").IsJunction())

	result, conn := seedRoleUsers(t, 5, 3, 4, nil)
	require.NotNil(t, result.Junction)
	assert.Equal(t, MethodJunction, result.Method)
	assert.Equal(t, 5, result.Junction.Generated)
	assert.Zero(t, result.Junction.Shortfall)

	rows := conn.rows["role_user"]
	require.Len(t, rows, 5)
	seen := map[string]bool{}
	for _, row := range rows {
		assert.False(t, seen[pairKey(row)], "duplicate pair %s", pairKey(row))
		seen[pairKey(row)] = true
		assert.Contains(t, []interface{}{1, 2, 3}, row["role_id"])
		assert.Contains(t, []interface{}{1, 2, 3, 4}, row["user_id"])
		assert.NotNil(t, row["created_at"])
		assert.NotNil(t, row["updated_at"])
		_, hasDeleted := row["deleted_at"]
		assert.False(t, hasDeleted)
	}

	require.Len(t, conn.inserts, 1)
	assert.True(t, conn.inserts[0].ignore)
	assert.Equal(t, []string{"role_id", "user_id", "note", "created_at", "updated_at"}, conn.inserts[0].columns)
}

func TestJunctionCapsAtKeySpace(t *testing.T) {
	result, conn := seedRoleUsers(t, 50, 3, 4, nil)

	assert.Equal(t, 50, result.Junction.Requested)
	assert.Equal(t, 12, result.Junction.Target)
	assert.Equal(t, 12, result.Junction.Generated)
	assert.Len(t, conn.rows["role_user"], 12)
}

func TestJunctionSkipsEmptyPool(t *testing.T) {
	result, conn := seedRoleUsers(t, 5, 3, 0, nil)

	assert.True(t, result.Junction.Skipped)
	assert.Equal(t, "user_id", result.Junction.EmptyColumn)
	assert.Zero(t, result.Rows)
	assert.Empty(t, conn.inserts)
}

func TestJunctionPoolsFromRules(t *testing.T) {
	rs, err := rules.Parse([]byte(`{"tables":{"role_user":{"columns":{
		"role_id": {"strategy":"literal","value":2},
		"user_id": {"strategy":"fk","table":"user"}
	}}}}`))
	require.NoError(t, err)

	result, conn := seedRoleUsers(t, 10, 3, 4, rs)
	assert.Equal(t, 4, result.Junction.Target)
	for _, row := range conn.rows["role_user"] {
		assert.Equal(t, float64(2), row["role_id"])
	}

	rs, err = rules.Parse([]byte(`{"tables":{"role_user":{"columns":{"role_id":{"strategy":"literal","value":null}}}}}`))
	require.NoError(t, err)
	result, _ = seedRoleUsers(t, 10, 3, 4, rs)
	assert.True(t, result.Junction.Skipped)
	assert.Equal(t, "role_id", result.Junction.EmptyColumn)
}

func TestJunctionLargeKeySpaceIsUncapped(t *testing.T) {
	s := roleUserSchema()
	conn := newMemConn(s)
	for i := 0; i < 2000; i++ {
		conn.put("role", map[string]interface{}{})
		conn.put("user", map[string]interface{}{})
	}
	sd := New(conn, WithOutput(io.Discard))
	run := newTestRun(t, 1)
	res := NewResolver(conn, nil, s, run)

	jr, err := sd.seedJunction(context.Background(), run, res, s.Table("role_user"), rules.Empty(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, jr.Target, "key space too large to cap")
	assert.Equal(t, 10, jr.Generated)
	assert.Zero(t, jr.Shortfall)
}
