package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestResolver(t *testing.T, s *schema.Schema, factory Factory) (*Resolver, *memConn) {
	t.Helper()
	conn := newMemConn(s)
	return NewResolver(conn, factory, s, newTestRun(t, 11)), conn
}

func resolveColumn(t *testing.T, r *Resolver, s *schema.Schema, tableName, column string, rule *rules.ColumnRule) (interface{}, error) {
	t.Helper()
	tbl := s.Table(tableName)
	require.NotNil(t, tbl)
	c := tbl.Column(column)
	require.NotNil(t, c)
	return r.Resolve(context.Background(), tbl, c, rule)
}

func TestLiteralRuleBeatsForeignKey(t *testing.T) {
	s := blogSchema()
	r, conn := newTestResolver(t, s, nil)
	conn.put("users", map[string]interface{}{"name": "a"}, map[string]interface{}{"name": "b"})

	rule := &rules.ColumnRule{Strategy: rules.StrategyLiteral, Value: float64(99)}
	for i := 0; i < 10; i++ {
		v, err := resolveColumn(t, r, s, "posts", "user_id", rule)
		require.NoError(t, err)
		assert.Equal(t, float64(99), v)
	}

	v, err := resolveColumn(t, r, s, "posts", "user_id", &rules.ColumnRule{Strategy: rules.StrategyLiteral})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLiteralFromRulesetDocument(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("t", pk("id"), col("status", schema.TypeString))}}
	rs, err := rules.Parse([]byte(`{"tables":{"t":{"columns":{"status":{"strategy":"literal","value":"active"}}}}}`))
	require.NoError(t, err)

	r, _ := newTestResolver(t, s, nil)
	rule, ok := rs.ColumnRule("t", "status")
	require.True(t, ok)
	for i := 0; i < 25; i++ {
		v, err := resolveColumn(t, r, s, "t", "status", &rule)
		require.NoError(t, err)
		assert.Equal(t, "active", v)
	}
}

func TestHashRule(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("users", pk("id"), col("secret_hash", schema.TypeString))}}
	r, _ := newTestResolver(t, s, nil)

	v, err := resolveColumn(t, r, s, "users", "secret_hash", &rules.ColumnRule{Strategy: rules.StrategyHash, Value: "hunter2"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(v.(string)), []byte("hunter2")))

	v, err = resolveColumn(t, r, s, "users", "secret_hash", &rules.ColumnRule{Strategy: rules.StrategyHash})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(v.(string)), []byte("password")))
}

func TestForeignKeyRule(t *testing.T) {
	s := blogSchema()
	s.Tables = append(s.Tables, table("authors", schema.Column{Name: "uid", Type: schema.TypeString, PrimaryKey: true}))

	t.Run("explicit table and column", func(t *testing.T) {
		r, conn := newTestResolver(t, s, nil)
		conn.put("authors", map[string]interface{}{"uid": "a-1"})
		conn.put("users", map[string]interface{}{"name": "u"})

		v, err := resolveColumn(t, r, s, "posts", "user_id", &rules.ColumnRule{Strategy: rules.StrategyFK, Table: "authors", Column: "uid"})
		require.NoError(t, err)
		assert.Equal(t, "a-1", v)
	})

	t.Run("unknown rule table falls back to declared key", func(t *testing.T) {
		r, conn := newTestResolver(t, s, nil)
		conn.put("users", map[string]interface{}{"name": "u"})

		v, err := resolveColumn(t, r, s, "posts", "user_id", &rules.ColumnRule{Strategy: rules.StrategyFK, Table: "nope"})
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("empty target creates through factory", func(t *testing.T) {
		f := &stubFactory{tables: map[string]bool{"users": true}}
		r, _ := newTestResolver(t, s, f)
		f.conn = r.conn.(*memConn)
		f.conn.seq["users"] = 41

		v, err := resolveColumn(t, r, s, "posts", "user_id", &rules.ColumnRule{Strategy: rules.StrategyFK, Create: true})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, f.created["users"])
	})

	t.Run("empty target without create falls through", func(t *testing.T) {
		f := &stubFactory{tables: map[string]bool{"users": true}}
		r, _ := newTestResolver(t, s, f)

		// falls through to the declared key, which may use the factory
		v, err := resolveColumn(t, r, s, "posts", "user_id", &rules.ColumnRule{Strategy: rules.StrategyFK})
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.Equal(t, 1, f.created["users"])
	})
}

func TestFakerRule(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("users", pk("id"), col("handle", schema.TypeString))}}
	r, _ := newTestResolver(t, s, nil)

	v, err := resolveColumn(t, r, s, "users", "handle", &rules.ColumnRule{Strategy: rules.StrategyFaker, Method: "safe_email"})
	require.NoError(t, err)
	assert.Contains(t, v, "@")

	seen := map[interface{}]bool{}
	for i := 0; i < 10; i++ {
		v, err := resolveColumn(t, r, s, "users", "handle", &rules.ColumnRule{
			Strategy: rules.StrategyFaker, Method: "numberBetween", Unique: true, Args: []interface{}{1, 10},
		})
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate %v", v)
		seen[v] = true
	}

	_, err = resolveColumn(t, r, s, "users", "handle", &rules.ColumnRule{
		Strategy: rules.StrategyFaker, Method: "numberBetween", Unique: true, Args: []interface{}{1, 10},
	})
	var gerr *errs.GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "handle", gerr.Column)

	_, err = resolveColumn(t, r, s, "users", "handle", &rules.ColumnRule{Strategy: rules.StrategyFaker, Method: "teleport"})
	require.True(t, errors.As(err, &gerr))
	assert.Contains(t, err.Error(), `unknown faker method "teleport"`)
}

func TestDeclaredForeignKey(t *testing.T) {
	s := blogSchema()

	r, conn := newTestResolver(t, s, nil)
	v, err := resolveColumn(t, r, s, "posts", "user_id", nil)
	require.NoError(t, err)
	assert.Nil(t, v, "no users and no factory")

	conn.put("users", map[string]interface{}{"name": "a"}, map[string]interface{}{"name": "b"}, map[string]interface{}{"name": "c"})
	for i := 0; i < 20; i++ {
		v, err := resolveColumn(t, r, s, "posts", "user_id", nil)
		require.NoError(t, err)
		assert.Contains(t, []interface{}{1, 2, 3}, v)
	}

	f := &stubFactory{tables: map[string]bool{"users": true}, err: errors.New("boom")}
	r, _ = newTestResolver(t, s, f)
	_, err = resolveColumn(t, r, s, "posts", "user_id", nil)
	var gerr *errs.GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "posts", gerr.Table)
}

func TestInferredForeignKeyNeverCreates(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{
		table("teams", pk("id")),
		table("players", pk("id"), col("team_id", schema.TypeBigInt)),
	}}
	f := &stubFactory{tables: map[string]bool{"teams": true}}
	r, conn := newTestResolver(t, s, f)

	v, err := resolveColumn(t, r, s, "players", "team_id", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, f.created["teams"])

	conn.put("teams", map[string]interface{}{})
	v, err = resolveColumn(t, r, s, "players", "team_id", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHeuristics(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("people",
		pk("id"),
		col("email", schema.TypeString),
		col("password", schema.TypeString),
		col("api_token", schema.TypeString),
		col("username", schema.TypeString),
		col("website_url", schema.TypeString),
		col("external_uuid", schema.TypeString),
		col("slug", schema.TypeString),
		col("verified_at", schema.TypeString),
		col("nickname", schema.TypeString),
		col("bio", schema.TypeText),
		col("age", schema.TypeInteger),
		col("balance", schema.TypeDecimal),
		col("active", schema.TypeBoolean),
		col("birthday", schema.TypeDate),
		col("alarm", schema.TypeTime),
		col("settings", schema.TypeJSON),
		col("avatar", schema.TypeBinary),
		col("ref", schema.TypeUUID),
		col("tags", schema.TypeUnknown),
	)}}
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	r, _ := newTestResolver(t, s, nil)
	r.run.now = func() time.Time { return now }

	get := func(column string) interface{} {
		v, err := resolveColumn(t, r, s, "people", column, nil)
		require.NoError(t, err, column)
		return v
	}

	assert.Contains(t, get("email"), "@")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(get("password").(string)), []byte("password")))
	assert.Len(t, get("api_token"), 40)
	assert.NotEmpty(t, get("username"))
	assert.NotEmpty(t, get("website_url"))
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, get("external_uuid"))
	assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, get("slug"))

	verified := get("verified_at").(time.Time)
	assert.False(t, verified.After(now))
	assert.False(t, verified.Before(now.AddDate(-1, 0, 0)))

	assert.Len(t, strings.Fields(get("nickname").(string)), 3)
	assert.NotEmpty(t, get("bio"))

	age := get("age").(int)
	assert.True(t, age >= 1 && age <= 10000)
	balance := get("balance").(float64)
	assert.True(t, balance >= 1 && balance <= 10000)
	assert.IsType(t, true, get("active"))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, get("birthday"))
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, get("alarm"))
	assert.Regexp(t, `^\{"value":".+"\}$`, get("settings"))
	assert.LessOrEqual(t, len(get("avatar").(string)), 50)
	assert.Len(t, get("ref"), 36)
	assert.Nil(t, get("tags"))
}

func TestUniqueEmailsAcrossRows(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("users", pk("id"), col("email", schema.TypeString))}}
	r, _ := newTestResolver(t, s, nil)

	seen := map[interface{}]bool{}
	for i := 0; i < 200; i++ {
		v, err := resolveColumn(t, r, s, "users", "email", nil)
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate email %v", v)
		seen[v] = true
	}
}

func TestFallback(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{table("t",
		col("flag", schema.TypeBoolean),
		col("qty", schema.TypeSmallInt),
		col("price", schema.TypeFloat),
		col("label", schema.TypeString),
		col("shape", schema.TypeUnknown),
	)}}
	r, _ := newTestResolver(t, s, nil)
	tbl := s.Table("t")

	fallback := func(name string) interface{} {
		v, err := r.Fallback(tbl, tbl.Column(name))
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, false, fallback("flag"))
	assert.Equal(t, 1, fallback("qty"))
	assert.Equal(t, 0, fallback("price"))
	assert.IsType(t, "", fallback("label"))
	assert.NotEqual(t, "n/a", fallback("label"))
	assert.Equal(t, "n/a", fallback("shape"))
}
