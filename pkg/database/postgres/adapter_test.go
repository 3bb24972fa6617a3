package postgres

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name   string
		params common.ConnectionParams
		want   string
	}{
		{
			name:   "url wins",
			params: common.ConnectionParams{URL: "postgres://u:p@db:5433/app?sslmode=disable", Database: "other"},
			want:   "postgres://u:p@db:5433/app?sslmode=disable",
		},
		{
			name:   "defaults",
			params: common.ConnectionParams{Database: "app"},
			want:   "postgres://localhost:5432/app",
		},
		{
			name:   "credentials and options",
			params: common.ConnectionParams{Host: "db", Port: 6432, User: "seed", Password: "s3cr3t", Database: "app", Options: map[string]string{"sslmode": "disable"}},
			want:   "postgres://seed:s3cr3t@db:6432/app?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DSN(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDSNSocket(t *testing.T) {
	got, err := DSN(common.ConnectionParams{Socket: "/var/run/postgresql", User: "seed", Database: "app"})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Empty(t, u.Host)
	assert.Equal(t, "/var/run/postgresql", u.Query().Get("host"))
	assert.Equal(t, "/app", u.Path)
	assert.Equal(t, "seed", u.User.Username())
}

func TestDSNRequiresDatabase(t *testing.T) {
	_, err := DSN(common.ConnectionParams{Host: "db"})
	var cerr *errs.ConfigurationError
	assert.True(t, errors.As(err, &cerr))
}

func TestBuildInsert(t *testing.T) {
	a := New()
	rows := [][]interface{}{{"ada", "ada@example.com"}, {"bob", "bob@example.com"}}

	query, args, err := BuildInsert(a.qb, "users", []string{"name", "email"}, rows, false)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("name","email") VALUES ($1,$2),($3,$4)`, query)
	assert.Equal(t, []interface{}{"ada", "ada@example.com", "bob", "bob@example.com"}, args)

	query, _, err = BuildInsert(a.qb, "role_user", []string{"role_id", "user_id"}, [][]interface{}{{1, 2}}, true)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "role_user" ("role_id","user_id") VALUES ($1,$2) ON CONFLICT DO NOTHING`, query)
}

func TestQuoteEscapes(t *testing.T) {
	assert.Equal(t, `"odd""name"`, quote(`odd"name`))
}
