package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type Adapter struct {
	pool     *pgxpool.Pool
	qb       squirrel.StatementBuilderType
	database string
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DSN maps connection parameters onto a postgres:// URL. A unix socket
// directory is passed through the host query parameter.
func DSN(p common.ConnectionParams) (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Database == "" {
		return "", errs.Configuration("postgres connection is missing a database name")
	}

	u := &url.URL{Scheme: "postgres", Path: "/" + p.Database}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}

	q := url.Values{}
	for k, v := range p.Options {
		q.Set(k, v)
	}
	if p.Socket != "" {
		q.Set("host", p.Socket)
	} else {
		host := p.Host
		if host == "" {
			host = "localhost"
		}
		port := p.Port
		if port == 0 {
			port = 5432
		}
		u.Host = host + ":" + strconv.Itoa(port)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Adapter) Connect(ctx context.Context, params common.ConnectionParams) error {
	dsn, err := DSN(params)
	if err != nil {
		return err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	// seeding is sequential; one connection keeps session state predictable
	config.MaxConns = 1
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	p.database = config.ConnConfig.Database
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Dialect() string {
	return common.Postgres
}

func (p *Adapter) DatabaseName() string {
	return p.database
}

func quote(name string) string {
	return pq.QuoteIdentifier(name)
}
