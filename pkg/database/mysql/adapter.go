package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Masterminds/squirrel"
	driver "github.com/go-sql-driver/mysql"
)

type Adapter struct {
	db        *sql.DB
	qb        squirrel.StatementBuilderType
	currentDB string
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB, database string) *Adapter {
	a := New()
	a.db = db
	a.currentDB = database
	return a
}

// DSN maps connection parameters onto a go-sql-driver DSN. A unix socket
// takes precedence over host/port. mysql:// URLs are rewritten the same way.
func DSN(p common.ConnectionParams) (string, error) {
	if p.URL != "" {
		return convertURL(p.URL), nil
	}
	if p.Database == "" {
		return "", errs.Configuration("mysql connection is missing a database name")
	}

	cfg := driver.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.DBName = p.Database
	cfg.ParseTime = true
	if p.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = p.Socket
	} else {
		host := p.Host
		if host == "" {
			host = "127.0.0.1"
		}
		port := p.Port
		if port == 0 {
			port = 3306
		}
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	if len(p.Options) > 0 {
		cfg.Params = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func convertURL(url string) string {
	if !strings.HasPrefix(url, "mysql://") {
		return url
	}

	dsn := strings.TrimPrefix(url, "mysql://")
	credentials := ""
	if atIndex := strings.LastIndex(dsn, "@"); atIndex >= 0 {
		credentials = dsn[:atIndex+1]
		dsn = dsn[atIndex+1:]
	}

	hostPort, dbAndParams := dsn, ""
	if slashIndex := strings.Index(dsn, "/"); slashIndex >= 0 {
		hostPort, dbAndParams = dsn[:slashIndex], dsn[slashIndex+1:]
	}
	if hostPort == "" {
		hostPort = "127.0.0.1:3306"
	}

	dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=REQUIRED", "tls=skip-verify")
	dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=DISABLED", "tls=false")
	dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=require", "tls=skip-verify")
	dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=disable", "tls=false")

	return fmt.Sprintf("%stcp(%s)/%s", credentials, hostPort, dbAndParams)
}

func (m *Adapter) Connect(ctx context.Context, params common.ConnectionParams) error {
	dsn, err := DSN(params)
	if err != nil {
		return err
	}

	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	m.currentDB = cfg.DBName

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	// FOREIGN_KEY_CHECKS is session scoped, so every statement must share one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Dialect() string {
	return common.MySQL
}

func (m *Adapter) DatabaseName() string {
	return m.currentDB
}

func quote(name string) string {
	return common.QuoteIdent(name, "`")
}
