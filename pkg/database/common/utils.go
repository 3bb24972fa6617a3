package common

import "strings"

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ConnectionParams describes how to reach a database. URL wins when set;
// otherwise each dialect maps the discrete fields onto its own DSN format.
type ConnectionParams struct {
	URL      string
	Host     string
	Port     int
	Socket   string
	User     string
	Password string
	Database string
	// Path is the sqlite database file, or ":memory:".
	Path    string
	Options map[string]string
}

// IsMemory reports whether a sqlite connection should stay in memory.
func (p ConnectionParams) IsMemory() bool {
	return p.Path == ":memory:" || p.URL == ":memory:" || p.URL == "sqlite://:memory:"
}

// QuoteIdent wraps an identifier in the given quote character, doubling any
// embedded quote characters.
func QuoteIdent(name string, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}

func QuoteAll(names []string, quote func(string) string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return quoted
}

// NormalizeValue converts driver specific scan results into plain Go values
// that can be written back through any driver.
func NormalizeValue(val interface{}) interface{} {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}
