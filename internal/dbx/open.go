package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a *sql.DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// ParseDSN maps a DATABASE_URL to a database/sql driver name, the driver DSN
// and the dialect.
//
//	postgres://... | postgresql://...  -> pgx
//	sqlite://<path>                     -> sqlite (file path)
//	file:<path>[?...]                   -> sqlite (URI form)
func ParseDSN(dsn string) (driver string, source string, dialect Dialect, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, Postgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", "", fmt.Errorf("empty sqlite path in %q", dsn)
		}
		return "sqlite", withPragmas("file:" + path), SQLite, nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite", withPragmas(dsn), SQLite, nil
	}
	return "", "", "", fmt.Errorf("unsupported database url %q", dsn)
}

func withPragmas(source string) string {
	if strings.Contains(source, "?") {
		return source + "&" + sqlitePragmas
	}
	return source + "?" + sqlitePragmas
}

// Open opens and pings the database named by dsn.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	driver, source, dialect, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		// one writer at a time; WithTx callers never touch db inside fn
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, dialect, nil
}
