package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	DefaultAdminDatabase  = "postgres"
	DefaultConnectTimeout = 10 * time.Second
)

// PostgresCatalog manages databases through a single pgx connection. pgx
// does not open a transaction unless asked to, so CREATE DATABASE runs in
// autocommit mode.
type PostgresCatalog struct {
	conn *pgx.Conn
}

// PostgresOpener returns an Opener that connects to adminDB on the target
// server, giving up after connectTimeout.
func PostgresOpener(adminDB string, connectTimeout time.Duration) Opener {
	return func(ctx context.Context, d Descriptor) (Catalog, error) {
		cat, err := OpenPostgres(ctx, d, adminDB, connectTimeout)
		if err != nil {
			return nil, err
		}
		return cat, nil
	}
}

// OpenPostgres connects to adminDB using the credentials and options of d.
func OpenPostgres(ctx context.Context, d Descriptor, adminDB string, connectTimeout time.Duration) (*PostgresCatalog, error) {
	if adminDB == "" {
		adminDB = DefaultAdminDatabase
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	cfg, err := pgx.ParseConfig(d.AdminURL(adminDB))
	if err != nil {
		return nil, fmt.Errorf("build admin connection config: %w", err)
	}
	cfg.ConnectTimeout = connectTimeout

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresCatalog{conn: conn}, nil
}

// DatabaseExists reports whether pg_database lists name. The match is
// exact and case-sensitive.
func (c *PostgresCatalog) DatabaseExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := c.conn.QueryRow(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateDatabase issues CREATE DATABASE with name as a quoted identifier.
func (c *PostgresCatalog) CreateDatabase(ctx context.Context, name string) error {
	_, err := c.conn.Exec(ctx, createDatabaseSQL(name))
	return err
}

// Close terminates the connection.
func (c *PostgresCatalog) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

func createDatabaseSQL(name string) string {
	return "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
}
