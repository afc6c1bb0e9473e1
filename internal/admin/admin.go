// Package admin talks to the PgBouncer admin console.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallarm/pgbouncer-config-reload/internal/config"
	"github.com/wallarm/pgbouncer-config-reload/internal/logger"
)

// connectTimeout bounds the TCP+auth handshake to the console.
const connectTimeout = 5 * time.Second

// Client issues commands against the PgBouncer admin console. Each
// command dials a fresh connection; the console is not meant to hold
// long-lived sessions and a stale connection would mask PgBouncer
// restarts.
type Client struct {
	conn config.ConnectionConfig
}

// NewClient creates a client for the given connection parameters.
func NewClient(conn config.ConnectionConfig) *Client {
	return &Client{conn: conn}
}

// connConfig builds the pgx connection config for the admin console.
// The console only speaks the simple query protocol, so the extended
// protocol and statement caching are disabled. The password is set on
// the parsed config directly and never appears in the keyword string.
func connConfig(conn config.ConnectionConfig) (*pgx.ConnConfig, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=disable",
		conn.Host, conn.Port, conn.User, conn.Database,
	)

	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	cfg.Password = conn.Password
	cfg.ConnectTimeout = connectTimeout
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cfg.RuntimeParams["application_name"] = "pgbouncer-config-reload"

	return cfg, nil
}

// Run connects to the admin console, executes a single command, and
// disconnects.
func (c *Client) Run(ctx context.Context, command string) error {
	cfg, err := connConfig(c.conn)
	if err != nil {
		return err
	}

	logger.Debug("Connecting to PgBouncer admin console",
		"host", c.conn.Host,
		"port", c.conn.Port,
		"user", c.conn.User,
		"database", c.conn.Database,
	)

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to pgbouncer on %s:%d: %w", c.conn.Host, c.conn.Port, err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, command); err != nil {
		return fmt.Errorf("admin command %q failed: %w", command, err)
	}

	return nil
}

// Reload executes RELOAD on the admin console, telling PgBouncer to
// re-read its configuration files.
func (c *Client) Reload(ctx context.Context) error {
	logger.Debug("Pgbouncer graceful reload starting")
	if err := c.Run(ctx, "RELOAD"); err != nil {
		return err
	}
	logger.Info("Pgbouncer gracefully reloaded")
	return nil
}

// Ping verifies the admin console is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.Run(ctx, "SHOW VERSION")
}
