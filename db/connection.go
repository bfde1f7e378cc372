// Package db reads database schemas for the knowledge base.
//
// Design decisions:
//   - Postgres goes through pgxpool; MySQL, SQL Server and SQLite through
//     database/sql with their drivers. A YAML file can stand in for a
//     live database.
//   - SSH tunnel integration is handled transparently: if SSH is enabled,
//     we first establish the tunnel, then point the driver at the local
//     endpoint.
//   - Connections are opened once at startup and closed right after the
//     schema is read.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DachengChen/sqlagent/config"
	"github.com/DachengChen/sqlagent/ssh"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open connects to the configured schema source. The returned closer
// releases the connection and any SSH tunnel.
func Open(ctx context.Context, cfg config.Database) (SchemaProvider, io.Closer, error) {
	switch cfg.Driver {
	case "file":
		return &File{Path: cfg.ConnString}, nopCloser, nil
	case "sqlite":
		db, err := openSQL(ctx, "sqlite3", cfg.ConnString)
		if err != nil {
			return nil, nil, err
		}
		return &SQLite{DB: db}, db, nil
	case "postgres", "mysql", "sqlserver":
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	// If SSH tunnel is requested, set it up first.
	var tunnel *ssh.Tunnel
	var local *ssh.Addr
	if cfg.SSH.Enabled {
		t, err := ssh.NewTunnel(cfg.SSH, cfg.Addr())
		if err != nil {
			return nil, nil, fmt.Errorf("ssh tunnel: %w", err)
		}
		addr, err := t.Start(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("ssh tunnel start: %w", err)
		}
		tunnel, local = t, addr
	}
	stopTunnel := func() {
		if tunnel != nil {
			tunnel.Stop()
		}
	}

	if cfg.Driver != "postgres" {
		var addr string
		if local != nil {
			addr = local.String()
		}
		provider, db, err := openNetworkSQL(ctx, cfg, addr)
		if err != nil {
			stopTunnel()
			return nil, nil, err
		}
		return provider, closerFunc(func() error {
			err := db.Close()
			stopTunnel()
			return err
		}), nil
	}

	pool, err := openPostgres(ctx, cfg, local)
	if err != nil {
		stopTunnel()
		return nil, nil, err
	}
	return &Postgres{Pool: pool, Schema: cfg.Schema}, closerFunc(func() error {
		pool.Close()
		stopTunnel()
		return nil
	}), nil
}

func openPostgres(ctx context.Context, cfg config.Database, local *ssh.Addr) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgx config: %w", err)
	}
	if local != nil {
		// Override connection target with local tunnel endpoint
		pcfg.ConnConfig.Host = local.Host
		pcfg.ConnConfig.Port = uint16(local.Port)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgx connect: %w", err)
	}

	// Verify the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	return pool, nil
}

// openNetworkSQL connects a database/sql backed server provider. addr,
// when set, replaces the configured host:port.
func openNetworkSQL(ctx context.Context, cfg config.Database, addr string) (SchemaProvider, *sql.DB, error) {
	var (
		driver, dsn string
		err         error
	)
	switch cfg.Driver {
	case "mysql":
		driver = "mysql"
		dsn, err = mysqlDSN(cfg, addr)
	case "sqlserver":
		driver = "sqlserver"
		dsn, err = sqlServerDSN(cfg, addr)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	db, err := openSQL(ctx, driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if driver == "mysql" {
		return &MySQL{DB: db}, db, nil
	}
	return &SQLServer{DB: db}, db, nil
}

func openSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", driver, err)
	}
	return db, nil
}
