package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/DachengChen/sqlagent/assistant"
	"github.com/DachengChen/sqlagent/config"
)

// MySQL reads the schema of the connected MySQL database.
type MySQL struct {
	DB *sql.DB
}

const myTablesSQL = `
	SELECT TABLE_NAME, TABLE_COMMENT
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`

const myColumnsSQL = `
	SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, COLUMN_COMMENT
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE()
	ORDER BY TABLE_NAME, ORDINAL_POSITION`

const myPrimaryKeysSQL = `
	SELECT TABLE_NAME, COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = DATABASE() AND CONSTRAINT_NAME = 'PRIMARY'`

const myForeignKeysSQL = `
	SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL
	ORDER BY TABLE_NAME, ORDINAL_POSITION`

// FetchSchema implements SchemaProvider.
func (m *MySQL) FetchSchema(ctx context.Context) ([]assistant.TableSchema, error) {
	cat := newCatalog()

	if err := scanRows(ctx, m.DB, myTablesSQL, nil, 2, func(v []string) {
		cat.addTable(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if err := scanRows(ctx, m.DB, myColumnsSQL, nil, 4, func(v []string) {
		cat.addColumn(v[0], ColumnInfo{Name: v[1], DataType: v[2], Comment: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	if err := scanRows(ctx, m.DB, myPrimaryKeysSQL, nil, 2, func(v []string) {
		cat.markPK(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list primary keys: %w", err)
	}
	if err := scanRows(ctx, m.DB, myForeignKeysSQL, nil, 4, func(v []string) {
		cat.addForeignKey(v[0], ForeignKeyInfo{Column: v[1], ForeignTable: v[2], ForeignColumn: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	return BuildSchema(cat.list()), nil
}

// mysqlDSN builds the driver DSN. An explicit dsn is parsed so that addr
// can still redirect it to a tunnel endpoint.
func mysqlDSN(cfg config.Database, addr string) (string, error) {
	var mc *mysql.Config
	if cfg.ConnString != "" {
		parsed, err := mysql.ParseDSN(cfg.ConnString)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Name
		mc.Net = "tcp"
		mc.Addr = cfg.Addr()
	}
	if addr != "" {
		mc.Net = "tcp"
		mc.Addr = addr
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}
