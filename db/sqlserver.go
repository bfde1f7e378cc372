package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/DachengChen/sqlagent/assistant"
	"github.com/DachengChen/sqlagent/config"
)

// SQLServer reads the user tables of the connected SQL Server database.
// Descriptions come from the MS_Description extended property.
type SQLServer struct {
	DB *sql.DB
}

const msTablesSQL = `
	SELECT t.name, CAST(ISNULL(p.value, '') AS nvarchar(4000))
	FROM sys.tables t
	LEFT JOIN sys.extended_properties p
	  ON p.class = 1 AND p.major_id = t.object_id AND p.minor_id = 0 AND p.name = 'MS_Description'
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name`

const msColumnsSQL = `
	SELECT t.name, c.name, ty.name, CAST(ISNULL(p.value, '') AS nvarchar(4000))
	FROM sys.tables t
	JOIN sys.columns c ON c.object_id = t.object_id
	JOIN sys.types ty ON ty.user_type_id = c.user_type_id
	LEFT JOIN sys.extended_properties p
	  ON p.class = 1 AND p.major_id = t.object_id AND p.minor_id = c.column_id AND p.name = 'MS_Description'
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name, c.column_id`

const msPrimaryKeysSQL = `
	SELECT t.name, c.name
	FROM sys.key_constraints kc
	JOIN sys.tables t ON t.object_id = kc.parent_object_id
	JOIN sys.index_columns ic ON ic.object_id = kc.parent_object_id AND ic.index_id = kc.unique_index_id
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE kc.type = 'PK' AND t.is_ms_shipped = 0`

const msForeignKeysSQL = `
	SELECT t.name, c.name, rt.name, rc.name
	FROM sys.foreign_key_columns fkc
	JOIN sys.foreign_keys fk ON fk.object_id = fkc.constraint_object_id
	JOIN sys.tables t ON t.object_id = fkc.parent_object_id
	JOIN sys.columns c ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
	JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
	JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name, fk.name, fkc.constraint_column_id`

// FetchSchema implements SchemaProvider.
func (s *SQLServer) FetchSchema(ctx context.Context) ([]assistant.TableSchema, error) {
	cat := newCatalog()

	if err := scanRows(ctx, s.DB, msTablesSQL, nil, 2, func(v []string) {
		cat.addTable(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if err := scanRows(ctx, s.DB, msColumnsSQL, nil, 4, func(v []string) {
		cat.addColumn(v[0], ColumnInfo{Name: v[1], DataType: v[2], Comment: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	if err := scanRows(ctx, s.DB, msPrimaryKeysSQL, nil, 2, func(v []string) {
		cat.markPK(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list primary keys: %w", err)
	}
	if err := scanRows(ctx, s.DB, msForeignKeysSQL, nil, 4, func(v []string) {
		cat.addForeignKey(v[0], ForeignKeyInfo{Column: v[1], ForeignTable: v[2], ForeignColumn: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	return BuildSchema(cat.list()), nil
}

// sqlServerDSN builds a sqlserver:// URL. An explicit dsn in URL form can
// be redirected to addr; ADO-style strings are passed through untouched
// and cannot be tunnelled.
func sqlServerDSN(cfg config.Database, addr string) (string, error) {
	var u *url.URL
	if cfg.ConnString != "" {
		parsed, err := url.Parse(cfg.ConnString)
		if err != nil || parsed.Scheme != "sqlserver" {
			if addr != "" {
				return "", errors.New("ssh tunnel needs database.dsn in sqlserver:// form")
			}
			return cfg.ConnString, nil
		}
		u = parsed
	} else {
		u = &url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   cfg.Addr(),
		}
		if cfg.Name != "" {
			u.RawQuery = url.Values{"database": {cfg.Name}}.Encode()
		}
	}
	if addr != "" {
		u.Host = addr
	}
	return u.String(), nil
}
