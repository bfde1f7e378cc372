package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/DachengChen/sqlagent/assistant"
)

// SQLite reads the schema of a SQLite database file.
type SQLite struct {
	DB *sql.DB
}

const liteTablesSQL = `
	SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`

// FetchSchema implements SchemaProvider. SQLite keeps no comments, so
// every description is derived.
func (s *SQLite) FetchSchema(ctx context.Context) ([]assistant.TableSchema, error) {
	cat := newCatalog()
	var names []string

	if err := scanRows(ctx, s.DB, liteTablesSQL, nil, 1, func(v []string) {
		cat.addTable(v[0], "")
		names = append(names, v[0])
	}); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	for _, table := range names {
		args := []any{table}
		if err := scanRows(ctx, s.DB, `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, args, 3, func(v []string) {
			pk, _ := strconv.Atoi(v[2])
			cat.addColumn(table, ColumnInfo{Name: v[0], DataType: v[1], IsPK: pk > 0})
		}); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		if err := scanRows(ctx, s.DB, `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, args, 3, func(v []string) {
			cat.addForeignKey(table, ForeignKeyInfo{Column: v[0], ForeignTable: v[1], ForeignColumn: v[2]})
		}); err != nil {
			return nil, fmt.Errorf("foreign keys %s: %w", table, err)
		}
	}

	return BuildSchema(cat.list()), nil
}
