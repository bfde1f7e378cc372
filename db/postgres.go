package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DachengChen/sqlagent/assistant"
)

// Postgres reads the schema of one Postgres namespace through pgx.
type Postgres struct {
	Pool   *pgxpool.Pool
	Schema string
}

const pgTablesSQL = `
	SELECT c.relname, COALESCE(obj_description(c.oid, 'pg_class'), '')
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relkind IN ('r', 'p') AND NOT c.relispartition
	ORDER BY c.relname`

const pgColumnsSQL = `
	SELECT c.relname, a.attname, format_type(a.atttypid, a.atttypmod),
	       COALESCE(col_description(c.oid, a.attnum), '')
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY c.relname, a.attnum`

// Key columns come from pg_constraint rather than information_schema:
// constraint names are only unique per table, and conkey/confkey pair a
// composite foreign key's columns by position.
const pgPrimaryKeysSQL = `
	SELECT c.relname, a.attname
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey) AS k(attnum)
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
	WHERE con.contype = 'p' AND n.nspname = $1`

const pgForeignKeysSQL = `
	SELECT c.relname, a.attname, rc.relname, ra.attname
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_class rc ON rc.oid = con.confrelid
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord)
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
	JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refattnum
	WHERE con.contype = 'f' AND n.nspname = $1
	ORDER BY c.relname, con.conname, k.ord`

// FetchSchema implements SchemaProvider.
func (p *Postgres) FetchSchema(ctx context.Context) ([]assistant.TableSchema, error) {
	schema := p.Schema
	if schema == "" {
		schema = "public"
	}
	cat := newCatalog()

	if err := p.scan(ctx, pgTablesSQL, schema, 2, func(v []string) {
		cat.addTable(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if err := p.scan(ctx, pgColumnsSQL, schema, 4, func(v []string) {
		cat.addColumn(v[0], ColumnInfo{Name: v[1], DataType: v[2], Comment: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	if err := p.scan(ctx, pgPrimaryKeysSQL, schema, 2, func(v []string) {
		cat.markPK(v[0], v[1])
	}); err != nil {
		return nil, fmt.Errorf("list primary keys: %w", err)
	}
	if err := p.scan(ctx, pgForeignKeysSQL, schema, 4, func(v []string) {
		cat.addForeignKey(v[0], ForeignKeyInfo{Column: v[1], ForeignTable: v[2], ForeignColumn: v[3]})
	}); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	return BuildSchema(cat.list()), nil
}

// scan runs query with the schema name and hands every row, as n
// strings, to fn.
func (p *Postgres) scan(ctx context.Context, query, schema string, n int, fn func([]string)) error {
	rows, err := p.Pool.Query(ctx, query, schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	vals := make([]string, n)
	dest := make([]any, n)
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		fn(vals)
	}
	return rows.Err()
}
