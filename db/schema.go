// schema.go turns raw catalog metadata into the table descriptions the
// knowledge base is built from.
//
// Every provider fills a catalog with the same four facts:
//   - tables (name, optional comment)
//   - columns (name, declared type, optional comment) in ordinal order
//   - primary key columns
//   - foreign key columns and the table.column they reference
//
// BuildSchema then applies one enrichment rule for all of them, so a
// Postgres database and a YAML file describing the same tables produce
// the same knowledge document.
package db

import (
	"context"
	"sort"
	"strings"

	"github.com/DachengChen/sqlagent/assistant"
)

// SchemaProvider reads the table metadata of one database.
type SchemaProvider interface {
	FetchSchema(ctx context.Context) ([]assistant.TableSchema, error)
}

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name     string
	DataType string
	Comment  string
	IsPK     bool
}

// ForeignKeyInfo describes a foreign key column.
type ForeignKeyInfo struct {
	Column        string
	ForeignTable  string
	ForeignColumn string
}

// TableInfo holds raw schema information for a table.
type TableInfo struct {
	Name        string
	Comment     string
	Columns     []ColumnInfo
	ForeignKeys []ForeignKeyInfo
}

// BuildSchema enriches tables into knowledge base descriptors, ordered
// by table name. Column order is preserved.
//
// A column is described by its comment, or "<col> of type <type>" when it
// has none, followed by " (Primary Key)" and/or
// " (Foreign Key to <Table>.<Column>)".
func BuildSchema(tables []TableInfo) []assistant.TableSchema {
	sorted := make([]TableInfo, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]assistant.TableSchema, 0, len(sorted))
	for _, t := range sorted {
		fks := make(map[string]ForeignKeyInfo, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			if _, dup := fks[fk.Column]; !dup {
				fks[fk.Column] = fk
			}
		}

		ts := assistant.TableSchema{
			Name:        t.Name,
			Description: tableDescription(t),
			Columns:     make([]assistant.ColumnSchema, 0, len(t.Columns)),
		}
		for _, c := range t.Columns {
			fk, hasFK := fks[c.Name]
			ts.Columns = append(ts.Columns, assistant.ColumnSchema{
				Name:        c.Name,
				Type:        c.DataType,
				Description: columnDescription(c, fk, hasFK),
			})
		}
		out = append(out, ts)
	}
	return out
}

func tableDescription(t TableInfo) string {
	if c := strings.TrimSpace(t.Comment); c != "" {
		return c
	}
	return "Table containing information for " + t.Name + "."
}

func columnDescription(c ColumnInfo, fk ForeignKeyInfo, hasFK bool) string {
	desc := strings.TrimSpace(c.Comment)
	if desc == "" {
		desc = c.Name + " of type " + c.DataType
	}
	if c.IsPK {
		desc += " (Primary Key)"
	}
	if hasFK {
		desc += " (Foreign Key to " + fk.ForeignTable + "." + fk.ForeignColumn + ")"
	}
	return desc
}

// catalog accumulates rows from the four catalog queries. Facts about
// tables that were not listed (views, system tables) are ignored.
type catalog struct {
	tables map[string]*TableInfo
}

func newCatalog() *catalog {
	return &catalog{tables: make(map[string]*TableInfo)}
}

func (c *catalog) addTable(name, comment string) {
	if _, ok := c.tables[name]; !ok {
		c.tables[name] = &TableInfo{Name: name, Comment: comment}
	}
}

func (c *catalog) addColumn(table string, col ColumnInfo) {
	if t, ok := c.tables[table]; ok {
		t.Columns = append(t.Columns, col)
	}
}

func (c *catalog) markPK(table, column string) {
	t, ok := c.tables[table]
	if !ok {
		return
	}
	for i := range t.Columns {
		if t.Columns[i].Name == column {
			t.Columns[i].IsPK = true
		}
	}
}

func (c *catalog) addForeignKey(table string, fk ForeignKeyInfo) {
	if t, ok := c.tables[table]; ok {
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
}

// list returns the accumulated tables. Foreign keys that name no column
// (SQLite allows referencing the parent's primary key implicitly) are
// resolved to the referenced table's first primary key column.
func (c *catalog) list() []TableInfo {
	out := make([]TableInfo, 0, len(c.tables))
	for _, t := range c.tables {
		for i, fk := range t.ForeignKeys {
			if fk.ForeignColumn == "" {
				t.ForeignKeys[i].ForeignColumn = c.primaryKey(fk.ForeignTable)
			}
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *catalog) primaryKey(table string) string {
	if t, ok := c.tables[table]; ok {
		for _, col := range t.Columns {
			if col.IsPK {
				return col.Name
			}
		}
	}
	return ""
}
