package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DachengChen/sqlagent/assistant"
)

// File reads a schema description from a YAML document:
//
//	tables:
//	  - name: Orders
//	    description: Customer orders
//	    columns:
//	      - name: OrderID
//	        type: int
//	        primary_key: true
//	      - name: UserID
//	        type: int
//	        references: Users.UserID
//
// Descriptions are optional and enriched like catalog comments.
type File struct {
	Path string
}

type fileSchema struct {
	Tables []fileTable `yaml:"tables"`
}

type fileTable struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Columns     []fileColumn `yaml:"columns"`
}

type fileColumn struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	PrimaryKey  bool   `yaml:"primary_key"`
	References  string `yaml:"references"`
}

// FetchSchema implements SchemaProvider.
func (f *File) FetchSchema(ctx context.Context) ([]assistant.TableSchema, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return ParseSchemaYAML(data)
}

// ParseSchemaYAML decodes a schema document and enriches it.
func ParseSchemaYAML(data []byte) ([]assistant.TableSchema, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	tables := make([]TableInfo, 0, len(doc.Tables))
	for i, t := range doc.Tables {
		if t.Name == "" {
			return nil, fmt.Errorf("schema file: table %d has no name", i)
		}
		ti := TableInfo{Name: t.Name, Comment: t.Description}
		for _, c := range t.Columns {
			if c.Name == "" {
				return nil, fmt.Errorf("schema file: table %s has a column with no name", t.Name)
			}
			ti.Columns = append(ti.Columns, ColumnInfo{
				Name:     c.Name,
				DataType: c.Type,
				Comment:  c.Description,
				IsPK:     c.PrimaryKey,
			})
			if c.References == "" {
				continue
			}
			table, column, ok := strings.Cut(c.References, ".")
			if !ok || table == "" || column == "" {
				return nil, fmt.Errorf("schema file: %s.%s references %q, want Table.Column", t.Name, c.Name, c.References)
			}
			ti.ForeignKeys = append(ti.ForeignKeys, ForeignKeyInfo{Column: c.Name, ForeignTable: table, ForeignColumn: column})
		}
		tables = append(tables, ti)
	}
	return BuildSchema(tables), nil
}
