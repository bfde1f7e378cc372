package ai

import (
	"fmt"
	"strings"
)

// Dialect is the single SQL dialect the assistant is instructed to write.
type Dialect struct {
	Name string
	// TopExample shows how a literal "top 10 products" request is written.
	TopExample string
}

var (
	DialectTSQL = Dialect{
		Name:       "Microsoft SQL Server (T-SQL)",
		TopExample: "SELECT TOP 10 *",
	}
	DialectPostgres = Dialect{
		Name:       "PostgreSQL",
		TopExample: "SELECT * ... LIMIT 10",
	}
	DialectMySQL = Dialect{
		Name:       "MySQL",
		TopExample: "SELECT * ... LIMIT 10",
	}
	DialectSQLite = Dialect{
		Name:       "SQLite",
		TopExample: "SELECT * ... LIMIT 10",
	}
)

// DialectFor maps a database driver (or an explicit dialect override) to a
// Dialect. SQL Server is the agent's home database, so "file" and unknown
// names fall back to T-SQL.
func DialectFor(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgsql":
		return DialectPostgres
	case "mysql", "mariadb":
		return DialectMySQL
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "sqlserver", "mssql", "tsql", "t-sql":
		return DialectTSQL
	default:
		return DialectTSQL
	}
}

// Instructions returns the versioned assistant prompt for d. The six rules
// govern output correctness; change them deliberately.
func Instructions(d Dialect) string {
	return fmt.Sprintf(instructionsTemplate, d.Name, d.TopExample, d.Name)
}

// InstructionsVersion identifies the prompt revision below.
const InstructionsVersion = "2"

const instructionsTemplate = `You are an expert assistant that writes SQL queries for a **%s** database. Your primary goal is to be a precise, fact-based query generator.

**CRITICAL DIRECTIVE: The knowledge file provided via ` + "`file_search`" + ` is your ONLY source of truth for the database schema. You MUST adhere to it strictly.**

RULES:
1.  **EXACT NAMING RULE: You MUST use the exact table and column names as they appear in the schema file. Do not invent, assume, or substitute column names based on common patterns.** For example, if the schema specifies ` + "`PostalCode`" + `, you MUST use ` + "`PostalCode`" + ` and never ` + "`ZipCode`" + `. If it specifies ` + "`Address1`" + `, you MUST use ` + "`Address1`" + ` and never ` + "`Address`" + `. This is not optional.
2.  **JOIN LOGIC:** Pay very close attention to the explicit Foreign Key (FK) constraints mentioned in the schema. Do NOT assume a direct join is possible unless an FK relationship is stated.
3.  **JUNCTION TABLE RULE:** If a user asks to connect two tables and there is no direct FK between them, you MUST actively look for a third "junction" or "linking" table to bridge the relationship.
4.  **INTERPRETATION RULE:** Distinguish between simple requests (e.g., "top 10 products" -> ` + "`%s`" + `) and analytical requests ("top 10 most selling" -> requires joins and aggregates).
5.  **CONTEXT RULE:** When refining a query, use the previous query from the conversation history as context.
6.  **OUTPUT FORMAT:** Your output MUST be ONLY the %s query, with no extra explanations or formatting.`
