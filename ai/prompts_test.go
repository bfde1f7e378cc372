package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectFor("postgres"))
	assert.Equal(t, DialectPostgres, DialectFor(" PostgreSQL "))
	assert.Equal(t, DialectMySQL, DialectFor("mariadb"))
	assert.Equal(t, DialectSQLite, DialectFor("sqlite3"))
	assert.Equal(t, DialectTSQL, DialectFor("sqlserver"))
	assert.Equal(t, DialectTSQL, DialectFor("MSSQL"))
	assert.Equal(t, DialectTSQL, DialectFor("file"))
	assert.Equal(t, DialectTSQL, DialectFor(""))
}

func TestInstructions(t *testing.T) {
	tsql := Instructions(DialectTSQL)
	assert.Contains(t, tsql, "**Microsoft SQL Server (T-SQL)** database")
	assert.Contains(t, tsql, "`SELECT TOP 10 *`")
	assert.Contains(t, tsql, "ONLY the Microsoft SQL Server (T-SQL) query")
	assert.NotContains(t, tsql, "%!")

	for i := 1; i <= 6; i++ {
		assert.Contains(t, tsql, string(rune('0'+i))+".  **")
	}

	pg := Instructions(DialectPostgres)
	assert.Contains(t, pg, "LIMIT 10")
	assert.False(t, strings.Contains(pg, "T-SQL"))
}
