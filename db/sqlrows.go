package db

import (
	"context"
	"database/sql"
)

// scanRows runs query on db and hands every row, as n strings, to fn.
// NULL columns arrive as "".
func scanRows(ctx context.Context, db *sql.DB, query string, args []any, n int, fn func([]string)) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	nulls := make([]sql.NullString, n)
	dest := make([]any, n)
	for i := range nulls {
		dest[i] = &nulls[i]
	}
	vals := make([]string, n)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, v := range nulls {
			vals[i] = v.String
		}
		fn(vals)
	}
	return rows.Err()
}
