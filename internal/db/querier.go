package db

import (
	"context"
	"database/sql"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting every repository
// method run either against the shared connection or inside a caller-managed
// transaction without duplicating its body.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ querier = (*sql.DB)(nil)
	_ querier = (*sql.Tx)(nil)
)

// placeholders returns n "?" placeholders joined by commas, for building
// parameterised IN-list queries.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}

	b := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}

	return string(b)
}

// int64Args converts a slice of int64 ids into a []any suitable for
// passing as variadic query arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return args
}
