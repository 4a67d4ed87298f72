package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query subset shared by *pgxpool.Pool and pgx.Tx, so
// services can run the same statements inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is what services hold instead of a concrete *pgxpool.Pool.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
