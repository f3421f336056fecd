// Package db is a small hand-written query layer in the sqlc-generated
// idiom ncecere-raito's internal/store wraps: a DBTX interface any of
// *sql.DB/*sql.Tx satisfies, and a Queries struct holding one method per
// query. sqlc's generator itself isn't invoked; these methods are
// written by hand following the same calling convention so
// internal/store's wrapping code reads exactly as it would against
// generated output.
package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, the same seam
// sqlc-generated Queries structs use so callers can run queries inside
// or outside a transaction interchangeably.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries wraps a DBTX with one method per hand-written query.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}
