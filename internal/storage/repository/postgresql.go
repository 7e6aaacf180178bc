// Package repository implements the PostgreSQL-backed store for principals,
// subscription plans, payments and video metadata.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// Sentinel storage errors. Services translate these into their own domain
// failures at the boundary.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolationCode = "23505"

// Storage wraps the database handle and implements the repository methods.
// The pool bounds concurrent connections; no method holds a transaction
// across an external call.
type Storage struct {
	DB *sql.DB
}

// New opens a connection pool to PostgreSQL and verifies connectivity.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
