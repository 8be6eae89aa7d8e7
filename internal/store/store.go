package store

import (
	"context"
	"errors"
)

// TableName is the only table the dataset exposes
const TableName = "sales_data"

var (
	// ErrDataUnavailable wraps every driver, connection and scan failure
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrDatabaseNotFound is returned when the dataset file does not exist
	ErrDatabaseNotFound = errors.New("database not found")
)

// Row is one opaque record in column order
type Row []any

// Store read-only dataset access
type Store interface {
	// Query runs a parameterized read. Varying values must be bound through args.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Close releases the connection pool
	Close() error
}
